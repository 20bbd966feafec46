// Package cache stores embedding vectors as opaque bytes so exemplar and
// sentence embeddings are computed once per provider and model.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key generates a cache key from namespace parts, typically provider, model,
// and text. Parts are joined with a separator that cannot appear in a model
// name before hashing, so distinct triples never collide.
func Key(parts ...string) string {
	hash := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	return "perfidia:v1:" + hex.EncodeToString(hash[:])
}
