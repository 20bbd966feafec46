package embed

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/vpenkov/perfidia/internal/cache"
)

// Cached wraps an Embedder with a byte cache keyed by provider, model, and
// text. Repeated sentences cost one backend call per process at most, and
// exemplar sets none at all once the disk layer is warm.
type Cached struct {
	backend Embedder
	store   cache.Cache
	ttl     time.Duration
}

// NewCached creates a caching wrapper around an embedding backend
func NewCached(backend Embedder, store cache.Cache, ttl time.Duration) *Cached {
	return &Cached{
		backend: backend,
		store:   store,
		ttl:     ttl,
	}
}

// Name returns the wrapped backend's name
func (c *Cached) Name() string {
	return c.backend.Name()
}

// Model returns the wrapped backend's model
func (c *Cached) Model() string {
	return c.backend.Model()
}

// Probe checks the wrapped backend
func (c *Cached) Probe(ctx context.Context) error {
	return c.backend.Probe(ctx)
}

// Embed serves cached vectors where possible and embeds only the misses in a
// single backend call. Results follow input order regardless of hit pattern.
func (c *Cached) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	vectors := make([][]float64, len(texts))
	var missTexts []string
	var missIdx []int

	for i, text := range texts {
		key := c.key(text)
		data, found := c.store.Get(key)
		if !found {
			missTexts = append(missTexts, text)
			missIdx = append(missIdx, i)
			continue
		}
		var vec []float64
		if err := json.Unmarshal(data, &vec); err != nil {
			// Unreadable entry counts as a miss and gets re-embedded
			_ = c.store.Delete(key)
			missTexts = append(missTexts, text)
			missIdx = append(missIdx, i)
			continue
		}
		vectors[i] = vec
	}

	if len(missTexts) == 0 {
		return vectors, nil
	}

	fresh, err := c.backend.Embed(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	if len(fresh) != len(missTexts) {
		return nil, fmt.Errorf("got %d embeddings for %d inputs", len(fresh), len(missTexts))
	}

	for j, vec := range fresh {
		vectors[missIdx[j]] = vec
		data, err := json.Marshal(vec)
		if err != nil {
			continue
		}
		// Cache failures are not embedding failures; the vector still flows
		_ = c.store.Set(c.key(missTexts[j]), data, c.ttl)
	}

	return vectors, nil
}

func (c *Cached) key(text string) string {
	return cache.Key(c.backend.Name(), c.backend.Model(), text)
}
