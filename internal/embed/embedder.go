// Package embed provides text embedding backends behind a single interface.
package embed

import "context"

// Embedder turns a batch of texts into fixed-dimension vectors.
type Embedder interface {
	// Name returns the backend name
	Name() string

	// Model returns the embedding model in use
	Model() string

	// Embed returns one vector per input text, in input order. Vectors are
	// raw model output; callers normalize if they need unit vectors.
	Embed(ctx context.Context, texts []string) ([][]float64, error)

	// Probe checks that the backend is configured and reachable
	Probe(ctx context.Context) error
}

// Config holds embedding backend configuration
type Config struct {
	// Provider name: "openai", "ollama", "" (empty defaults to ollama)
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama)
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider: "ollama",
		Model:    "nomic-embed-text",
		Timeout:  60,
	}
}
