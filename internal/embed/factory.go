package embed

import (
	"fmt"
	"strings"
)

// NewEmbedder creates an embedding backend based on configuration
func NewEmbedder(config Config) (Embedder, error) {
	provider := strings.ToLower(config.Provider)

	switch provider {
	case "openai":
		return NewOpenAIEmbedder(config)

	case "ollama", "":
		// Local model by default; classification needs no API key
		return NewOllamaEmbedder(config)

	default:
		return nil, fmt.Errorf("unknown embedding provider: %s (supported: openai, ollama)", config.Provider)
	}
}
