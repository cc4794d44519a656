package embedding

import (
	"context"
	"fmt"
)

// Config selects and configures an embedding backend.
type Config struct {
	Provider   string // "ollama", "openai", "azure" or "gemini"
	Model      string
	BaseURL    string
	APIKey     string
	APIVersion string // Azure OpenAI only
	Dimension  int
}

func NewEmbeddingProvider(ctx context.Context, cfg Config) (EmbeddingProvider, error) {
	switch cfg.Provider {
	case "ollama":
		return NewOllamaProvider(cfg.BaseURL, cfg.Model, cfg.Dimension), nil
	case "openai":
		return NewOpenAIProvider(cfg.BaseURL, cfg.APIKey, cfg.Model, "", cfg.Dimension), nil
	case "azure":
		if cfg.APIVersion == "" {
			return nil, fmt.Errorf("azure embedding provider requires an API version")
		}
		return NewOpenAIProvider(cfg.BaseURL, cfg.APIKey, cfg.Model, cfg.APIVersion, cfg.Dimension), nil
	case "gemini":
		return NewGeminiProvider(ctx, cfg.APIKey, cfg.Model, cfg.Dimension)
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Provider)
	}
}
