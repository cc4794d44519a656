package factory

import (
	"context"
	"fmt"

	"ai-legal-engine/pkg/llm"
	"ai-legal-engine/pkg/llm/gemini"
	"ai-legal-engine/pkg/llm/ollama"
	"ai-legal-engine/pkg/llm/openai"
)

// Config selects and configures a text generation backend.
type Config struct {
	Provider   string // "ollama", "openai", "azure" or "gemini"
	Model      string
	BaseURL    string
	APIKey     string
	APIVersion string // Azure OpenAI only
}

func NewLLMProvider(ctx context.Context, cfg Config) (llm.LLMProvider, error) {
	switch cfg.Provider {
	case "ollama":
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434"
		}
		return ollama.NewOllamaProvider(baseURL, cfg.Model), nil
	case "openai":
		return openai.NewProvider(cfg.APIKey, cfg.BaseURL, cfg.Model, ""), nil
	case "azure":
		if cfg.APIVersion == "" {
			return nil, fmt.Errorf("azure provider requires an API version")
		}
		return openai.NewProvider(cfg.APIKey, cfg.BaseURL, cfg.Model, cfg.APIVersion), nil
	case "gemini":
		return gemini.NewProvider(ctx, cfg.APIKey, cfg.Model)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}
