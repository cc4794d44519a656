package bootstrap

import (
	"context"
	"fmt"

	"ai-legal-engine/internal/config"
	"ai-legal-engine/internal/repository/implementation"
	"ai-legal-engine/pkg/embedding"
	"ai-legal-engine/pkg/llm"
	"ai-legal-engine/pkg/llm/factory"
	"ai-legal-engine/pkg/vectorstore"
	"ai-legal-engine/pkg/vectorstore/memory"
	"ai-legal-engine/pkg/vectorstore/qdrant"

	"gorm.io/gorm"
)

func apiKeyFor(cfg *config.Config, provider string) string {
	switch provider {
	case "gemini":
		return cfg.Keys.GoogleGemini
	case "openai", "azure":
		return cfg.Keys.OpenAI
	default:
		return ""
	}
}

// NewEmbedder builds the embedding provider named in the configuration.
func NewEmbedder(ctx context.Context, cfg *config.Config) (embedding.EmbeddingProvider, error) {
	baseURL := cfg.Ai.EmbeddingBaseURL
	if baseURL == "" && cfg.Ai.EmbeddingProvider == "ollama" {
		baseURL = cfg.Ai.OllamaBaseURL
	}
	return embedding.NewEmbeddingProvider(ctx, embedding.Config{
		Provider:   cfg.Ai.EmbeddingProvider,
		Model:      cfg.Ai.EmbeddingModel,
		BaseURL:    baseURL,
		APIKey:     apiKeyFor(cfg, cfg.Ai.EmbeddingProvider),
		APIVersion: cfg.Ai.EmbeddingAPIVersion,
		Dimension:  cfg.Ai.EmbeddingDimension,
	})
}

// NewLLM builds the text generation provider named in the configuration.
func NewLLM(ctx context.Context, cfg *config.Config) (llm.LLMProvider, error) {
	baseURL := cfg.Ai.LLMBaseURL
	if baseURL == "" && cfg.Ai.LLMProvider == "ollama" {
		baseURL = cfg.Ai.OllamaBaseURL
	}
	return factory.NewLLMProvider(ctx, factory.Config{
		Provider:   cfg.Ai.LLMProvider,
		Model:      cfg.Ai.LLMModel,
		BaseURL:    baseURL,
		APIKey:     apiKeyFor(cfg, cfg.Ai.LLMProvider),
		APIVersion: cfg.Ai.LLMAPIVersion,
	})
}

// NewVectorIndex opens the named index on the configured backend and makes
// sure it exists.
func NewVectorIndex(ctx context.Context, cfg *config.Config, db *gorm.DB, name string, capacity int) (vectorstore.Index, error) {
	var idx vectorstore.Index
	switch cfg.Index.Backend {
	case config.BackendMemory:
		idx = memory.NewIndex()
	case config.BackendPgvector:
		if db == nil {
			return nil, fmt.Errorf("pgvector backend requires DB_CONNECTION_STRING")
		}
		idx = implementation.NewPgvectorIndex(db, name)
	case config.BackendQdrant:
		idx = qdrant.NewIndex(qdrant.Config{
			URL:        cfg.Index.QdrantURL,
			APIKey:     cfg.Keys.Qdrant,
			Collection: name,
		})
	default:
		return nil, fmt.Errorf("unsupported vector backend: %s", cfg.Index.Backend)
	}

	err := idx.Create(ctx, vectorstore.Spec{
		Name:      name,
		Dimension: cfg.Index.Dimension,
		Metric:    vectorstore.MetricCosine,
		Capacity:  capacity,
	})
	if err != nil {
		return nil, fmt.Errorf("create index %s: %w", name, err)
	}
	return idx, nil
}
