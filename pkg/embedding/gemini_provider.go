package embedding

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// GeminiProvider generates embeddings with the Gemini API.
type GeminiProvider struct {
	client    *genai.Client
	model     string
	dimension int
}

var _ EmbeddingProvider = (*GeminiProvider)(nil)

func NewGeminiProvider(ctx context.Context, apiKey, model string, dimension int) (*GeminiProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return newGeminiProvider(client, model, dimension), nil
}

func newGeminiProvider(client *genai.Client, model string, dimension int) *GeminiProvider {
	if model == "" {
		model = "gemini-embedding-001"
	}
	return &GeminiProvider{client: client, model: model, dimension: dimension}
}

func (p *GeminiProvider) Dimension() int {
	return p.dimension
}

func (p *GeminiProvider) Embed(ctx context.Context, text string, task TaskType) ([]float32, error) {
	cfg := &genai.EmbedContentConfig{TaskType: string(task)}
	if p.dimension > 0 {
		cfg.OutputDimensionality = genai.Ptr(int32(p.dimension))
	}

	result, err := p.client.Models.EmbedContent(ctx,
		p.model,
		[]*genai.Content{genai.NewContentFromText(text, genai.RoleUser)},
		cfg,
	)
	if err != nil {
		return nil, fmt.Errorf("gemini embed failed: %w", err)
	}
	if len(result.Embeddings) == 0 {
		return nil, fmt.Errorf("no embeddings returned")
	}
	// only the 3072-dimension output is pre-normalized by the API
	return normalizeVector(result.Embeddings[0].Values), nil
}
