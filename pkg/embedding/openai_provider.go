package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// OpenAIProvider calls an OpenAI-compatible /embeddings endpoint. Setting
// APIVersion switches to Azure OpenAI deployment URLs and api-key auth.
type OpenAIProvider struct {
	BaseURL    string
	APIKey     string
	Model      string
	APIVersion string
	Client     *http.Client
	dimension  int
}

var _ EmbeddingProvider = (*OpenAIProvider)(nil)

func NewOpenAIProvider(baseURL, apiKey, model, apiVersion string, dimension int) *OpenAIProvider {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	if model == "" {
		model = "text-embedding-3-large"
	}
	return &OpenAIProvider{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		APIKey:     apiKey,
		Model:      model,
		APIVersion: apiVersion,
		Client:     &http.Client{Timeout: 60 * time.Second},
		dimension:  dimension,
	}
}

type openAIEmbeddingRequest struct {
	Model      string `json:"model,omitempty"`
	Input      string `json:"input"`
	Dimensions int    `json:"dimensions,omitempty"`
}

type openAIEmbeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (p *OpenAIProvider) Dimension() int {
	return p.dimension
}

func (p *OpenAIProvider) endpoint() string {
	if p.APIVersion != "" {
		return fmt.Sprintf("%s/openai/deployments/%s/embeddings?api-version=%s", p.BaseURL, p.Model, p.APIVersion)
	}
	return p.BaseURL + "/embeddings"
}

func (p *OpenAIProvider) Embed(ctx context.Context, text string, _ TaskType) ([]float32, error) {
	reqBody := openAIEmbeddingRequest{Input: text, Dimensions: p.dimension}
	if p.APIVersion == "" {
		reqBody.Model = p.Model
	}
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint(), bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if p.APIKey != "" {
		if p.APIVersion != "" {
			req.Header.Set("api-key", p.APIKey)
		} else {
			req.Header.Set("Authorization", "Bearer "+p.APIKey)
		}
	}

	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embedding api error (status %d): %s", resp.StatusCode, string(bodyBytes))
	}

	var embResp openAIEmbeddingResponse
	if err := json.Unmarshal(bodyBytes, &embResp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	if embResp.Error != nil {
		return nil, fmt.Errorf("embedding api returned error: %s", embResp.Error.Message)
	}
	if len(embResp.Data) == 0 {
		return nil, fmt.Errorf("empty data from embedding api")
	}
	return normalizeVector(embResp.Data[0].Embedding), nil
}
