package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"ai-legal-engine/pkg/vectorstore"
)

// Index is a minimal REST client for a single Qdrant collection.
type Index struct {
	url        string
	apiKey     string
	collection string
	client     *http.Client
	spec       *vectorstore.Spec
}

var _ vectorstore.Index = (*Index)(nil)

type Config struct {
	URL        string
	APIKey     string
	Collection string
	Timeout    time.Duration
}

func NewIndex(cfg Config) *Index {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Index{
		url:        cfg.URL,
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		client:     &http.Client{Timeout: timeout},
	}
}

func (s *Index) collectionURL() string {
	return fmt.Sprintf("%s/collections/%s", s.url, s.collection)
}

func (s *Index) Create(ctx context.Context, spec vectorstore.Spec) error {
	if spec.Dimension <= 0 {
		return vectorstore.ErrDimensionMismatch
	}
	s.spec = &spec

	exists, err := s.exists(ctx)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return s.createCollection(ctx)
}

func (s *Index) exists(ctx context.Context) (bool, error) {
	status, _, err := s.do(ctx, http.MethodGet, s.collectionURL(), nil)
	if err != nil {
		return false, err
	}
	return status == http.StatusOK, nil
}

func (s *Index) createCollection(ctx context.Context) error {
	body := map[string]any{
		"vectors": map[string]any{
			"size":     s.spec.Dimension,
			"distance": "Cosine",
		},
	}
	return s.expectOK(s.do(ctx, http.MethodPut, s.collectionURL(), body))
}

func (s *Index) Upsert(ctx context.Context, records []vectorstore.Record) error {
	if s.spec == nil {
		return vectorstore.ErrNotCreated
	}
	if len(records) == 0 {
		return nil
	}
	points := make([]map[string]any, len(records))
	for i, r := range records {
		if len(r.Vector) != s.spec.Dimension {
			return vectorstore.ErrDimensionMismatch
		}
		payload := map[string]any{
			"content": r.Content,
			"source":  r.Source,
		}
		if r.Page != nil {
			payload["page"] = *r.Page
		}
		points[i] = map[string]any{
			"id":      r.ID,
			"vector":  r.Vector,
			"payload": payload,
		}
	}
	body := map[string]any{"points": points}
	return s.expectOK(s.do(ctx, http.MethodPut, s.collectionURL()+"/points?wait=true", body))
}

type scoredPoint struct {
	ID      any            `json:"id"`
	Score   float64        `json:"score"`
	Payload map[string]any `json:"payload"`
}

func (s *Index) Search(ctx context.Context, req vectorstore.SearchRequest) ([]vectorstore.Match, error) {
	if s.spec == nil {
		return nil, vectorstore.ErrNotCreated
	}
	if len(req.Vector) != s.spec.Dimension {
		return nil, vectorstore.ErrDimensionMismatch
	}

	body := map[string]any{
		"vector":       req.Vector,
		"limit":        req.CandidateCount(),
		"with_payload": true,
		"params":       map[string]any{"exact": req.Exhaustive},
	}
	var resp struct {
		Result []scoredPoint `json:"result"`
	}
	if err := s.decode(s.do(ctx, http.MethodPost, s.collectionURL()+"/points/search", body))(&resp); err != nil {
		return nil, err
	}
	vectorHits := toMatches(resp.Result)

	if req.Text == "" {
		if len(vectorHits) > req.Limit() {
			vectorHits = vectorHits[:req.Limit()]
		}
		return vectorHits, nil
	}

	keywordHits, err := s.keywordSearch(ctx, req.Text, req.Limit())
	if err != nil {
		return nil, err
	}
	return vectorstore.Fuse(req.Limit(), vectorHits, keywordHits), nil
}

// keywordSearch scrolls points whose content matches the text condition.
// Qdrant does not score scroll results, so they keep storage order.
func (s *Index) keywordSearch(ctx context.Context, text string, limit int) ([]vectorstore.Match, error) {
	body := map[string]any{
		"limit":        limit,
		"with_payload": true,
		"filter": map[string]any{
			"must": []map[string]any{
				{"key": "content", "match": map[string]any{"text": text}},
			},
		},
	}
	var resp struct {
		Result struct {
			Points []scoredPoint `json:"points"`
		} `json:"result"`
	}
	if err := s.decode(s.do(ctx, http.MethodPost, s.collectionURL()+"/points/scroll", body))(&resp); err != nil {
		return nil, err
	}
	return toMatches(resp.Result.Points), nil
}

func toMatches(points []scoredPoint) []vectorstore.Match {
	out := make([]vectorstore.Match, 0, len(points))
	for _, p := range points {
		r := vectorstore.Record{ID: fmt.Sprint(p.ID)}
		if v, ok := p.Payload["content"].(string); ok {
			r.Content = v
		}
		if v, ok := p.Payload["source"].(string); ok {
			r.Source = v
		}
		if v, ok := p.Payload["page"].(float64); ok {
			page := int(v)
			r.Page = &page
		}
		out = append(out, vectorstore.Match{Record: r, Score: p.Score})
	}
	return out
}

// DeleteAll drops and recreates the collection.
func (s *Index) DeleteAll(ctx context.Context) error {
	if s.spec == nil {
		return vectorstore.ErrNotCreated
	}
	status, data, err := s.do(ctx, http.MethodDelete, s.collectionURL(), nil)
	if err != nil {
		return err
	}
	if status >= 300 && status != http.StatusNotFound {
		return fmt.Errorf("qdrant DELETE collection failed: status %d, body: %s", status, string(data))
	}
	return s.createCollection(ctx)
}

func (s *Index) Stats(ctx context.Context) (vectorstore.Stats, error) {
	if s.spec == nil {
		return vectorstore.Stats{}, vectorstore.ErrNotCreated
	}
	var resp struct {
		Result struct {
			PointsCount int `json:"points_count"`
		} `json:"result"`
	}
	if err := s.decode(s.do(ctx, http.MethodGet, s.collectionURL(), nil))(&resp); err != nil {
		return vectorstore.Stats{}, err
	}
	return vectorstore.Stats{
		VectorCount: resp.Result.PointsCount,
		Dimension:   s.spec.Dimension,
		Capacity:    s.spec.Capacity,
	}, nil
}

func (s *Index) do(ctx context.Context, method, url string, body any) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("qdrant request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, data, nil
}

func (s *Index) expectOK(status int, data []byte, err error) error {
	if err != nil {
		return err
	}
	if status >= 300 {
		return fmt.Errorf("qdrant error: status %d, body: %s", status, string(data))
	}
	return nil
}

func (s *Index) decode(status int, data []byte, err error) func(out any) error {
	return func(out any) error {
		if err := s.expectOK(status, data, err); err != nil {
			return err
		}
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
		return nil
	}
}
