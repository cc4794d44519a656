package retrieval

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"ai-legal-engine/internal/pkg/logger"
	"ai-legal-engine/pkg/embedding"
	"ai-legal-engine/pkg/rag"
	"ai-legal-engine/pkg/vectorstore"
)

const (
	// CorpusNeighbors is the nearest-neighbour candidate count for the fixed corpus.
	CorpusNeighbors = 5
	// CorpusTop caps fused fixed-corpus results.
	CorpusTop = 10
	// DocumentTop is the passage count for the active document.
	DocumentTop = 10
)

// Passage is a retrieved chunk of text.
type Passage struct {
	ID      string  `json:"id"`
	Content string  `json:"content"`
	Page    *int    `json:"page,omitempty"`
	Source  string  `json:"source,omitempty"`
	Score   float64 `json:"score"`
}

// Result is an ordered list of passages, best first.
type Result struct {
	Passages []Passage
}

// Empty reports whether nothing was retrieved.
func (r Result) Empty() bool {
	return len(r.Passages) == 0
}

// Context joins passage contents with newlines in ranking order.
func (r Result) Context() string {
	parts := make([]string, len(r.Passages))
	for i, p := range r.Passages {
		parts[i] = p.Content
	}
	return strings.Join(parts, "\n")
}

// Cache stores fixed-corpus results between identical queries.
type Cache interface {
	Get(ctx context.Context, key string, out any) (bool, error)
	Set(ctx context.Context, key string, value any) error
}

// Retriever returns passages relevant to a query.
type Retriever interface {
	Retrieve(ctx context.Context, query string) (Result, error)
}

type searcher struct {
	index    vectorstore.Index
	embedder embedding.EmbeddingProvider
}

func (s searcher) search(ctx context.Context, query string, req vectorstore.SearchRequest) (Result, error) {
	vec, err := s.embedder.Embed(ctx, query, embedding.TaskRetrievalQuery)
	if err != nil {
		return Result{}, fmt.Errorf("%w: embed query: %v", rag.ErrRetrieval, err)
	}
	req.Vector = vec

	matches, err := s.index.Search(ctx, req)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", rag.ErrRetrieval, err)
	}

	passages := make([]Passage, len(matches))
	for i, m := range matches {
		passages[i] = Passage{
			ID:      m.ID,
			Content: m.Content,
			Page:    m.Page,
			Source:  m.Source,
			Score:   m.Score,
		}
	}
	return Result{Passages: passages}, nil
}

// CorpusRetriever runs hybrid vector and keyword search over the fixed corpus.
type CorpusRetriever struct {
	searcher
	cache  Cache
	logger logger.ILogger
}

func NewCorpusRetriever(index vectorstore.Index, embedder embedding.EmbeddingProvider, cache Cache, log logger.ILogger) *CorpusRetriever {
	return &CorpusRetriever{
		searcher: searcher{index: index, embedder: embedder},
		cache:    cache,
		logger:   log,
	}
}

// CacheKey is the cache key for a fixed-corpus query.
func CacheKey(query string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.Join(strings.Fields(query), " "))))
	return "corpus:" + hex.EncodeToString(sum[:])
}

func (r *CorpusRetriever) Retrieve(ctx context.Context, query string) (Result, error) {
	key := CacheKey(query)
	if r.cache != nil {
		var cached []Passage
		hit, err := r.cache.Get(ctx, key, &cached)
		if err != nil {
			r.logger.Warn("RETRIEVAL", "Corpus cache read failed", map[string]interface{}{"error": err.Error()})
		} else if hit {
			return Result{Passages: cached}, nil
		}
	}

	res, err := r.search(ctx, query, vectorstore.SearchRequest{
		Text:       query,
		K:          CorpusNeighbors,
		Top:        CorpusTop,
		Exhaustive: true,
	})
	if err != nil {
		return Result{}, err
	}

	// empty results are not cached so newly indexed material shows up at once
	if r.cache != nil && !res.Empty() {
		if err := r.cache.Set(ctx, key, res.Passages); err != nil {
			r.logger.Warn("RETRIEVAL", "Corpus cache write failed", map[string]interface{}{"error": err.Error()})
		}
	}
	return res, nil
}

// DocumentRetriever returns the nearest passages of the active document.
type DocumentRetriever struct {
	searcher
}

func NewDocumentRetriever(index vectorstore.Index, embedder embedding.EmbeddingProvider) *DocumentRetriever {
	return &DocumentRetriever{searcher: searcher{index: index, embedder: embedder}}
}

func (r *DocumentRetriever) Retrieve(ctx context.Context, query string) (Result, error) {
	return r.search(ctx, query, vectorstore.SearchRequest{K: DocumentTop, Top: DocumentTop})
}
