package retrieval

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"ai-legal-engine/internal/pkg/logger"
	"ai-legal-engine/pkg/embedding"
	"ai-legal-engine/pkg/rag"
	"ai-legal-engine/pkg/vectorstore"
	"ai-legal-engine/pkg/vectorstore/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubEmbedder struct {
	vec   []float32
	err   error
	calls int
}

func (s *stubEmbedder) Embed(_ context.Context, _ string, _ embedding.TaskType) ([]float32, error) {
	s.calls++
	return s.vec, s.err
}

func (s *stubEmbedder) Dimension() int { return len(s.vec) }

type mapCache struct {
	data map[string][]byte
	sets int
}

func (c *mapCache) Get(_ context.Context, key string, out any) (bool, error) {
	raw, ok := c.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, out)
}

func (c *mapCache) Set(_ context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.data[key] = raw
	c.sets++
	return nil
}

type brokenCache struct{}

func (brokenCache) Get(context.Context, string, any) (bool, error) {
	return false, errors.New("redis: connection refused")
}

func (brokenCache) Set(context.Context, string, any) error {
	return errors.New("redis: connection refused")
}

type warnRecorder struct {
	logger.ILogger
	warnings []string
}

func (w *warnRecorder) Warn(_, message string, _ map[string]interface{}) {
	w.warnings = append(w.warnings, message)
}

type failingIndex struct{ vectorstore.Index }

func (failingIndex) Search(context.Context, vectorstore.SearchRequest) ([]vectorstore.Match, error) {
	return nil, errors.New("connection refused")
}

func seededIndex(t *testing.T, n int) *memory.Index {
	t.Helper()
	ctx := context.Background()
	idx := memory.NewIndex()
	require.NoError(t, idx.Create(ctx, vectorstore.Spec{Dimension: 2, Capacity: 100}))
	records := make([]vectorstore.Record, n)
	for i := range records {
		page := i + 1
		records[i] = vectorstore.Record{
			ID:      string(rune('a' + i)),
			Vector:  []float32{1, float32(i)},
			Content: "passage " + string(rune('a'+i)),
			Page:    &page,
		}
	}
	require.NoError(t, idx.Upsert(ctx, records))
	return idx
}

func TestCorpusRetrieverCapsAtTop(t *testing.T) {
	r := NewCorpusRetriever(seededIndex(t, 20), &stubEmbedder{vec: []float32{1, 0}}, nil, logger.NewNopLogger())

	res, err := r.Retrieve(context.Background(), "passage")

	require.NoError(t, err)
	assert.False(t, res.Empty())
	assert.LessOrEqual(t, len(res.Passages), CorpusTop)
}

func TestCorpusRetrieverEmptyIndex(t *testing.T) {
	r := NewCorpusRetriever(seededIndex(t, 0), &stubEmbedder{vec: []float32{1, 0}}, nil, logger.NewNopLogger())

	res, err := r.Retrieve(context.Background(), "banana recipe")

	require.NoError(t, err)
	assert.True(t, res.Empty())
	assert.Equal(t, "", res.Context())
}

func TestCorpusRetrieverUsesCache(t *testing.T) {
	emb := &stubEmbedder{vec: []float32{1, 0}}
	cache := &mapCache{data: map[string][]byte{}}
	r := NewCorpusRetriever(seededIndex(t, 3), emb, cache, logger.NewNopLogger())

	first, err := r.Retrieve(context.Background(), "Section  302")
	require.NoError(t, err)
	second, err := r.Retrieve(context.Background(), "section 302")
	require.NoError(t, err)

	assert.Equal(t, 1, emb.calls)
	assert.Equal(t, 1, cache.sets)
	assert.Equal(t, first.Context(), second.Context())
}

func TestCorpusRetrieverDoesNotCacheEmpty(t *testing.T) {
	cache := &mapCache{data: map[string][]byte{}}
	r := NewCorpusRetriever(seededIndex(t, 0), &stubEmbedder{vec: []float32{1, 0}}, cache, logger.NewNopLogger())

	_, err := r.Retrieve(context.Background(), "nothing")

	require.NoError(t, err)
	assert.Equal(t, 0, cache.sets)
}

func TestRetrieverErrorsWrapRetrieval(t *testing.T) {
	ctx := context.Background()

	_, err := NewCorpusRetriever(seededIndex(t, 1), &stubEmbedder{err: errors.New("quota")}, nil, logger.NewNopLogger()).Retrieve(ctx, "q")
	assert.ErrorIs(t, err, rag.ErrRetrieval)

	_, err = NewDocumentRetriever(failingIndex{}, &stubEmbedder{vec: []float32{1, 0}}).Retrieve(ctx, "q")
	assert.ErrorIs(t, err, rag.ErrRetrieval)
}

func TestDocumentRetrieverReturnsTen(t *testing.T) {
	r := NewDocumentRetriever(seededIndex(t, 15), &stubEmbedder{vec: []float32{1, 0}})

	res, err := r.Retrieve(context.Background(), "anything")

	require.NoError(t, err)
	require.Len(t, res.Passages, DocumentTop)
	assert.NotNil(t, res.Passages[0].Page)
}

func TestResultContextKeepsOrder(t *testing.T) {
	res := Result{Passages: []Passage{{Content: "first"}, {Content: "second"}}}
	assert.Equal(t, "first\nsecond", res.Context())
}

func TestCacheKeyNormalizesQuery(t *testing.T) {
	assert.Equal(t, CacheKey("Section 302 "), CacheKey("section   302"))
	assert.NotEqual(t, CacheKey("section 302"), CacheKey("section 303"))
}

func TestCorpusRetrieverLogsCacheFailures(t *testing.T) {
	log := &warnRecorder{ILogger: logger.NewNopLogger()}
	r := NewCorpusRetriever(seededIndex(t, 3), &stubEmbedder{vec: []float32{1, 0}}, brokenCache{}, log)

	res, err := r.Retrieve(context.Background(), "passage")

	require.NoError(t, err)
	assert.False(t, res.Empty())
	assert.Equal(t, []string{"Corpus cache read failed", "Corpus cache write failed"}, log.warnings)
}
