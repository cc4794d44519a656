package memory

import (
	"context"
	"testing"

	"ai-legal-engine/pkg/vectorstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newIndex(t *testing.T) *Index {
	t.Helper()
	idx := NewIndex()
	require.NoError(t, idx.Create(context.Background(), vectorstore.Spec{
		Name: "test", Dimension: 2, Metric: vectorstore.MetricCosine, Capacity: 100,
	}))
	return idx
}

func TestSearchRanksByCosine(t *testing.T) {
	ctx := context.Background()
	idx := newIndex(t)
	require.NoError(t, idx.Upsert(ctx, []vectorstore.Record{
		{ID: "x", Vector: []float32{1, 0}, Content: "theft"},
		{ID: "y", Vector: []float32{0, 1}, Content: "murder"},
		{ID: "xy", Vector: []float32{1, 1}, Content: "robbery"},
	}))

	got, err := idx.Search(ctx, vectorstore.SearchRequest{Vector: []float32{2, 0}, Top: 2})

	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "x", got[0].ID)
	assert.Equal(t, "xy", got[1].ID)
	assert.InDelta(t, 1.0, got[0].Score, 1e-9)
}

func TestHybridSearchPullsKeywordMatches(t *testing.T) {
	ctx := context.Background()
	idx := newIndex(t)
	require.NoError(t, idx.Upsert(ctx, []vectorstore.Record{
		{ID: "near", Vector: []float32{1, 0}, Content: "general text"},
		{ID: "far", Vector: []float32{0, 1}, Content: "Section 379 theft"},
	}))

	got, err := idx.Search(ctx, vectorstore.SearchRequest{
		Vector: []float32{1, 0}, Text: "theft", K: 1, Top: 10,
	})

	require.NoError(t, err)
	ids := []string{}
	for _, m := range got {
		ids = append(ids, m.ID)
	}
	assert.ElementsMatch(t, []string{"near", "far"}, ids)
}

func TestUpsertReplacesByID(t *testing.T) {
	ctx := context.Background()
	idx := newIndex(t)
	require.NoError(t, idx.Upsert(ctx, []vectorstore.Record{{ID: "a", Vector: []float32{1, 0}, Content: "old"}}))
	require.NoError(t, idx.Upsert(ctx, []vectorstore.Record{{ID: "a", Vector: []float32{0, 1}, Content: "new"}}))

	stats, err := idx.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.VectorCount)

	got, err := idx.Search(ctx, vectorstore.SearchRequest{Vector: []float32{0, 1}, Top: 1})
	require.NoError(t, err)
	assert.Equal(t, "new", got[0].Content)
}

func TestDimensionMismatch(t *testing.T) {
	ctx := context.Background()
	idx := newIndex(t)

	err := idx.Upsert(ctx, []vectorstore.Record{{ID: "a", Vector: []float32{1, 0, 0}}})
	assert.ErrorIs(t, err, vectorstore.ErrDimensionMismatch)

	_, err = idx.Search(ctx, vectorstore.SearchRequest{Vector: []float32{1}})
	assert.ErrorIs(t, err, vectorstore.ErrDimensionMismatch)
}

func TestDeleteAllIsIdempotent(t *testing.T) {
	ctx := context.Background()
	idx := newIndex(t)
	require.NoError(t, idx.Upsert(ctx, []vectorstore.Record{{ID: "a", Vector: []float32{1, 0}}}))

	require.NoError(t, idx.DeleteAll(ctx))
	require.NoError(t, idx.DeleteAll(ctx))

	stats, err := idx.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.VectorCount)
	assert.Equal(t, 100, stats.Capacity)
}

func TestCreateKeepsExistingData(t *testing.T) {
	ctx := context.Background()
	idx := newIndex(t)
	require.NoError(t, idx.Upsert(ctx, []vectorstore.Record{{ID: "a", Vector: []float32{1, 0}}}))

	require.NoError(t, idx.Create(ctx, vectorstore.Spec{Dimension: 2}))

	stats, err := idx.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.VectorCount)
}

func TestUseBeforeCreate(t *testing.T) {
	idx := NewIndex()
	_, err := idx.Stats(context.Background())
	assert.ErrorIs(t, err, vectorstore.ErrNotCreated)
}
