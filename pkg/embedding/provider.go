package embedding

import (
	"context"
	"math"
)

// TaskType hints the provider about how the vector will be used. Providers
// that do not distinguish tasks ignore it.
type TaskType string

const (
	TaskRetrievalDocument TaskType = "RETRIEVAL_DOCUMENT"
	TaskRetrievalQuery    TaskType = "RETRIEVAL_QUERY"
)

// EmbeddingProvider turns text into a fixed-length vector.
type EmbeddingProvider interface {
	Embed(ctx context.Context, text string, task TaskType) ([]float32, error)
	// Dimension is the length of every vector Embed returns.
	Dimension() int
}

// normalizeVector scales a vector to unit length so cosine distance in every
// backend agrees with a plain dot product.
func normalizeVector(vec []float32) []float32 {
	var magnitude float64
	for _, v := range vec {
		magnitude += float64(v) * float64(v)
	}
	magnitude = math.Sqrt(magnitude)

	if magnitude == 0 {
		return vec
	}

	normalized := make([]float32, len(vec))
	for i, v := range vec {
		normalized[i] = float32(float64(v) / magnitude)
	}
	return normalized
}
