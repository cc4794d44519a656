package vectorstore

import (
	"context"
	"errors"
)

// Metric is the similarity function an index ranks by.
type Metric string

const (
	MetricCosine Metric = "cosine"
)

// Spec describes an index at creation time.
type Spec struct {
	Name      string
	Dimension int
	Metric    Metric
	Capacity  int // maximum number of stored vectors
}

// Record is a single stored vector with its payload.
type Record struct {
	ID      string
	Vector  []float32
	Content string
	Page    *int
	Source  string
}

// SearchRequest asks for the nearest records to Vector. When Text is set the
// index also runs a keyword search and fuses both rankings.
type SearchRequest struct {
	Vector []float32
	Text   string
	// K is the number of nearest-neighbour candidates. Zero means Top.
	K int
	// Top caps the number of returned matches.
	Top int
	// Exhaustive disables approximate search where the backend supports it.
	Exhaustive bool
}

// Match is a record returned by Search, best first.
type Match struct {
	Record
	Score float64
}

type Stats struct {
	VectorCount int
	Dimension   int
	Capacity    int
}

// Index is the contract every vector backend satisfies.
type Index interface {
	// Create provisions the index if it does not exist. Existing data is kept.
	Create(ctx context.Context, spec Spec) error
	Upsert(ctx context.Context, records []Record) error
	Search(ctx context.Context, req SearchRequest) ([]Match, error)
	// DeleteAll removes every record. Deleting an empty index is not an error.
	DeleteAll(ctx context.Context) error
	Stats(ctx context.Context) (Stats, error)
}

var (
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
	ErrNotCreated        = errors.New("index has not been created")
)

// CandidateCount returns how many nearest neighbours a request asks for.
func (r SearchRequest) CandidateCount() int {
	if r.K > 0 {
		return r.K
	}
	if r.Top > 0 {
		return r.Top
	}
	return 5
}

// Limit returns the maximum number of matches to return.
func (r SearchRequest) Limit() int {
	if r.Top > 0 {
		return r.Top
	}
	return r.CandidateCount()
}
