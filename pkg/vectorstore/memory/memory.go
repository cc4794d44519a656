package memory

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"

	"ai-legal-engine/pkg/vectorstore"
)

// Index is an in-process vector index using brute-force cosine similarity.
// Keyword search scores records by how many query terms they contain.
type Index struct {
	mu      sync.RWMutex
	spec    *vectorstore.Spec
	records []vectorstore.Record
	norms   []float64
}

var _ vectorstore.Index = (*Index)(nil)

func NewIndex() *Index { return &Index{} }

func (s *Index) Create(_ context.Context, spec vectorstore.Spec) error {
	if spec.Dimension <= 0 {
		return vectorstore.ErrDimensionMismatch
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.spec == nil {
		s.spec = &spec
	}
	return nil
}

func (s *Index) Upsert(_ context.Context, records []vectorstore.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.spec == nil {
		return vectorstore.ErrNotCreated
	}
	for _, r := range records {
		if len(r.Vector) != s.spec.Dimension {
			return vectorstore.ErrDimensionMismatch
		}
	}

	pos := make(map[string]int, len(s.records))
	for i, r := range s.records {
		pos[r.ID] = i
	}
	for _, r := range records {
		if i, ok := pos[r.ID]; ok {
			s.records[i] = r
			s.norms[i] = norm(r.Vector)
			continue
		}
		pos[r.ID] = len(s.records)
		s.records = append(s.records, r)
		s.norms = append(s.norms, norm(r.Vector))
	}
	return nil
}

func (s *Index) Search(_ context.Context, req vectorstore.SearchRequest) ([]vectorstore.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.spec == nil {
		return nil, vectorstore.ErrNotCreated
	}
	if len(req.Vector) != s.spec.Dimension {
		return nil, vectorstore.ErrDimensionMismatch
	}

	qn := norm(req.Vector)
	scored := make([]vectorstore.Match, 0, len(s.records))
	for i, r := range s.records {
		sim := 0.0
		if qn > 0 && s.norms[i] > 0 {
			sim = dot(r.Vector, req.Vector) / (qn * s.norms[i])
		}
		scored = append(scored, vectorstore.Match{Record: r, Score: sim})
	}
	vectorHits := topN(scored, req.CandidateCount())

	if strings.TrimSpace(req.Text) == "" {
		return truncate(vectorHits, req.Limit()), nil
	}
	keywordHits := topN(s.keywordScores(req.Text), req.Limit())
	return vectorstore.Fuse(req.Limit(), vectorHits, keywordHits), nil
}

func (s *Index) keywordScores(text string) []vectorstore.Match {
	terms := strings.Fields(strings.ToLower(text))
	var out []vectorstore.Match
	for _, r := range s.records {
		content := strings.ToLower(r.Content)
		hits := 0
		for _, term := range terms {
			if strings.Contains(content, term) {
				hits++
			}
		}
		if hits > 0 {
			out = append(out, vectorstore.Match{Record: r, Score: float64(hits)})
		}
	}
	return out
}

func (s *Index) DeleteAll(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = nil
	s.norms = nil
	return nil
}

func (s *Index) Stats(_ context.Context) (vectorstore.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.spec == nil {
		return vectorstore.Stats{}, vectorstore.ErrNotCreated
	}
	return vectorstore.Stats{
		VectorCount: len(s.records),
		Dimension:   s.spec.Dimension,
		Capacity:    s.spec.Capacity,
	}, nil
}

// topN sorts best first and keeps insertion order for equal scores.
func topN(ms []vectorstore.Match, n int) []vectorstore.Match {
	sort.SliceStable(ms, func(i, j int) bool { return ms[i].Score > ms[j].Score })
	return truncate(ms, n)
}

func truncate(ms []vectorstore.Match, n int) []vectorstore.Match {
	if n > 0 && len(ms) > n {
		return ms[:n]
	}
	return ms
}

func dot(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

func norm(v []float32) float64 {
	return math.Sqrt(dot(v, v))
}
