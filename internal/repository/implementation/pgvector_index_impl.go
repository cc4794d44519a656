package implementation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"ai-legal-engine/internal/model"
	"ai-legal-engine/pkg/vectorstore"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	upsertBatchSize  = 100
	// Must match the expression of the full text index created by Migrate.
	textSearchConfig = "english"
)

// PgvectorIndex stores one named index in the shared vector_records table.
type PgvectorIndex struct {
	db        *gorm.DB
	namespace string
}

var _ vectorstore.Index = (*PgvectorIndex)(nil)

func NewPgvectorIndex(db *gorm.DB, namespace string) *PgvectorIndex {
	return &PgvectorIndex{db: db, namespace: namespace}
}

func (r *PgvectorIndex) Create(ctx context.Context, spec vectorstore.Spec) error {
	if spec.Dimension <= 0 {
		return vectorstore.ErrDimensionMismatch
	}
	metric := spec.Metric
	if metric == "" {
		metric = vectorstore.MetricCosine
	}

	row := model.VectorIndex{
		Name:      r.namespace,
		Dimension: spec.Dimension,
		Metric:    string(metric),
		Capacity:  spec.Capacity,
	}
	// An existing definition is kept so stored vectors stay searchable
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&row).Error
}

func (r *PgvectorIndex) spec(ctx context.Context) (*model.VectorIndex, error) {
	var row model.VectorIndex
	err := r.db.WithContext(ctx).Where("name = ?", r.namespace).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, vectorstore.ErrNotCreated
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *PgvectorIndex) Upsert(ctx context.Context, records []vectorstore.Record) error {
	spec, err := r.spec(ctx)
	if err != nil {
		return err
	}

	models := make([]*model.VectorRecord, len(records))
	for i, rec := range records {
		if len(rec.Vector) != spec.Dimension {
			return fmt.Errorf("%w: record %s has %d, index %s expects %d",
				vectorstore.ErrDimensionMismatch, rec.ID, len(rec.Vector), r.namespace, spec.Dimension)
		}
		meta := datatypes.JSONMap{"source": rec.Source}
		if rec.Page != nil {
			meta["page"] = *rec.Page
		}
		models[i] = &model.VectorRecord{
			Id:             rec.ID,
			Namespace:      r.namespace,
			Content:        rec.Content,
			Page:           rec.Page,
			Source:         rec.Source,
			EmbeddingValue: pgvector.NewVector(rec.Vector),
			Metadata:       meta,
		}
	}
	if len(models) == 0 {
		return nil
	}

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		CreateInBatches(models, upsertBatchSize).Error
}

type scoredRecord struct {
	model.VectorRecord
	Score float64
}

// Search ranks by cosine similarity. The table has no ANN index, so every
// query is exact whatever req.Exhaustive says.
func (r *PgvectorIndex) Search(ctx context.Context, req vectorstore.SearchRequest) ([]vectorstore.Match, error) {
	spec, err := r.spec(ctx)
	if err != nil {
		return nil, err
	}
	if len(req.Vector) != spec.Dimension {
		return nil, vectorstore.ErrDimensionMismatch
	}

	queryVector := pgvector.NewVector(req.Vector)
	var vectorHits []scoredRecord
	err = r.db.WithContext(ctx).
		Model(&model.VectorRecord{}).
		Select("vector_records.*, 1 - (embedding_value <=> ?) as score", queryVector).
		Where("namespace = ?", r.namespace).
		Order(gorm.Expr("embedding_value <=> ?", queryVector)).
		Limit(req.CandidateCount()).
		Scan(&vectorHits).Error
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	if strings.TrimSpace(req.Text) == "" {
		return truncate(toMatches(vectorHits), req.Limit()), nil
	}

	var keywordHits []scoredRecord
	err = r.db.WithContext(ctx).
		Model(&model.VectorRecord{}).
		Select("vector_records.*, ts_rank(to_tsvector('"+textSearchConfig+"', content), plainto_tsquery('"+textSearchConfig+"', ?)) as score", req.Text).
		Where("namespace = ?", r.namespace).
		Where("to_tsvector('"+textSearchConfig+"', content) @@ plainto_tsquery('"+textSearchConfig+"', ?)", req.Text).
		Order("score DESC").
		Limit(req.Limit()).
		Scan(&keywordHits).Error
	if err != nil {
		return nil, fmt.Errorf("keyword search: %w", err)
	}

	return vectorstore.Fuse(req.Limit(), toMatches(vectorHits), toMatches(keywordHits)), nil
}

func (r *PgvectorIndex) DeleteAll(ctx context.Context) error {
	return r.db.WithContext(ctx).
		Where("namespace = ?", r.namespace).
		Delete(&model.VectorRecord{}).Error
}

func (r *PgvectorIndex) Stats(ctx context.Context) (vectorstore.Stats, error) {
	spec, err := r.spec(ctx)
	if err != nil {
		return vectorstore.Stats{}, err
	}

	var count int64
	err = r.db.WithContext(ctx).
		Model(&model.VectorRecord{}).
		Where("namespace = ?", r.namespace).
		Count(&count).Error
	if err != nil {
		return vectorstore.Stats{}, err
	}

	return vectorstore.Stats{
		VectorCount: int(count),
		Dimension:   spec.Dimension,
		Capacity:    spec.Capacity,
	}, nil
}

func toMatches(rows []scoredRecord) []vectorstore.Match {
	out := make([]vectorstore.Match, len(rows))
	for i, row := range rows {
		out[i] = vectorstore.Match{
			Record: vectorstore.Record{
				ID:      row.Id,
				Vector:  row.EmbeddingValue.Slice(),
				Content: row.Content,
				Page:    row.Page,
				Source:  row.Source,
			},
			Score: row.Score,
		}
	}
	return out
}

func truncate(ms []vectorstore.Match, n int) []vectorstore.Match {
	if n > 0 && len(ms) > n {
		return ms[:n]
	}
	return ms
}
