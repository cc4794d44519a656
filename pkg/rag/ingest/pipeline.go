package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"ai-legal-engine/internal/pkg/logger"
	"ai-legal-engine/pkg/embedding"
	"ai-legal-engine/pkg/loader"
	"ai-legal-engine/pkg/rag"
	"ai-legal-engine/pkg/rag/chunker"
	"ai-legal-engine/pkg/vectorstore"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

// DefaultCapacity is the maximum number of vectors the active-document index
// may hold.
const DefaultCapacity = 10000

const defaultEmbedWorkers = 4

// Document is an uploaded file.
type Document struct {
	Name   string
	Reader io.ReaderAt
	Size   int64
}

// Result reports what an ingestion stored.
type Result struct {
	TotalPages  int `json:"total_pages"`
	TotalChunks int `json:"total_chunks"`
}

// Options configures a Pipeline.
type Options struct {
	Capacity int
	// Append keeps existing vectors instead of replacing them. Used when
	// building the fixed corpus from several files.
	Append       bool
	EmbedWorkers int
	Splitter     chunker.Splitter
}

// Pipeline loads, splits, embeds and stores documents.
type Pipeline struct {
	index    vectorstore.Index
	embedder embedding.EmbeddingProvider
	loaders  *loader.Registry
	logger   logger.ILogger
	opts     Options

	mu sync.Mutex
}

func NewPipeline(index vectorstore.Index, embedder embedding.EmbeddingProvider, loaders *loader.Registry, log logger.ILogger, opts Options) *Pipeline {
	if opts.Capacity <= 0 {
		opts.Capacity = DefaultCapacity
	}
	if opts.EmbedWorkers <= 0 {
		opts.EmbedWorkers = defaultEmbedWorkers
	}
	if opts.Splitter.ChunkSize <= 0 {
		opts.Splitter = *chunker.NewSplitter(chunker.DefaultChunkSize, chunker.DefaultOverlap)
	}
	return &Pipeline{
		index:    index,
		embedder: embedder,
		loaders:  loaders,
		logger:   log,
		opts:     opts,
	}
}

// Ingest stores doc in the index. Unless the pipeline appends, the previous
// contents are replaced. A document that would push the index over capacity
// is rejected before anything is written.
func (p *Pipeline) Ingest(ctx context.Context, doc Document) (Result, error) {
	ctx, span := otel.Tracer("ai-legal-engine/ingest").Start(ctx, "Ingest")
	defer span.End()
	span.SetAttributes(attribute.String("document.name", doc.Name))

	l, err := p.loaders.For(doc.Name)
	if err != nil {
		return Result{}, err
	}

	pages, err := l.Load(ctx, doc.Reader, doc.Size)
	if err != nil {
		return Result{}, fmt.Errorf("%w: load %s: %v", rag.ErrIngestion, doc.Name, err)
	}

	chunks := p.opts.Splitter.SplitPages(doc.Name, pages)
	result := Result{TotalPages: len(pages), TotalChunks: len(chunks)}
	span.SetAttributes(attribute.Int("document.pages", result.TotalPages), attribute.Int("document.chunks", result.TotalChunks))

	// Serialize from the capacity check onward so concurrent uploads cannot
	// interleave resets and writes.
	p.mu.Lock()
	defer p.mu.Unlock()

	stats, err := p.index.Stats(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("%w: read index stats: %v", rag.ErrIngestion, err)
	}
	if stats.VectorCount+len(chunks) > p.opts.Capacity {
		p.logger.Warn("INGEST", "Document rejected, index capacity exceeded", map[string]interface{}{
			"document": doc.Name,
			"current":  stats.VectorCount,
			"incoming": len(chunks),
			"capacity": p.opts.Capacity,
		})
		return Result{}, fmt.Errorf("%w: %d stored + %d new > %d", rag.ErrCapacityExceeded, stats.VectorCount, len(chunks), p.opts.Capacity)
	}

	records, err := p.embed(ctx, chunks)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", rag.ErrIngestion, err)
	}

	if !p.opts.Append {
		if err := p.index.DeleteAll(ctx); err != nil {
			return Result{}, fmt.Errorf("%w: reset index: %v", rag.ErrIngestion, err)
		}
	}

	if len(records) > 0 {
		if err := p.index.Upsert(ctx, records); err != nil {
			return Result{}, fmt.Errorf("%w: upsert: %v", rag.ErrIngestion, err)
		}
	}

	p.logger.Info("INGEST", "Document ingested", map[string]interface{}{
		"document":     doc.Name,
		"total_pages":  result.TotalPages,
		"total_chunks": result.TotalChunks,
		"append":       p.opts.Append,
	})
	return result, nil
}

func (p *Pipeline) embed(ctx context.Context, chunks []chunker.Chunk) ([]vectorstore.Record, error) {
	records := make([]vectorstore.Record, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.EmbedWorkers)
	for i, c := range chunks {
		g.Go(func() error {
			vec, err := p.embedder.Embed(gctx, c.Text, embedding.TaskRetrievalDocument)
			if err != nil {
				return fmt.Errorf("embed chunk %d: %w", c.Index, err)
			}
			page := c.Page
			records[i] = vectorstore.Record{
				ID:      uuid.NewString(),
				Vector:  vec,
				Content: c.Text,
				Page:    &page,
				Source:  c.Source,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if errors.Is(err, context.Canceled) && ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}
	return records, nil
}

// Stats returns the current vector count and configured capacity.
func (p *Pipeline) Stats(ctx context.Context) (vectorstore.Stats, error) {
	stats, err := p.index.Stats(ctx)
	if err != nil {
		return vectorstore.Stats{}, err
	}
	stats.Capacity = p.opts.Capacity
	return stats, nil
}
