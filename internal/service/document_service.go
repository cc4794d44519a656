package service

import (
	"context"

	"ai-legal-engine/internal/dto"
	"ai-legal-engine/internal/pkg/logger"
	"ai-legal-engine/pkg/events"
	"ai-legal-engine/pkg/rag/ingest"
	"ai-legal-engine/pkg/rag/session"
	"ai-legal-engine/pkg/store"
	"ai-legal-engine/pkg/vectorstore"
)

const uploadSuccessMessage = "PDF processed successfully"

// Ingestor stores an uploaded document in the active-document index.
type Ingestor interface {
	Ingest(ctx context.Context, doc ingest.Document) (ingest.Result, error)
	Stats(ctx context.Context) (vectorstore.Stats, error)
}

type IDocumentService interface {
	Upload(ctx context.Context, request *dto.UploadDocumentRequest) (*dto.UploadDocumentResponse, error)
	GetIndexStats(ctx context.Context) (*dto.IndexStatsResponse, error)
}

type documentService struct {
	sessions  *session.Manager
	ingestor  Ingestor
	publisher EventPublisher
	logger    logger.ILogger
}

func NewDocumentService(sessions *session.Manager, ingestor Ingestor, publisher EventPublisher, log logger.ILogger) IDocumentService {
	return &documentService{
		sessions:  sessions,
		ingestor:  ingestor,
		publisher: publisher,
		logger:    log,
	}
}

// Upload replaces the active document and moves the uploading session into
// document mode.
func (s *documentService) Upload(ctx context.Context, request *dto.UploadDocumentRequest) (*dto.UploadDocumentResponse, error) {
	result, err := s.ingestor.Ingest(ctx, ingest.Document{
		Name:   request.Filename,
		Reader: request.Reader,
		Size:   request.Size,
	})
	if err != nil {
		s.logger.Error("DOCUMENT", "Upload failed", map[string]interface{}{
			"filename": request.Filename,
			"error":    err.Error(),
		})
		return nil, err
	}

	sess := s.sessions.LoadOrCreate(request.SessionId)
	sess.Lock()
	sess.Log.AppendUser("Uploaded PDF: " + request.Filename)
	sess.Mode = store.ModeDocument
	sess.Unlock()

	if err := s.publisher.Publish(ctx, events.DocumentIngested(sess.ID, request.Filename, result.TotalPages, result.TotalChunks)); err != nil {
		s.logger.Warn("DOCUMENT", "Failed to publish ingestion event", map[string]interface{}{"error": err.Error()})
	}

	return &dto.UploadDocumentResponse{
		SessionId:   sess.ID,
		TotalPages:  result.TotalPages,
		TotalChunks: result.TotalChunks,
		Message:     uploadSuccessMessage,
	}, nil
}

func (s *documentService) GetIndexStats(ctx context.Context) (*dto.IndexStatsResponse, error) {
	stats, err := s.ingestor.Stats(ctx)
	if err != nil {
		return nil, err
	}
	return &dto.IndexStatsResponse{
		VectorCount: stats.VectorCount,
		Capacity:    stats.Capacity,
	}, nil
}
