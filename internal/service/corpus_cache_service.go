package service

import (
	"context"

	"ai-legal-engine/internal/pkg/logger"
	"ai-legal-engine/pkg/events"
	pktNats "ai-legal-engine/pkg/nats"
)

const corpusCacheDurable = "corpus-cache-invalidator"

// CacheInvalidator drops cached fixed-corpus results.
type CacheInvalidator interface {
	Invalidate(ctx context.Context) (int, error)
}

// EventSubscriber registers durable handlers on the event bus.
type EventSubscriber interface {
	Subscribe(subject string, durableName string, handler pktNats.EventHandler) error
}

// CorpusCacheService clears the retrieval cache whenever the fixed corpus
// changes, so stale passages are not served.
type CorpusCacheService struct {
	subscriber EventSubscriber
	cache      CacheInvalidator
	logger     logger.ILogger
}

func NewCorpusCacheService(sub EventSubscriber, cache CacheInvalidator, log logger.ILogger) *CorpusCacheService {
	return &CorpusCacheService{
		subscriber: sub,
		cache:      cache,
		logger:     log,
	}
}

// Start begins listening to the event bus.
func (s *CorpusCacheService) Start() error {
	subject := events.Subject(events.TypeCorpusIndexed)
	if err := s.subscriber.Subscribe(subject, corpusCacheDurable, s.handleEvent); err != nil {
		s.logger.Error("CorpusCacheService", "Failed to start corpus cache subscriber", map[string]interface{}{"error": err.Error()})
		return err
	}
	s.logger.Info("CorpusCacheService", "Listening for corpus changes", map[string]interface{}{"subject": subject})
	return nil
}

func (s *CorpusCacheService) handleEvent(ctx context.Context, event events.Event) error {
	if event.EventType() != events.TypeCorpusIndexed {
		return nil
	}

	removed, err := s.cache.Invalidate(ctx)
	if err != nil {
		return err
	}
	s.logger.Info("CorpusCacheService", "Corpus cache invalidated", map[string]interface{}{
		"removed": removed,
		"source":  event.Payload()["source"],
	})
	return nil
}
