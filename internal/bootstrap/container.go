package bootstrap

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"ai-legal-engine/internal/config"
	"ai-legal-engine/internal/controller"
	"ai-legal-engine/internal/pkg/logger"
	"ai-legal-engine/internal/repository/memory"
	"ai-legal-engine/internal/service"
	"ai-legal-engine/pkg/ai/pipeline"
	"ai-legal-engine/pkg/ai/router"
	"ai-legal-engine/pkg/cache"
	"ai-legal-engine/pkg/events"
	"ai-legal-engine/pkg/loader"
	pktNats "ai-legal-engine/pkg/nats"
	"ai-legal-engine/pkg/rag/ingest"
	"ai-legal-engine/pkg/rag/prompt"
	"ai-legal-engine/pkg/rag/retrieval"
	"ai-legal-engine/pkg/rag/session"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const cacheKeyPrefix = "ai-legal-engine:"

type Container struct {
	// Controllers
	ChatController     controller.IChatController
	DocumentController controller.IDocumentController

	// Background Services (Exposed for main.go to run)
	CorpusCacheService *service.CorpusCacheService

	Logger logger.ILogger

	natsPub *pktNats.Publisher
	natsSub *pktNats.Subscriber
	rdb     *redis.Client
}

func NewContainer(ctx context.Context, db *gorm.DB, cfg *config.Config, sysLogger logger.ILogger) (*Container, error) {
	c := &Container{Logger: sysLogger}

	// 1. AI Providers
	embedder, err := NewEmbedder(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("init embedding provider: %w", err)
	}
	sysLogger.Info("BOOTSTRAP", "Embedding provider ready", map[string]interface{}{
		"provider":  cfg.Ai.EmbeddingProvider,
		"dimension": embedder.Dimension(),
	})

	llmProvider, err := NewLLM(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("init LLM provider: %w", err)
	}
	sysLogger.Info("BOOTSTRAP", "LLM provider ready", map[string]interface{}{
		"provider": cfg.Ai.LLMProvider,
		"model":    cfg.Ai.LLMModel,
	})

	// 2. Vector Indexes
	corpusIndex, err := NewVectorIndex(ctx, cfg, db, cfg.Index.Corpus, 0)
	if err != nil {
		return nil, err
	}
	documentIndex, err := NewVectorIndex(ctx, cfg, db, cfg.Index.Document, cfg.Index.Capacity)
	if err != nil {
		return nil, err
	}

	// 3. Infrastructure
	// Redis (optional corpus cache)
	var corpusCache *cache.RedisCache
	if cfg.App.RedisURL != "" {
		c.rdb = cache.NewRedisClient(cfg.App.RedisURL)
		if err := c.rdb.Ping(ctx).Err(); err != nil {
			sysLogger.Warn("BOOTSTRAP", "Failed to connect to Redis, corpus cache disabled", map[string]interface{}{"error": err.Error()})
			_ = c.rdb.Close()
			c.rdb = nil
		} else {
			corpusCache = cache.NewRedisCache(c.rdb, cacheKeyPrefix, cfg.App.CacheTTL)
		}
	}

	// NATS (optional event bus)
	if cfg.App.NatsURL != "" {
		if c.natsPub, err = pktNats.NewPublisher(cfg.App.NatsURL, sysLogger); err != nil {
			sysLogger.Warn("BOOTSTRAP", "Failed to connect to NATS publisher", map[string]interface{}{"error": err.Error()})
		}
		if c.natsSub, err = pktNats.NewSubscriber(cfg.App.NatsURL, sysLogger); err != nil {
			sysLogger.Warn("BOOTSTRAP", "Failed to connect to NATS subscriber", map[string]interface{}{"error": err.Error()})
		}
	}

	// 4. Domain Components
	catalog, err := prompt.Default()
	if err != nil {
		return nil, err
	}
	sessions := session.NewManager(memory.NewSessionRepository(cfg.Session.TTL, cfg.Session.CleanupInterval))
	loaders := loader.NewRegistry()

	var retrievalCache retrieval.Cache
	if corpusCache != nil {
		retrievalCache = corpusCache
	}
	corpusRetriever := retrieval.NewCorpusRetriever(corpusIndex, embedder, retrievalCache, sysLogger)
	documentRetriever := retrieval.NewDocumentRetriever(documentIndex, embedder)

	intentRouter := router.NewRouter(llmProvider, catalog, sysLogger)
	synthesizer := pipeline.NewSynthesizer(llmProvider, catalog, documentRetriever, sysLogger)
	documentPipeline := ingest.NewPipeline(documentIndex, embedder, loaders, sysLogger, ingest.Options{Capacity: cfg.Index.Capacity})

	if len(cfg.Index.CorpusFiles) > 0 {
		corpusPipeline := ingest.NewPipeline(corpusIndex, embedder, loaders, sysLogger, ingest.Options{Append: true, Capacity: MaxCorpusVectors})
		if err := IndexFiles(ctx, corpusPipeline, cfg.Index.CorpusFiles, c.natsPub, sysLogger); err != nil {
			return nil, err
		}
	}

	// 5. Services
	chatService := service.NewChatService(sessions, corpusRetriever, intentRouter, synthesizer, c.natsPub, sysLogger)
	documentService := service.NewDocumentService(sessions, documentPipeline, c.natsPub, sysLogger)

	if c.natsSub != nil && corpusCache != nil {
		c.CorpusCacheService = service.NewCorpusCacheService(c.natsSub, corpusCache, sysLogger)
	}

	// 6. Controllers
	c.ChatController = controller.NewChatController(chatService)
	c.DocumentController = controller.NewDocumentController(documentService)

	return c, nil
}

// MaxCorpusVectors bounds the fixed corpus, which has no capacity of its own.
const MaxCorpusVectors = 1 << 30

// IndexFiles appends each file to the index behind p and announces it on the
// event bus.
func IndexFiles(ctx context.Context, p *ingest.Pipeline, paths []string, publisher service.EventPublisher, log logger.ILogger) error {
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open corpus file: %w", err)
		}
		info, err := f.Stat()
		if err != nil {
			f.Close()
			return fmt.Errorf("stat corpus file: %w", err)
		}

		res, err := p.Ingest(ctx, ingest.Document{Name: filepath.Base(path), Reader: f, Size: info.Size()})
		f.Close()
		if err != nil {
			return fmt.Errorf("index %s: %w", path, err)
		}
		log.Info("BOOTSTRAP", "Corpus file indexed", map[string]interface{}{
			"file":         path,
			"total_pages":  res.TotalPages,
			"total_chunks": res.TotalChunks,
		})
		if publisher != nil {
			if err := publisher.Publish(ctx, events.CorpusIndexed(filepath.Base(path), res.TotalChunks)); err != nil {
				log.Warn("BOOTSTRAP", "Failed to publish corpus event", map[string]interface{}{"error": err.Error()})
			}
		}
	}
	return nil
}

// Close releases broker and cache connections.
func (c *Container) Close() {
	c.natsSub.Close()
	c.natsPub.Close()
	if c.rdb != nil {
		_ = c.rdb.Close()
	}
}
