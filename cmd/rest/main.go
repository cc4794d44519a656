package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"ai-legal-engine/internal/bootstrap"
	"ai-legal-engine/internal/config"
	"ai-legal-engine/internal/pkg/logger"
	"ai-legal-engine/internal/server"
	"ai-legal-engine/internal/tracer"
	"ai-legal-engine/pkg/database"

	"gorm.io/gorm"
)

func main() {
	// 1. Load Configuration
	cfg := config.Load()

	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	defer sysLogger.Sync()

	// 2. Initialize Tracer
	shutdownTracer := tracer.InitTracer(sysLogger)
	defer shutdownTracer(context.Background())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Initialize Database (pgvector backend only)
	var gormDB *gorm.DB
	if cfg.Index.Backend == config.BackendPgvector {
		db, err := database.NewGormDBFromDSN(cfg.Database.Connection)
		if err != nil {
			sysLogger.Error("MAIN", "Unable to connect to database", map[string]interface{}{"error": err.Error()})
			os.Exit(1)
		}
		if err := database.Migrate(db); err != nil {
			sysLogger.Error("MAIN", "Migration failed", map[string]interface{}{"error": err.Error()})
			os.Exit(1)
		}
		gormDB = db
	}

	// 4. Bootstrap Dependencies (Container)
	container, err := bootstrap.NewContainer(ctx, gormDB, cfg, sysLogger)
	if err != nil {
		sysLogger.Error("MAIN", "Bootstrap failed", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
	defer container.Close()

	// 5. Start Background Services
	if container.CorpusCacheService != nil {
		if err := container.CorpusCacheService.Start(); err != nil {
			sysLogger.Warn("MAIN", "Corpus cache invalidation not started", map[string]interface{}{"error": err.Error()})
		}
	}

	// 6. Initialize and Run Server
	srv := server.New(cfg, container)
	go func() {
		<-ctx.Done()
		_ = srv.Shutdown()
	}()

	if err := srv.Run(); err != nil {
		sysLogger.Error("MAIN", "Server stopped", map[string]interface{}{"error": err.Error()})
	}
}
