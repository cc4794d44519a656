package main

import (
	"os"

	"ai-legal-engine/internal/config"
	"ai-legal-engine/internal/pkg/logger"
	"ai-legal-engine/pkg/database"
)

func main() {
	// 1. Load Environment Variables
	cfg := config.Load()
	log := logger.NewConsoleLogger(false)
	defer log.Sync()

	if cfg.Database.Connection == "" {
		log.Error("MIGRATE", "DB_CONNECTION_STRING is not set", nil)
		os.Exit(1)
	}

	// 2. Connect to Database using existing GORM helpers
	db, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Error("MIGRATE", "Failed to connect to database", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}

	// 3. Extension, vector tables and full text index
	log.Info("MIGRATE", "Starting migration", nil)
	if err := database.Migrate(db); err != nil {
		log.Error("MIGRATE", "Migration failed", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}

	log.Info("MIGRATE", "Database migration completed", map[string]interface{}{
		"corpus_index":   cfg.Index.Corpus,
		"document_index": cfg.Index.Document,
	})
}
