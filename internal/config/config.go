package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Keys     APIKeys
	Ai       AIConfig
	Index    IndexConfig
	Session  SessionConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string // empty disables events
	RedisURL           string // empty disables the corpus cache
	CacheTTL           time.Duration
	UploadLimitMB      int
}

type DatabaseConfig struct {
	Connection string
}

type APIKeys struct {
	OpenAI       string
	GoogleGemini string
	Qdrant       string
}

type AIConfig struct {
	LLMProvider   string // "ollama", "openai", "azure" or "gemini"
	LLMModel      string
	LLMBaseURL    string
	LLMAPIVersion string // Azure OpenAI only

	EmbeddingProvider   string // "ollama", "openai", "azure" or "gemini"
	EmbeddingModel      string
	EmbeddingBaseURL    string
	EmbeddingAPIVersion string
	EmbeddingDimension  int

	OllamaBaseURL string
}

// Vector backends.
const (
	BackendMemory   = "memory"
	BackendPgvector = "pgvector"
	BackendQdrant   = "qdrant"
)

type IndexConfig struct {
	Backend   string
	Corpus    string
	Document  string
	Capacity  int
	QdrantURL string
	Dimension int

	// CorpusFiles are indexed into the fixed corpus at startup. Mainly for
	// the memory backend, which starts empty.
	CorpusFiles []string
}

type SessionConfig struct {
	TTL             time.Duration
	CleanupInterval time.Duration
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	dimension := getEnvAsInt("EMBEDDING_DIMENSION", 3072)

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", ""),
			RedisURL:           getEnv("REDIS_URL", ""),
			CacheTTL:           time.Duration(getEnvAsInt("CACHE_TTL_MINUTES", 60)) * time.Minute,
			UploadLimitMB:      getEnvAsInt("UPLOAD_LIMIT_MB", 50),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Keys: APIKeys{
			OpenAI:       getEnv("OPENAI_API_KEY", ""),
			GoogleGemini: getEnv("GOOGLE_GEMINI_API_KEY", ""),
			Qdrant:       getEnv("QDRANT_API_KEY", ""),
		},
		Ai: AIConfig{
			LLMProvider:         getEnv("LLM_PROVIDER", "ollama"),
			LLMModel:            getEnv("LLM_MODEL", "llama3"),
			LLMBaseURL:          getEnv("LLM_BASE_URL", ""),
			LLMAPIVersion:       getEnv("LLM_API_VERSION", ""),
			EmbeddingProvider:   getEnv("EMBEDDING_PROVIDER", "ollama"),
			EmbeddingModel:      getEnv("EMBEDDING_MODEL", ""),
			EmbeddingBaseURL:    getEnv("EMBEDDING_BASE_URL", ""),
			EmbeddingAPIVersion: getEnv("EMBEDDING_API_VERSION", ""),
			EmbeddingDimension:  dimension,
			OllamaBaseURL:       getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
		},
		Index: IndexConfig{
			Backend:   getEnv("VECTOR_BACKEND", BackendMemory),
			Corpus:    getEnv("CORPUS_INDEX_NAME", "legal-corpus"),
			Document:  getEnv("DOCUMENT_INDEX_NAME", "active-document"),
			Capacity:  getEnvAsInt("DOCUMENT_INDEX_CAPACITY", 10000),
			QdrantURL: getEnv("QDRANT_URL", "http://localhost:6333"),
			Dimension: dimension,

			CorpusFiles: getEnvAsList("CORPUS_FILES"),
		},
		// Sessions never expire unless SESSION_TTL_MINUTES is set.
		Session: SessionConfig{
			TTL:             time.Duration(getEnvAsInt("SESSION_TTL_MINUTES", 0)) * time.Minute,
			CleanupInterval: time.Duration(getEnvAsInt("SESSION_CLEANUP_MINUTES", 10)) * time.Minute,
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsList(key string) []string {
	var out []string
	for _, part := range strings.Split(getEnv(key, ""), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
