// Package config loads process configuration from the environment, mirroring
// the option surface the original Python service exposed via pydantic
// Settings (app/core/config.py): environment-variable driven, with sane
// defaults for local development.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Settings holds every environment-tunable option named in spec.md §6.
type Settings struct {
	Host string
	Port int

	Environment string
	LogLevel    string

	DatabaseURL string
	RedisURL    string

	LLMEndpoint       string
	LLMModel          string
	EmbeddingEndpoint string
	EmbeddingModel    string
	EmbeddingDim      int

	DLPEnabled bool

	AnalyticsTopic string
	AnalyticsTable string

	MaxFileSizeMB       int
	MaxPages            int
	MaxClausesPerBatch  int
	MaxPromptTokens     int
	MaxOutputTokens     int
	RateLimitPerMinute  int
	ClauseCacheTTL      time.Duration
	ConversationWindow  int
	RetrievalTopK       int
	RetrievalMinScore   float64
	StoreBatchChunkSize int

	AllowedOrigins []string
}

// Load reads Settings from the environment, applying defaults for anything
// unset. It never fails: a missing DATABASE_URL/REDIS_URL is a deployment
// concern surfaced by downstream dial failures, not a config-time error.
func Load() *Settings {
	return &Settings{
		Host:        getenv("HOST", "0.0.0.0"),
		Port:        getenvInt("PORT", 8000),
		Environment: getenv("ENVIRONMENT", "development"),
		LogLevel:    getenv("LOG_LEVEL", "info"),

		DatabaseURL: getenv("DATABASE_URL", "postgres://localhost:5432/clausecompass"),
		RedisURL:    getenv("REDIS_URL", "redis://localhost:6379/0"),

		LLMEndpoint:       getenv("LLM_ENDPOINT", "http://localhost:11434"),
		LLMModel:          getenv("LLM_MODEL", "gemma2"),
		EmbeddingEndpoint: getenv("EMBEDDING_ENDPOINT", "http://localhost:11434"),
		EmbeddingModel:    getenv("EMBEDDING_MODEL", "nomic-embed-text"),
		EmbeddingDim:      getenvInt("EMBEDDING_DIM", 768),

		DLPEnabled: getenvBool("DLP_ENABLED", true),

		AnalyticsTopic: getenv("ANALYTICS_TOPIC", "clausecompass-events"),
		AnalyticsTable: getenv("ANALYTICS_TABLE", "events"),

		MaxFileSizeMB:       getenvInt("MAX_FILE_SIZE_MB", 10),
		MaxPages:            getenvInt("MAX_PAGES", 10),
		MaxClausesPerBatch:  getenvInt("MAX_CLAUSES_PER_BATCH", 10),
		MaxPromptTokens:     getenvInt("MAX_PROMPT_TOKENS", 30000),
		MaxOutputTokens:     getenvInt("MAX_OUTPUT_TOKENS", 8000),
		RateLimitPerMinute:  getenvInt("RATE_LIMIT_PER_MINUTE", 60),
		ClauseCacheTTL:      time.Duration(getenvInt("CLAUSE_CACHE_TTL_SECONDS", 1800)) * time.Second,
		ConversationWindow:  getenvInt("CONVERSATION_WINDOW", 10),
		RetrievalTopK:       getenvInt("RETRIEVAL_TOP_K", 5),
		RetrievalMinScore:   getenvFloat("RETRIEVAL_MIN_SIMILARITY", 0.2),
		StoreBatchChunkSize: getenvInt("STORE_BATCH_CHUNK_SIZE", 50),

		AllowedOrigins: strings.Split(getenv("ALLOWED_ORIGINS", "http://localhost:3000"), ","),
	}
}

// MaxFileSizeBytes converts MaxFileSizeMB to bytes.
func (s *Settings) MaxFileSizeBytes() int64 {
	return int64(s.MaxFileSizeMB) * 1024 * 1024
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getenvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getenvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}
