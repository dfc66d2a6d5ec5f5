package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port             int
	LogLevel         string
	DefaultSessionID string
	MaxUploadBytes   int64

	// LLM
	LLMProvider     string
	LLMAPIKey       string
	LLMBaseURL      string
	LLMModel        string
	LLMTemperature  float64
	LLMMaxRetries   int
	AnthropicAPIKey string
	AnthropicModel  string

	// Embeddings
	EmbeddingAPIKey  string
	EmbeddingBaseURL string
	EmbeddingModel   string

	// Retrieval
	ChunkSize      int
	ChunkOverlap   int
	SearchK        int
	SearchMinScore float64
	ContextChunks  int
	IndexPolicy    string

	// History retention
	HistoryMaxTurns int
	HistoryTTL      time.Duration

	// Optional infrastructure
	NatsURL     string
	NatsToken   string
	DatabaseURL string
}

// Load reads configuration from the environment, after loading ./.env if one exists.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to load .env", "error", err)
	}

	return Config{
		Port:             envInt("PDFCHAT_PORT", 8000),
		LogLevel:         envStr("LOG_LEVEL", "info"),
		DefaultSessionID: envStr("DEFAULT_SESSION_ID", "default-session"),
		MaxUploadBytes:   int64(envInt("MAX_UPLOAD_BYTES", 32<<20)),

		LLMProvider:     envStr("LLM_PROVIDER", "groq"),
		LLMAPIKey:       envStr("API_KEY", ""),
		LLMBaseURL:      envStr("LLM_BASE_URL", "https://api.groq.com/openai/v1"),
		LLMModel:        envStr("LLM_MODEL", "llama-3.3-70b-versatile"),
		LLMTemperature:  envFloat("LLM_TEMPERATURE", 0),
		LLMMaxRetries:   envInt("LLM_MAX_RETRIES", 1),
		AnthropicAPIKey: envStr("ANTHROPIC_API_KEY", ""),
		AnthropicModel:  envStr("ANTHROPIC_MODEL", "claude-sonnet-4-20250514"),

		EmbeddingAPIKey:  envStr("OPENAI_API_KEY", ""),
		EmbeddingBaseURL: envStr("EMBEDDING_BASE_URL", ""),
		EmbeddingModel:   envStr("EMBEDDING_MODEL", "text-embedding-3-small"),

		ChunkSize:      envInt("CHUNK_SIZE", 700),
		ChunkOverlap:   envInt("CHUNK_OVERLAP", 200),
		SearchK:        envInt("SEARCH_K", 3),
		SearchMinScore: envFloat("SEARCH_MIN_SCORE", 0),
		ContextChunks:  envInt("CONTEXT_CHUNKS", 1),
		IndexPolicy:    envStr("INDEX_POLICY", "replace-all"),

		HistoryMaxTurns: envInt("HISTORY_MAX_TURNS", 0),
		HistoryTTL:      envDuration("HISTORY_TTL", 0),

		NatsURL:     envStr("NATS_URL", ""),
		NatsToken:   envStr("NATS_TOKEN", ""),
		DatabaseURL: envStr("DATABASE_URL", ""),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
