package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MikeSquared-Agency/pdfchat/internal/anthropic"
	"github.com/MikeSquared-Agency/pdfchat/internal/api"
	"github.com/MikeSquared-Agency/pdfchat/internal/chat"
	"github.com/MikeSquared-Agency/pdfchat/internal/config"
	"github.com/MikeSquared-Agency/pdfchat/internal/embedding"
	"github.com/MikeSquared-Agency/pdfchat/internal/hermes"
	"github.com/MikeSquared-Agency/pdfchat/internal/indexer"
	"github.com/MikeSquared-Agency/pdfchat/internal/llm"
	"github.com/MikeSquared-Agency/pdfchat/internal/pdftext"
	"github.com/MikeSquared-Agency/pdfchat/internal/session"
	"github.com/MikeSquared-Agency/pdfchat/internal/store"
)

func main() {
	cfg := config.Load()
	setupLogging(cfg.LogLevel)

	slog.Info("pdfchat starting", "port", cfg.Port)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Embeddings
	if cfg.EmbeddingAPIKey == "" {
		slog.Warn("OPENAI_API_KEY not set, uploads will fail")
	}
	embedder := embedding.NewOpenAI(cfg.EmbeddingAPIKey, cfg.EmbeddingBaseURL, cfg.EmbeddingModel)
	slog.Info("embedder ready", "model", cfg.EmbeddingModel)

	// Chat model
	var completer llm.Completer
	switch cfg.LLMProvider {
	case "anthropic":
		if cfg.AnthropicAPIKey == "" {
			slog.Error("ANTHROPIC_API_KEY is required for the anthropic provider")
			os.Exit(1)
		}
		completer = anthropic.NewClient(cfg.AnthropicAPIKey, cfg.AnthropicModel)
		slog.Info("anthropic client ready", "model", cfg.AnthropicModel)
	case "groq", "openai":
		if cfg.LLMAPIKey == "" {
			slog.Warn("API_KEY not set, chat requests will fail")
		}
		completer = llm.NewOpenAICompatible(cfg.LLMAPIKey, cfg.LLMBaseURL, cfg.LLMModel)
		slog.Info("chat client ready", "provider", cfg.LLMProvider, "model", cfg.LLMModel, "base_url", cfg.LLMBaseURL)
	default:
		slog.Error("unknown LLM_PROVIDER", "provider", cfg.LLMProvider)
		os.Exit(1)
	}
	completer = llm.WithRetry(completer, cfg.LLMMaxRetries, slog.Default())

	// Sessions
	policy, err := session.ParseIndexPolicy(cfg.IndexPolicy)
	if err != nil {
		slog.Error("invalid INDEX_POLICY", "error", err)
		os.Exit(1)
	}
	sessions := session.NewStore(policy, session.Retention{
		MaxTurns: cfg.HistoryMaxTurns,
		TTL:      cfg.HistoryTTL,
	})

	ix := indexer.New(embedder, sessions, cfg.ChunkSize, cfg.ChunkOverlap, slog.Default())
	orch := chat.New(sessions, completer, chat.Config{
		SearchK:       cfg.SearchK,
		ContextChunks: cfg.ContextChunks,
		MinScore:      float32(cfg.SearchMinScore),
		Temperature:   cfg.LLMTemperature,
	}, slog.Default())

	srv := api.NewServer(api.Options{
		Port:             cfg.Port,
		DefaultSessionID: cfg.DefaultSessionID,
		MaxUploadBytes:   cfg.MaxUploadBytes,
	}, ix, orch, sessions, pdftext.Extract, slog.Default())

	// Database (optional, transcript archive)
	if cfg.DatabaseURL != "" {
		db, err := store.New(ctx, cfg.DatabaseURL)
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := db.EnsureSchema(ctx); err != nil {
			slog.Error("failed to apply schema", "error", err)
			os.Exit(1)
		}
		orch.WithRecorder(db)
		srv.WithDocumentRecorder(db)
		srv.WithTurnLister(db)
		slog.Info("database connected")
	} else {
		slog.Info("DATABASE_URL not set, transcripts are kept in memory only")
	}

	// NATS/Hermes (optional)
	if cfg.NatsURL != "" {
		hermesClient, err := hermes.NewClient(ctx, cfg.NatsURL, cfg.NatsToken, slog.Default())
		if err != nil {
			slog.Error("failed to connect to NATS", "error", err)
			os.Exit(1)
		}
		defer hermesClient.Close()
		orch.WithPublisher(hermesClient)
		srv.WithPublisher(hermesClient)
		slog.Info("NATS connected", "url", cfg.NatsURL)
	}

	go func() {
		if err := srv.Start(); err != nil {
			slog.Error("HTTP server error", "error", err)
			cancel()
		}
	}()

	slog.Info("pdfchat ready",
		"port", cfg.Port,
		"index_policy", policy,
		"chunk_size", cfg.ChunkSize,
		"chunk_overlap", cfg.ChunkOverlap,
	)

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
	case <-ctx.Done():
	}
	slog.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("HTTP shutdown", "error", err)
	}
	cancel()
	slog.Info("pdfchat stopped")
}

func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}
