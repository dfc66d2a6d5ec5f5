package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/MikeSquared-Agency/pdfchat/internal/chat"
	"github.com/MikeSquared-Agency/pdfchat/internal/indexer"
	"github.com/MikeSquared-Agency/pdfchat/internal/store"
)

const (
	defaultSessionID      = "default-session"
	defaultMaxUploadBytes = 32 << 20
)

// Indexer builds a session's index from extracted document text.
type Indexer interface {
	BuildIndex(ctx context.Context, text, sessionID string) (*indexer.Result, error)
}

// Answerer replies to a chat message within a session.
type Answerer interface {
	Answer(ctx context.Context, message, sessionID string) (string, error)
}

// SessionIndexes is the part of the session store the boundary touches
// directly: resetting one session and reporting which sessions are indexed.
type SessionIndexes interface {
	ClearIndex(sessionID string) bool
	Sessions() []string
}

// TurnLister reads archived turns, oldest first.
type TurnLister interface {
	ListTurns(ctx context.Context, sessionID string, limit int) ([]chat.Turn, error)
}

// DocumentRecorder archives uploads.
type DocumentRecorder interface {
	WriteDocument(ctx context.Context, d store.Document) error
}

// Publisher emits events.
type Publisher interface {
	Publish(subject string, data any) error
}

// TextExtractor pulls plain text out of an uploaded file.
type TextExtractor func(data []byte) (string, error)

type Options struct {
	Port             int
	DefaultSessionID string
	MaxUploadBytes   int64
}

type Server struct {
	router *chi.Mux
	port   int
	http   *http.Server
	logger *slog.Logger

	indexer  Indexer
	answerer Answerer
	sessions SessionIndexes
	extract  TextExtractor
	docs     DocumentRecorder
	turns    TurnLister
	events   Publisher

	defaultSession string
	maxUpload      int64
}

func NewServer(opts Options, ix Indexer, ans Answerer, sessions SessionIndexes, extract TextExtractor, logger *slog.Logger) *Server {
	if opts.DefaultSessionID == "" {
		opts.DefaultSessionID = defaultSessionID
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = defaultMaxUploadBytes
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	s := &Server{
		router:         router,
		port:           opts.Port,
		logger:         logger,
		indexer:        ix,
		answerer:       ans,
		sessions:       sessions,
		extract:        extract,
		defaultSession: opts.DefaultSessionID,
		maxUpload:      opts.MaxUploadBytes,
	}

	router.Get("/health", s.health)
	router.Get("/ping/", s.ping)
	router.Get("/history/", s.history)
	router.Post("/upload/", s.upload)
	router.Post("/chatapi/", s.chat)
	router.Post("/reset/", s.reset)

	return s
}

// WithDocumentRecorder attaches an upload archive. Nil disables it.
func (s *Server) WithDocumentRecorder(d DocumentRecorder) *Server {
	s.docs = d
	return s
}

// WithTurnLister enables GET /history/. Nil disables it.
func (s *Server) WithTurnLister(l TurnLister) *Server {
	s.turns = l
	return s
}

// WithPublisher attaches an event publisher. Nil disables it.
func (s *Server) WithPublisher(p Publisher) *Server {
	s.events = p
	return s
}

func (s *Server) Handler() http.Handler { return s.router }

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("API server starting", "addr", addr)
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

func (s *Server) ping(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":           "ok",
		"indexed_sessions": len(s.sessions.Sessions()),
	})
}

func (s *Server) sessionOrDefault(id string) string {
	if id == "" {
		return s.defaultSession
	}
	return id
}

func (s *Server) publish(subject string, data any) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(subject, data); err != nil {
		s.logger.Warn("failed to publish event", "subject", subject, "error", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
