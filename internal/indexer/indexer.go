package indexer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/MikeSquared-Agency/pdfchat/internal/embedding"
	"github.com/MikeSquared-Agency/pdfchat/internal/session"
	"github.com/MikeSquared-Agency/pdfchat/internal/splitter"
	"github.com/MikeSquared-Agency/pdfchat/internal/vectorindex"
)

const (
	DefaultChunkSize    = 700
	DefaultChunkOverlap = 200
)

var ErrEmptyText = errors.New("document has no text")

// Result describes a committed index.
type Result struct {
	Index   *vectorindex.Index
	Chunks  []string
	Dropped []string // sessions whose index was discarded by the store policy
}

// Indexer turns extracted document text into a session's vector index.
type Indexer struct {
	embedder     embedding.Embedder
	store        *session.Store
	chunkSize    int
	chunkOverlap int
	logger       *slog.Logger
}

// New builds an indexer. A non-positive chunk size falls back to 700; a
// negative overlap falls back to 200, or half the chunk size when that is
// smaller.
func New(e embedding.Embedder, store *session.Store, chunkSize, chunkOverlap int, logger *slog.Logger) *Indexer {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if chunkOverlap < 0 {
		chunkOverlap = min(DefaultChunkOverlap, chunkSize/2)
	}
	return &Indexer{
		embedder:     e,
		store:        store,
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		logger:       logger,
	}
}

// BuildIndex indexes text for sessionID with the configured chunking.
func (ix *Indexer) BuildIndex(ctx context.Context, text, sessionID string) (*Result, error) {
	return ix.BuildIndexWith(ctx, text, sessionID, ix.chunkSize, ix.chunkOverlap)
}

// BuildIndexWith splits, embeds and indexes text, then commits the index for
// sessionID. The store is only touched once the index is fully built, so a
// failed build leaves every session as it was.
func (ix *Indexer) BuildIndexWith(ctx context.Context, text, sessionID string, chunkSize, chunkOverlap int) (*Result, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}

	sp, err := splitter.New(chunkSize, chunkOverlap)
	if err != nil {
		return nil, fmt.Errorf("splitter: %w", err)
	}
	chunks := sp.Split(text)
	if len(chunks) == 0 {
		return nil, ErrEmptyText
	}

	idx, err := vectorindex.Build(ctx, ix.embedder, chunks)
	if err != nil {
		return nil, fmt.Errorf("build index: %w", err)
	}

	dropped := ix.store.PutIndex(sessionID, idx)
	if len(dropped) > 0 {
		ix.logger.Warn("upload discarded other sessions' indexes",
			"session_id", sessionID,
			"dropped", dropped,
			"policy", ix.store.Policy(),
		)
	}

	ix.logger.Info("document indexed",
		"session_id", sessionID,
		"text_len", len(text),
		"chunks", len(chunks),
		"chunk_size", chunkSize,
		"chunk_overlap", chunkOverlap,
	)

	return &Result{Index: idx, Chunks: chunks, Dropped: dropped}, nil
}
