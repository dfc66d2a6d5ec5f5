//go:build integration

package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/pdfchat/internal/chat"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	ctx := context.Background()
	s, err := New(ctx, dbURL)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	if err := s.EnsureSchema(ctx); err != nil {
		t.Fatalf("failed to ensure schema: %v", err)
	}

	t.Cleanup(func() {
		s.Close()
	})
	return s
}

func TestIntegration_WriteAndListTurns(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	sessionID := "integration-test-" + uuid.New().String()[:8]
	base := time.Date(2026, 2, 11, 10, 0, 0, 0, time.UTC)

	first := chat.Turn{
		ID:        uuid.New(),
		SessionID: sessionID,
		User:      "What is the refund policy?",
		Assistant: "Refunds within **30 days**.",
		Context:   []string{"Refunds are accepted within 30 days."},
		CreatedAt: base,
	}
	second := chat.Turn{
		ID:        uuid.New(),
		SessionID: sessionID,
		User:      "And shipping?",
		Assistant: "Five business days.",
		CreatedAt: base.Add(time.Minute),
	}
	for _, turn := range []chat.Turn{first, second} {
		if err := s.WriteTurn(ctx, turn); err != nil {
			t.Fatalf("WriteTurn failed: %v", err)
		}
	}

	t.Cleanup(func() {
		s.pool.Exec(ctx, "DELETE FROM chat_turns WHERE session_id = $1", sessionID)
	})

	turns, err := s.ListTurns(ctx, sessionID, 10)
	if err != nil {
		t.Fatalf("ListTurns failed: %v", err)
	}
	if len(turns) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(turns))
	}
	if turns[0].ID != first.ID || turns[1].ID != second.ID {
		t.Errorf("expected turns in creation order")
	}
	if len(turns[0].Context) != 1 || turns[0].Context[0] != first.Context[0] {
		t.Errorf("expected context chunk, got %v", turns[0].Context)
	}
	if len(turns[1].Context) != 0 {
		t.Errorf("expected no context for second turn, got %v", turns[1].Context)
	}

	latest, err := s.ListTurns(ctx, sessionID, 1)
	if err != nil {
		t.Fatalf("ListTurns with limit failed: %v", err)
	}
	if len(latest) != 1 || latest[0].ID != second.ID {
		t.Errorf("expected only the newest turn, got %+v", latest)
	}
}

func TestIntegration_WriteDocument(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	id := uuid.New()

	err := s.WriteDocument(ctx, Document{
		ID:         id,
		SessionID:  "integration-doc",
		Filename:   "policy.pdf",
		TextLen:    1000,
		ChunkCount: 2,
	})
	if err != nil {
		t.Fatalf("WriteDocument failed: %v", err)
	}
	t.Cleanup(func() {
		s.pool.Exec(ctx, "DELETE FROM documents WHERE id = $1", id)
	})

	var chunks int
	if err := s.pool.QueryRow(ctx, "SELECT chunk_count FROM documents WHERE id = $1", id).Scan(&chunks); err != nil {
		t.Fatalf("query document failed: %v", err)
	}
	if chunks != 2 {
		t.Errorf("expected 2 chunks, got %d", chunks)
	}
}
