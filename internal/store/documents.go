package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Document is the archive record of one upload.
type Document struct {
	ID         uuid.UUID
	SessionID  string
	Filename   string
	TextLen    int
	ChunkCount int
}

// WriteDocument records an indexed upload.
func (s *Store) WriteDocument(ctx context.Context, d Document) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO documents (id, session_id, filename, text_len, chunk_count, created_at)
		VALUES ($1, $2, $3, $4, $5, now())`,
		d.ID, d.SessionID, d.Filename, d.TextLen, d.ChunkCount,
	)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}
