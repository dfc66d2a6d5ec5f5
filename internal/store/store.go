package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Store is a write-mostly Postgres archive of uploaded documents and chat
// turns. Live session state never reads from it.
type Store struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	id          UUID PRIMARY KEY,
	session_id  TEXT NOT NULL,
	filename    TEXT NOT NULL,
	text_len    INTEGER NOT NULL,
	chunk_count INTEGER NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS chat_turns (
	id             UUID PRIMARY KEY,
	session_id     TEXT NOT NULL,
	user_message   TEXT NOT NULL,
	assistant_text TEXT NOT NULL,
	created_at     TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS chat_turn_context (
	turn_id  UUID NOT NULL REFERENCES chat_turns(id) ON DELETE CASCADE,
	position INTEGER NOT NULL,
	chunk    TEXT NOT NULL,
	PRIMARY KEY (turn_id, position)
);

CREATE INDEX IF NOT EXISTS chat_turns_session_idx ON chat_turns (session_id, created_at);
`

// EnsureSchema creates the archive tables if they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
