package store

import (
	"context"
	"fmt"
	"slices"

	"github.com/MikeSquared-Agency/pdfchat/internal/chat"
)

// WriteTurn archives a chat turn with the context chunks it was grounded on.
// Tables: chat_turns, chat_turn_context.
func (s *Store) WriteTurn(ctx context.Context, t chat.Turn) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO chat_turns (id, session_id, user_message, assistant_text, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		t.ID, t.SessionID, t.User, t.Assistant, t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert turn: %w", err)
	}

	for i, chunk := range t.Context {
		_, err = tx.Exec(ctx, `
			INSERT INTO chat_turn_context (turn_id, position, chunk)
			VALUES ($1, $2, $3)`,
			t.ID, i, chunk,
		)
		if err != nil {
			return fmt.Errorf("insert turn context: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// ListTurns returns a session's most recent limit turns, oldest first, with
// their context chunks.
func (s *Store) ListTurns(ctx context.Context, sessionID string, limit int) ([]chat.Turn, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx, `
		SELECT t.id, t.session_id, t.user_message, t.assistant_text, t.created_at,
		       COALESCE(array_agg(c.chunk ORDER BY c.position) FILTER (WHERE c.chunk IS NOT NULL), '{}')
		FROM chat_turns t
		LEFT JOIN chat_turn_context c ON c.turn_id = t.id
		WHERE t.session_id = $1
		GROUP BY t.id
		ORDER BY t.created_at DESC
		LIMIT $2`,
		sessionID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query turns: %w", err)
	}
	defer rows.Close()

	var turns []chat.Turn
	for rows.Next() {
		var t chat.Turn
		if err := rows.Scan(&t.ID, &t.SessionID, &t.User, &t.Assistant, &t.CreatedAt, &t.Context); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		turns = append(turns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read turns: %w", err)
	}
	slices.Reverse(turns)
	return turns, nil
}
