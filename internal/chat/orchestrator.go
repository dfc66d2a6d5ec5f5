package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/pdfchat/internal/hermes"
	"github.com/MikeSquared-Agency/pdfchat/internal/llm"
	"github.com/MikeSquared-Agency/pdfchat/internal/session"
	"github.com/MikeSquared-Agency/pdfchat/internal/vectorindex"
)

// Advisory replies returned instead of errors when retrieval cannot proceed.
const (
	NoDocumentReply = "No PDF uploaded yet. Please upload a PDF before chatting."
	NoMatchReply    = "No relevant text found in the document."
)

const (
	defaultSearchK       = 3
	defaultContextChunks = 1
	contextDelimiter     = "\n\n---\n\n"
	emptyContext         = "No relevant FAQ found."
)

// State is the retrieval outcome that decides how a message is answered.
type State int

const (
	NoIndex State = iota
	IndexedNoMatch
	IndexedMatched
)

func (s State) String() string {
	switch s {
	case NoIndex:
		return "no_index"
	case IndexedNoMatch:
		return "indexed_no_match"
	case IndexedMatched:
		return "indexed_matched"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Retrieval is the result of looking a message up in a session's index.
type Retrieval struct {
	State   State
	Matches []vectorindex.Match
}

// Turn is a completed exchange, handed to the optional recorder.
type Turn struct {
	ID        uuid.UUID
	SessionID string
	User      string
	Assistant string
	Context   []string
	CreatedAt time.Time
}

// TurnRecorder archives completed turns.
type TurnRecorder interface {
	WriteTurn(ctx context.Context, t Turn) error
}

// Publisher emits events.
type Publisher interface {
	Publish(subject string, data any) error
}

type Config struct {
	SearchK       int
	ContextChunks int
	// MinScore drops matches scoring below it. Zero keeps every match.
	MinScore    float32
	Temperature float64
}

// Orchestrator answers chat messages from a session's document and history.
type Orchestrator struct {
	store     *session.Store
	llm       llm.Completer
	cfg       Config
	recorder  TurnRecorder
	publisher Publisher
	logger    *slog.Logger
}

func New(store *session.Store, completer llm.Completer, cfg Config, logger *slog.Logger) *Orchestrator {
	if cfg.SearchK <= 0 {
		cfg.SearchK = defaultSearchK
	}
	if cfg.ContextChunks <= 0 {
		cfg.ContextChunks = defaultContextChunks
	}
	if cfg.ContextChunks > cfg.SearchK {
		cfg.ContextChunks = cfg.SearchK
	}
	return &Orchestrator{store: store, llm: completer, cfg: cfg, logger: logger}
}

// WithRecorder attaches a transcript archive. Nil disables it.
func (o *Orchestrator) WithRecorder(r TurnRecorder) *Orchestrator {
	o.recorder = r
	return o
}

// WithPublisher attaches an event publisher. Nil disables it.
func (o *Orchestrator) WithPublisher(p Publisher) *Orchestrator {
	o.publisher = p
	return o
}

// Retrieve finds the chunks relevant to message in the session's index.
func (o *Orchestrator) Retrieve(ctx context.Context, message, sessionID string) (Retrieval, error) {
	idx, ok := o.store.GetIndex(sessionID)
	if !ok {
		return Retrieval{State: NoIndex}, nil
	}
	matches, err := idx.Search(ctx, message, o.cfg.SearchK)
	if err != nil {
		return Retrieval{}, fmt.Errorf("similarity search: %w", err)
	}
	if o.cfg.MinScore > 0 {
		kept := matches[:0]
		for _, m := range matches {
			if m.Score >= o.cfg.MinScore {
				kept = append(kept, m)
			}
		}
		matches = kept
	}
	if len(matches) == 0 {
		return Retrieval{State: IndexedNoMatch}, nil
	}
	return Retrieval{State: IndexedMatched, Matches: matches}, nil
}

// Answer replies to message within sessionID. Missing documents and empty
// searches produce advisory replies without calling the model; model and
// embedding failures are returned as errors and leave history untouched.
func (o *Orchestrator) Answer(ctx context.Context, message, sessionID string) (string, error) {
	r, err := o.Retrieve(ctx, message, sessionID)
	if err != nil {
		return "", err
	}

	switch r.State {
	case NoIndex:
		o.logger.Info("chat without document", "session_id", sessionID)
		return NoDocumentReply, nil
	case IndexedNoMatch:
		o.logger.Info("no relevant chunks", "session_id", sessionID)
		return NoMatchReply, nil
	}

	used := r.Matches
	if len(used) > o.cfg.ContextChunks {
		used = used[:o.cfg.ContextChunks]
	}
	texts := make([]string, len(used))
	for i, m := range used {
		texts[i] = m.Text
	}

	history := o.store.GetHistory(sessionID)
	prompt := BuildPrompt(history, message, strings.Join(texts, contextDelimiter))

	reply, err := o.llm.Complete(ctx, prompt, llm.Options{Temperature: o.cfg.Temperature})
	if err != nil {
		return "", fmt.Errorf("generate reply: %w", err)
	}

	o.store.AppendTurn(sessionID, message, reply)

	o.logger.Info("chat answered",
		"session_id", sessionID,
		"history_messages", len(history),
		"matches", len(r.Matches),
		"context_chunks", len(used),
		"top_score", r.Matches[0].Score,
		"reply_len", len(reply),
	)

	o.afterTurn(ctx, Turn{
		ID:        uuid.New(),
		SessionID: sessionID,
		User:      message,
		Assistant: reply,
		Context:   texts,
		CreatedAt: time.Now().UTC(),
	})

	return reply, nil
}

func (o *Orchestrator) afterTurn(ctx context.Context, t Turn) {
	if o.recorder != nil {
		if err := o.recorder.WriteTurn(ctx, t); err != nil {
			o.logger.Warn("failed to archive turn", "session_id", t.SessionID, "error", err)
		}
	}
	if o.publisher != nil {
		err := o.publisher.Publish(hermes.SubjectChatAnswered, hermes.ChatAnswered{
			TurnID:        t.ID.String(),
			SessionID:     t.SessionID,
			ContextChunks: len(t.Context),
			ReplyLen:      len(t.Assistant),
			Timestamp:     t.CreatedAt.Format(time.RFC3339),
		})
		if err != nil {
			o.logger.Warn("failed to publish chat event", "session_id", t.SessionID, "error", err)
		}
	}
}
