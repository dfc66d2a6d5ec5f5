package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/MikeSquared-Agency/pdfchat/internal/vectorindex"
)

// IndexPolicy decides what happens to other sessions' indexes when one is stored.
type IndexPolicy string

const (
	// ReplaceAll keeps a single live index process-wide: storing one drops every other.
	ReplaceAll IndexPolicy = "replace-all"
	// PerSession replaces only the target session's index.
	PerSession IndexPolicy = "per-session"
)

// ParseIndexPolicy maps a config value to a policy.
func ParseIndexPolicy(s string) (IndexPolicy, error) {
	switch IndexPolicy(s) {
	case ReplaceAll, "":
		return ReplaceAll, nil
	case PerSession:
		return PerSession, nil
	default:
		return "", fmt.Errorf("unknown index policy %q", s)
	}
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one entry of a conversation history.
type Message struct {
	Role    string
	Content string
}

// Retention bounds conversation history. Zero values mean unbounded.
type Retention struct {
	MaxTurns int
	TTL      time.Duration
}

type history struct {
	messages []Message
	lastUsed time.Time
}

// Store owns every session's vector index and conversation history for the
// lifetime of the process.
type Store struct {
	mu        sync.RWMutex
	indexes   map[string]*vectorindex.Index
	histories map[string]*history
	policy    IndexPolicy
	retention Retention
	now       func() time.Time
}

func NewStore(policy IndexPolicy, retention Retention) *Store {
	if policy == "" {
		policy = ReplaceAll
	}
	return &Store{
		indexes:   make(map[string]*vectorindex.Index),
		histories: make(map[string]*history),
		policy:    policy,
		retention: retention,
		now:       time.Now,
	}
}

// Policy returns the store's index policy.
func (s *Store) Policy() IndexPolicy { return s.policy }

// GetIndex returns the session's index, if any.
func (s *Store) GetIndex(sessionID string) (*vectorindex.Index, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx, ok := s.indexes[sessionID]
	return idx, ok
}

// PutIndex stores idx for the session and returns the IDs of other sessions
// whose indexes were dropped under ReplaceAll.
func (s *Store) PutIndex(sessionID string, idx *vectorindex.Index) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var dropped []string
	if s.policy == ReplaceAll {
		for id := range s.indexes {
			if id != sessionID {
				dropped = append(dropped, id)
			}
		}
		s.indexes = make(map[string]*vectorindex.Index)
	}
	s.indexes[sessionID] = idx
	return dropped
}

// ClearIndex removes one session's index only. It reports whether one existed.
func (s *Store) ClearIndex(sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.indexes[sessionID]
	delete(s.indexes, sessionID)
	return ok
}

// GetHistory returns a copy of the session's history, creating an empty one
// on first access. Histories idle past the retention TTL start over.
func (s *Store) GetHistory(sessionID string) []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	h := s.historyLocked(sessionID)
	out := make([]Message, len(h.messages))
	copy(out, h.messages)
	return out
}

// AppendTurn records a user message and its reply as one unit, then applies
// MaxTurns.
func (s *Store) AppendTurn(sessionID, user, assistant string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h := s.historyLocked(sessionID)
	h.messages = append(h.messages,
		Message{Role: RoleUser, Content: user},
		Message{Role: RoleAssistant, Content: assistant},
	)
	if limit := s.retention.MaxTurns; limit > 0 && len(h.messages) > 2*limit {
		h.messages = append([]Message(nil), h.messages[len(h.messages)-2*limit:]...)
	}
	h.lastUsed = s.now()
}

// Sessions returns the IDs with a live index.
func (s *Store) Sessions() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.indexes))
	for id := range s.indexes {
		ids = append(ids, id)
	}
	return ids
}

func (s *Store) historyLocked(sessionID string) *history {
	now := s.now()
	h, ok := s.histories[sessionID]
	if !ok {
		h = &history{lastUsed: now}
		s.histories[sessionID] = h
		return h
	}
	if ttl := s.retention.TTL; ttl > 0 && now.Sub(h.lastUsed) > ttl {
		h.messages = nil
	}
	h.lastUsed = now
	return h
}
