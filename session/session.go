// Package session keeps per-caller conversation history keyed by an opaque
// session identifier, typically the caller's phone number.
package session

import (
	"context"
	"sync"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one utterance in a conversation. Immutable once created.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Store holds ordered turn history per session. History creates sessions
// lazily; AppendExchange adds a user/assistant pair atomically at the tail so
// racing requests for the same session never interleave their turns.
type Store interface {
	History(ctx context.Context, sessionID string) ([]Turn, error)
	AppendExchange(ctx context.Context, sessionID string, user, assistant Turn) error
}

type sessionEntry struct {
	mu    sync.Mutex
	turns []Turn
}

// MemoryStore is the default in-process store. Sessions live for the process
// lifetime and are never evicted; unbounded growth is an accepted limitation
// of the single-process design.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*sessionEntry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*sessionEntry)}
}

func (s *MemoryStore) History(_ context.Context, sessionID string) ([]Turn, error) {
	entry := s.entry(sessionID)

	entry.mu.Lock()
	defer entry.mu.Unlock()

	turns := make([]Turn, len(entry.turns))
	copy(turns, entry.turns)
	return turns, nil
}

func (s *MemoryStore) AppendExchange(_ context.Context, sessionID string, user, assistant Turn) error {
	entry := s.entry(sessionID)

	entry.mu.Lock()
	defer entry.mu.Unlock()

	entry.turns = append(entry.turns, user, assistant)
	return nil
}

func (s *MemoryStore) entry(sessionID string) *sessionEntry {
	s.mu.RLock()
	entry, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if ok {
		return entry
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if entry, ok = s.sessions[sessionID]; ok {
		return entry
	}
	entry = &sessionEntry{}
	s.sessions[sessionID] = entry
	return entry
}

var _ Store = (*MemoryStore)(nil)
