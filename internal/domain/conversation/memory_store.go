package conversation

import (
	"context"
	"sync"
)

// MemoryStore is the transcript fallback when no database is configured.
// Entries live for the process lifetime only.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string][]Message
}

var _ TranscriptStore = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory transcript store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string][]Message)}
}

// Append records one history entry for the session.
func (s *MemoryStore) Append(ctx context.Context, sessionID string, msg Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sessionID] = append(s.sessions[sessionID], msg)
	return nil
}

// BySession returns a copy of the persisted history of one session, oldest
// first.
func (s *MemoryStore) BySession(ctx context.Context, sessionID string) ([]Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Message, len(s.sessions[sessionID]))
	copy(out, s.sessions[sessionID])
	return out, nil
}
