package conversation

import (
	"context"
	"sync"
)

// Turn is one message in a participant's conversation window.
type Turn struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// SessionStore keeps the per-participant conversation window.
// Append and Truncate are separate calls, so concurrent requests for the same
// participant may interleave.
type SessionStore interface {
	Turns(ctx context.Context, sessionID string) ([]Turn, error)
	Append(ctx context.Context, sessionID string, turns ...Turn) error
	Truncate(ctx context.Context, sessionID string, keep int) error
}

// MemoryStore is a process-lifetime SessionStore.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string][]Turn
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string][]Turn)}
}

func (s *MemoryStore) Turns(_ context.Context, sessionID string) ([]Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	turns := s.sessions[sessionID]
	out := make([]Turn, len(turns))
	copy(out, turns)
	return out, nil
}

func (s *MemoryStore) Append(_ context.Context, sessionID string, turns ...Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sessionID] = append(s.sessions[sessionID], turns...)
	return nil
}

func (s *MemoryStore) Truncate(_ context.Context, sessionID string, keep int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	turns, ok := s.sessions[sessionID]
	if !ok || len(turns) <= keep {
		return nil
	}
	if keep <= 0 {
		s.sessions[sessionID] = nil
		return nil
	}
	trimmed := make([]Turn, keep)
	copy(trimmed, turns[len(turns)-keep:])
	s.sessions[sessionID] = trimmed
	return nil
}
