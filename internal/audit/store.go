package audit

import (
	"context"
	"sync"
)

// Store is the append-only persistence for audit entries. Per-actor insertion
// order must be preserved so trails reconstruct.
type Store interface {
	Append(ctx context.Context, e Entry) error
	ListByActor(ctx context.Context, actorID string) ([]Entry, error)
}

// MemoryStore keeps entries in insertion order under a lock. Backs tests and
// local development.
type MemoryStore struct {
	mu      sync.RWMutex
	entries []Entry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Append(_ context.Context, e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, e)
	return nil
}

func (s *MemoryStore) ListByActor(_ context.Context, actorID string) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Entry
	for _, e := range s.entries {
		if e.ActorID == actorID {
			out = append(out, e)
		}
	}
	return out, nil
}

// All returns every entry in insertion order. Test helper.
func (s *MemoryStore) All() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Entry{}, s.entries...)
}
