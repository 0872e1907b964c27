package session

import (
	"context"
	"sync"

	e "github.com/gartstein/vcpms/internal/portfolio/errors"
)

// MemoryStore keeps sessions in process memory, for tests and single-node
// development.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]State
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]State)}
}

func (s *MemoryStore) Get(_ context.Context, id string) (*State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.sessions[id]
	if !ok {
		return nil, e.ErrNotFound
	}
	return &state, nil
}

func (s *MemoryStore) Save(_ context.Context, id string, state *State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[id] = *state
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, id)
	return nil
}
