package session

import (
	"context"
	"sync"
)

// MemoryStore keeps sessions in process memory. State is lost on restart.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[int64]State
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[int64]State)}
}

func (m *MemoryStore) Get(_ context.Context, owner int64) (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[owner]
	if !ok {
		return Idle{}, nil
	}
	return clone(s), nil
}

func (m *MemoryStore) Set(_ context.Context, owner int64, state State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, idle := state.(Idle); idle || state == nil {
		delete(m.sessions, owner)
		return nil
	}
	m.sessions[owner] = clone(state)
	return nil
}

func (m *MemoryStore) Clear(_ context.Context, owner int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, owner)
	return nil
}

// Len reports how many owners have a dialog in progress.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
