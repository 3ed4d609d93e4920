package storage

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/questweaver/questweaver/pkg/state"
)

// MockStorage is an in-memory implementation of Storage for testing
type MockStorage struct {
	mu        sync.RWMutex
	games     map[uuid.UUID]*state.CharacterState
	pingError error
	saveError error
}

// Ensure MockStorage implements Storage interface
var _ Storage = (*MockStorage)(nil)

// NewMockStorage creates a new mock storage
func NewMockStorage() *MockStorage {
	return &MockStorage{
		games: make(map[uuid.UUID]*state.CharacterState),
	}
}

// SetPingError configures the mock to fail on ping with the given error
func (m *MockStorage) SetPingError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingError = err
}

// SetSaveError configures the mock to fail on SaveGame
func (m *MockStorage) SetSaveError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveError = err
}

func (m *MockStorage) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pingError
}

func (m *MockStorage) Close() error {
	return nil
}

func (m *MockStorage) SaveGame(ctx context.Context, id uuid.UUID, cs *state.CharacterState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveError != nil {
		return m.saveError
	}
	// Store a copy so later mutations by the caller don't leak in.
	cp, err := cs.DeepCopy()
	if err != nil {
		return err
	}
	m.games[id] = cp
	return nil
}

func (m *MockStorage) LoadGame(ctx context.Context, id uuid.UUID) (*state.CharacterState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cs, ok := m.games[id]
	if !ok {
		return nil, nil
	}
	return cs.DeepCopy()
}

func (m *MockStorage) ListGames(ctx context.Context) ([]*state.CharacterState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sessions := make([]*state.CharacterState, 0, len(m.games))
	for _, cs := range m.games {
		cp, err := cs.DeepCopy()
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, cp)
	}
	return sessions, nil
}

func (m *MockStorage) DeleteGame(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.games, id)
	return nil
}
