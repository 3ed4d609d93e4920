// Package storage persists game sessions behind a narrow interface so
// handlers and the engine never touch Redis directly.
package storage

import (
	"context"

	"github.com/google/uuid"

	"github.com/questweaver/questweaver/pkg/state"
)

// Storage defines the interface for game session persistence
type Storage interface {
	// Health and lifecycle
	Ping(ctx context.Context) error
	Close() error

	// SaveGame saves a session under its id
	SaveGame(ctx context.Context, id uuid.UUID, cs *state.CharacterState) error

	// LoadGame retrieves a session by id.
	// Returns nil if the session doesn't exist.
	LoadGame(ctx context.Context, id uuid.UUID) (*state.CharacterState, error)

	// DeleteGame removes a session by id
	DeleteGame(ctx context.Context, id uuid.UUID) error

	// ListGames returns every stored session. Order is unspecified.
	ListGames(ctx context.Context) ([]*state.CharacterState, error)
}
