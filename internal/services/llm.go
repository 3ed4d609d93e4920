package services

import (
	"context"

	"github.com/questweaver/questweaver/pkg/chat"
)

// LLMService defines the interface for the narrator backend. The raw
// response string goes through the state.Normalizer, so providers never
// interpret model output themselves.
type LLMService interface {
	// InitModel prepares the backing model on startup.
	InitModel(ctx context.Context, modelName string) error

	// GenerateTurn produces the raw narrator output for one turn.
	GenerateTurn(ctx context.Context, messages []chat.Message) (string, error)
}
