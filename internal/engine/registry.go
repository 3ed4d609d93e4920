package engine

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/questweaver/questweaver/internal/services"
	"github.com/questweaver/questweaver/internal/storage"
	"github.com/questweaver/questweaver/pkg/state"
	"github.com/questweaver/questweaver/pkg/textfilter"
)

// Registry maps game ids to their live controllers so concurrent
// requests for the same session share one fencing sequence.
type Registry struct {
	mu          sync.Mutex
	controllers map[uuid.UUID]*Controller

	llm    services.LLMService
	store  storage.Storage
	mode   state.WireMode
	rating textfilter.Rating
	logger *slog.Logger
}

// NewRegistry creates an empty controller registry.
func NewRegistry(llm services.LLMService, store storage.Storage, mode state.WireMode, logger *slog.Logger) *Registry {
	return &Registry{
		controllers: make(map[uuid.UUID]*Controller),
		llm:         llm,
		store:       store,
		mode:        mode,
		rating:      textfilter.RatingMature,
		logger:      logger,
	}
}

// WithRating sets the content rating applied to narrator text for every
// session this registry attaches.
func (r *Registry) WithRating(rating textfilter.Rating) *Registry {
	r.rating = rating
	return r
}

// Attach registers a controller for a fresh or freshly loaded session,
// replacing any prior controller for the same id.
func (r *Registry) Attach(cs *state.CharacterState) *Controller {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := NewController(cs, r.llm, r.store, r.mode, r.logger).
		WithFilter(textfilter.New(r.rating))
	r.controllers[cs.ID] = c
	return c
}

// Get returns the live controller for a session, or nil.
func (r *Registry) Get(id uuid.UUID) *Controller {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.controllers[id]
}

// Remove drops a session's controller.
func (r *Registry) Remove(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.controllers, id)
}
