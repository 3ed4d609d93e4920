package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/questweaver/questweaver/internal/engine"
	"github.com/questweaver/questweaver/internal/storage"
	"github.com/questweaver/questweaver/pkg/state"
	"github.com/questweaver/questweaver/pkg/stats"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

// GameHandler serves the game session API.
// Routes:
//
//	POST   /v1/game               - create a new session
//	GET    /v1/game               - list stored sessions
//	POST   /v1/game/load          - restore a session from a save file
//	GET    /v1/game/{id}          - read session state
//	DELETE /v1/game/{id}          - delete a session
//	POST   /v1/game/{id}/turn     - submit a player action
//	POST   /v1/game/{id}/cancel   - cancel the in-flight turn
//	POST   /v1/game/{id}/retry    - retry the last failed turn
//	GET    /v1/game/{id}/save     - download a save file
//	GET    /v1/game/{id}/export   - download the adventure log
type GameHandler struct {
	registry *engine.Registry
	storage  storage.Storage
	logger   *slog.Logger
}

func NewGameHandler(registry *engine.Registry, storage storage.Storage, logger *slog.Logger) *GameHandler {
	return &GameHandler{
		registry: registry,
		storage:  storage,
		logger:   logger,
	}
}

// CreateGameRequest defines the request body for creating a session.
// Stats keys are three-letter axis codes; absent axes default to 10.
type CreateGameRequest struct {
	Name  string         `json:"name"`
	Genre string         `json:"genre,omitempty"`
	Stats map[string]int `json:"stats,omitempty"`
}

// GameResponse wraps session state with the currently offered choices.
type GameResponse struct {
	State   *state.CharacterState `json:"state"`
	Choices []state.Choice        `json:"choices,omitempty"`
}

func (h *GameHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/game"), "/")
	if path == "" {
		switch r.Method {
		case http.MethodPost:
			h.handleCreate(w, r)
		case http.MethodGet:
			h.handleList(w, r)
		default:
			h.writeError(w, http.StatusMethodNotAllowed, "Method not allowed. Use POST to create a game or GET to list games")
		}
		return
	}
	if path == "load" {
		if r.Method != http.MethodPost {
			h.writeError(w, http.StatusMethodNotAllowed, "Method not allowed. Use POST to load a save")
			return
		}
		h.handleLoad(w, r)
		return
	}

	segs := strings.SplitN(path, "/", 2)
	gameID, err := uuid.Parse(segs[0])
	if err != nil {
		h.logger.Warn("Invalid game ID", "id", segs[0], "error", err)
		h.writeError(w, http.StatusBadRequest, "Invalid game ID format")
		return
	}

	action := ""
	if len(segs) == 2 {
		action = segs[1]
	}

	switch {
	case action == "" && r.Method == http.MethodGet:
		h.handleRead(w, r, gameID)
	case action == "" && r.Method == http.MethodDelete:
		h.handleDelete(w, r, gameID)
	case action == "turn" && r.Method == http.MethodPost:
		h.handleTurn(w, r, gameID)
	case action == "cancel" && r.Method == http.MethodPost:
		h.handleCancel(w, r, gameID)
	case action == "retry" && r.Method == http.MethodPost:
		h.handleRetry(w, r, gameID)
	case action == "save" && r.Method == http.MethodGet:
		h.handleSave(w, r, gameID)
	case action == "export" && r.Method == http.MethodGet:
		h.handleExport(w, r, gameID)
	default:
		h.writeError(w, http.StatusNotFound, "Unknown game endpoint")
	}
}

func (h *GameHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Invalid JSON in request body", "error", err)
		h.writeError(w, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		h.writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	base := stats.Block{}
	for key, v := range req.Stats {
		axis, ok := stats.Parse(key)
		if !ok {
			h.writeError(w, http.StatusBadRequest, "Unknown stat: "+key)
			return
		}
		base[axis] = v
	}

	cs := state.NewCharacterState(req.Name, req.Genre, base)
	if err := h.storage.SaveGame(r.Context(), cs.ID, cs); err != nil {
		h.logger.Error("Failed to save new game", "error", err)
		h.writeError(w, http.StatusInternalServerError, "Failed to create game")
		return
	}
	h.registry.Attach(cs)

	h.logger.Info("Created game session", "game_id", cs.ID, "name", cs.Name)
	w.WriteHeader(http.StatusCreated)
	h.writeJSON(w, GameResponse{State: cs})
}

// GameSummary is one row of the game listing: enough to pick a session
// to resume without shipping full histories.
type GameSummary struct {
	ID        uuid.UUID        `json:"id"`
	Name      string           `json:"name"`
	Genre     string           `json:"genre,omitempty"`
	HP        int              `json:"hp"`
	MaxHP     int              `json:"max_hp"`
	Turns     int              `json:"turns"`
	Status    state.GameStatus `json:"game_status"`
	UpdatedAt time.Time        `json:"updated_at"`
}

func (h *GameHandler) handleList(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.storage.ListGames(r.Context())
	if err != nil {
		h.logger.Error("Failed to list games", "error", err)
		h.writeError(w, http.StatusInternalServerError, "Failed to list games")
		return
	}

	summaries := make([]GameSummary, 0, len(sessions))
	for _, cs := range sessions {
		summaries = append(summaries, GameSummary{
			ID:        cs.ID,
			Name:      cs.Name,
			Genre:     cs.Genre,
			HP:        cs.HP,
			MaxHP:     cs.MaxHP,
			Turns:     len(cs.History),
			Status:    cs.GameStatus,
			UpdatedAt: cs.UpdatedAt,
		})
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].UpdatedAt.After(summaries[j].UpdatedAt)
	})
	h.writeJSON(w, summaries)
}

func (h *GameHandler) handleRead(w http.ResponseWriter, r *http.Request, gameID uuid.UUID) {
	c, status, msg := h.controller(r, gameID)
	if c == nil {
		h.writeError(w, status, msg)
		return
	}

	cs, err := c.State()
	if err != nil {
		h.logger.Error("Failed to snapshot game", "game_id", gameID, "error", err)
		h.writeError(w, http.StatusInternalServerError, "Failed to read game")
		return
	}
	h.writeJSON(w, GameResponse{State: cs, Choices: c.Choices()})
}

func (h *GameHandler) handleDelete(w http.ResponseWriter, r *http.Request, gameID uuid.UUID) {
	if err := h.storage.DeleteGame(r.Context(), gameID); err != nil {
		h.logger.Error("Failed to delete game", "game_id", gameID, "error", err)
		h.writeError(w, http.StatusInternalServerError, "Failed to delete game")
		return
	}
	h.registry.Remove(gameID)
	w.WriteHeader(http.StatusNoContent)
}

// controller resolves the live controller for a session, reviving it
// from storage if the process restarted since the session was created.
func (h *GameHandler) controller(r *http.Request, gameID uuid.UUID) (*engine.Controller, int, string) {
	if c := h.registry.Get(gameID); c != nil {
		return c, 0, ""
	}

	cs, err := h.storage.LoadGame(r.Context(), gameID)
	if err != nil {
		h.logger.Error("Failed to load game", "game_id", gameID, "error", err)
		return nil, http.StatusInternalServerError, "Failed to load game"
	}
	if cs == nil {
		return nil, http.StatusNotFound, "Game not found"
	}
	return h.registry.Attach(cs), 0, ""
}

func (h *GameHandler) writeError(w http.ResponseWriter, status int, msg string) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(ErrorResponse{Error: msg}); err != nil {
		h.logger.Error("Failed to encode error response", "error", err)
	}
}

func (h *GameHandler) writeJSON(w http.ResponseWriter, v interface{}) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("Failed to encode response", "error", err)
	}
}
