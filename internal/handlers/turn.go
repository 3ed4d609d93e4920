package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/questweaver/questweaver/internal/engine"
	"github.com/questweaver/questweaver/pkg/chat"
	"github.com/questweaver/questweaver/pkg/state"
)

func (h *GameHandler) handleTurn(w http.ResponseWriter, r *http.Request, gameID uuid.UUID) {
	c, status, msg := h.controller(r, gameID)
	if c == nil {
		h.writeError(w, status, msg)
		return
	}

	var req chat.TurnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Invalid JSON in turn request", "error", err)
		h.writeError(w, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}
	if err := req.Validate(); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	action := strings.TrimSpace(req.Action)
	var choice *state.Choice
	if req.ChoiceIndex != nil {
		choices := c.Choices()
		if *req.ChoiceIndex >= len(choices) {
			h.writeError(w, http.StatusBadRequest, "choice_index out of range")
			return
		}
		picked := choices[*req.ChoiceIndex]
		choice = &picked
		action = picked.Text
	}

	ch, reqID, err := c.Submit(r.Context(), action, choice, req.Heroic)
	if err != nil {
		h.writeSubmitError(w, err)
		return
	}
	h.respondWithOutcome(w, gameID, reqID, <-ch)
}

func (h *GameHandler) handleCancel(w http.ResponseWriter, r *http.Request, gameID uuid.UUID) {
	c, status, msg := h.controller(r, gameID)
	if c == nil {
		h.writeError(w, status, msg)
		return
	}

	cancelled := c.Cancel()
	h.logger.Info("Cancel requested", "game_id", gameID, "cancelled", cancelled)
	h.writeJSON(w, map[string]bool{"cancelled": cancelled})
}

func (h *GameHandler) handleRetry(w http.ResponseWriter, r *http.Request, gameID uuid.UUID) {
	c, status, msg := h.controller(r, gameID)
	if c == nil {
		h.writeError(w, status, msg)
		return
	}

	ch, reqID, err := c.Retry(r.Context())
	if err != nil {
		h.writeSubmitError(w, err)
		return
	}
	h.respondWithOutcome(w, gameID, reqID, <-ch)
}

func (h *GameHandler) writeSubmitError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, engine.ErrGameOver), errors.Is(err, engine.ErrTurnInFlight):
		h.writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, engine.ErrHeroicBlocked), errors.Is(err, engine.ErrHeroicBudget),
		errors.Is(err, engine.ErrNoRetryTarget):
		h.writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (h *GameHandler) respondWithOutcome(w http.ResponseWriter, gameID uuid.UUID, reqID uint64, out engine.Outcome) {
	if out.Err != nil {
		if errors.Is(out.Err, engine.ErrSuperseded) {
			h.writeError(w, http.StatusConflict, "turn was cancelled or superseded")
			return
		}
		h.logger.Error("Turn resolution failed", "game_id", gameID, "request_id", reqID, "error", out.Err)
		h.writeError(w, http.StatusBadGateway, "narrator failed; retry the turn")
		return
	}

	resp := chat.TurnResponse{
		GameID:    gameID,
		RequestID: reqID,
		Narrative: out.Turn.Text,
		LevelUp:   out.Turn.LevelUp,
		Choices:   out.Turn.Choices,
		Status:    out.State.GameStatus,
		State:     state.ToPromptState(out.State),
	}
	// Roll and level-up annotations land on the player half of the turn.
	for i := len(out.State.History) - 1; i >= 0; i-- {
		if t := out.State.History[i]; t.IsUser {
			resp.Roll = t.Roll
			if resp.LevelUp == nil {
				resp.LevelUp = t.LevelUp
			}
			break
		}
	}

	h.writeJSON(w, resp)
}
