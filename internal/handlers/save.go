package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/questweaver/questweaver/pkg/save"
)

// maxSaveBytes bounds uploaded save files.
const maxSaveBytes = 4 << 20

func (h *GameHandler) handleSave(w http.ResponseWriter, r *http.Request, gameID uuid.UUID) {
	c, status, msg := h.controller(r, gameID)
	if c == nil {
		h.writeError(w, status, msg)
		return
	}

	cs, err := c.State()
	if err != nil {
		h.logger.Error("Failed to snapshot game for save", "game_id", gameID, "error", err)
		h.writeError(w, http.StatusInternalServerError, "Failed to build save file")
		return
	}

	data, err := save.New(cs, c.Choices(), nil).Marshal()
	if err != nil {
		h.logger.Error("Failed to marshal save file", "game_id", gameID, "error", err)
		h.writeError(w, http.StatusInternalServerError, "Failed to build save file")
		return
	}

	w.Header().Set("Content-Disposition", `attachment; filename="`+gameID.String()+`.json"`)
	if _, err := w.Write(data); err != nil {
		h.logger.Error("Failed to write save file", "game_id", gameID, "error", err)
	}
}

func (h *GameHandler) handleLoad(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxSaveBytes))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Failed to read save file")
		return
	}

	env, err := save.Load(data)
	if err != nil {
		// Validation failures leave any existing session untouched.
		h.logger.Warn("Rejected save file", "error", err)
		if errors.Is(err, save.ErrMissingGameState) || errors.Is(err, save.ErrMissingChoices) {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.writeError(w, http.StatusBadRequest, "Save file is not valid")
		return
	}

	cs := env.GameState
	if cs.ID == uuid.Nil {
		cs.ID = uuid.New()
	}

	// Re-attach the pending choices to the latest AI turn so the
	// restored session offers them again.
	if len(env.CurrentChoices) > 0 {
		for i := len(cs.History) - 1; i >= 0; i-- {
			if !cs.History[i].IsUser {
				if len(cs.History[i].Choices) == 0 {
					cs.History[i].Choices = env.CurrentChoices
				}
				break
			}
		}
	}

	if err := h.storage.SaveGame(r.Context(), cs.ID, cs); err != nil {
		h.logger.Error("Failed to persist loaded game", "game_id", cs.ID, "error", err)
		h.writeError(w, http.StatusInternalServerError, "Failed to store loaded game")
		return
	}
	c := h.registry.Attach(cs)

	h.logger.Info("Restored game session from save", "game_id", cs.ID, "history", len(cs.History))
	w.WriteHeader(http.StatusCreated)
	h.writeJSON(w, GameResponse{State: cs, Choices: c.Choices()})
}

func (h *GameHandler) handleExport(w http.ResponseWriter, r *http.Request, gameID uuid.UUID) {
	c, status, msg := h.controller(r, gameID)
	if c == nil {
		h.writeError(w, status, msg)
		return
	}

	cs, err := c.State()
	if err != nil {
		h.logger.Error("Failed to snapshot game for export", "game_id", gameID, "error", err)
		h.writeError(w, http.StatusInternalServerError, "Failed to build export")
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if _, err := io.WriteString(w, save.ExportLog(cs)); err != nil {
		h.logger.Error("Failed to write export", "game_id", gameID, "error", err)
	}
}
