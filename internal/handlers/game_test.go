package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/questweaver/questweaver/internal/engine"
	"github.com/questweaver/questweaver/internal/services"
	"github.com/questweaver/questweaver/internal/storage"
	"github.com/questweaver/questweaver/pkg/chat"
	"github.com/questweaver/questweaver/pkg/state"
)

func newTestHandler(mock *services.MockLLM) (*GameHandler, *storage.MockStorage) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelError, // Reduce noise in tests
	}))
	store := storage.NewMockStorage()
	registry := engine.NewRegistry(mock, store, state.WireStructured, logger)
	return NewGameHandler(registry, store, logger), store
}

func createGame(t *testing.T, h *GameHandler, body string) GameResponse {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/game", strings.NewReader(body))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var resp GameResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	return resp
}

func TestGameHandler_Create(t *testing.T) {
	h, store := newTestHandler(services.NewMockLLM())

	resp := createGame(t, h, `{"name":"Korga","genre":"fantasy","stats":{"CON":14,"STR":12}}`)

	require.NotNil(t, resp.State)
	assert.NotEqual(t, uuid.Nil, resp.State.ID)
	assert.Equal(t, "Korga", resp.State.Name)
	// CON 14 -> modifier +2 -> max HP 120.
	assert.Equal(t, 120, resp.State.MaxHP)
	assert.Equal(t, resp.State.MaxHP, resp.State.HP)

	saved, err := store.LoadGame(t.Context(), resp.State.ID)
	require.NoError(t, err)
	require.NotNil(t, saved, "created game must be persisted")
}

func TestGameHandler_CreateValidation(t *testing.T) {
	h, _ := newTestHandler(services.NewMockLLM())

	tests := []struct {
		name string
		body string
	}{
		{"missing name", `{"genre":"fantasy"}`},
		{"unknown stat", `{"name":"Korga","stats":{"WIS":12}}`},
		{"bad json", `{"name":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/v1/game", strings.NewReader(tt.body))
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)
			assert.Equal(t, http.StatusBadRequest, rr.Code)
		})
	}
}

func TestGameHandler_ReadAndNotFound(t *testing.T) {
	h, _ := newTestHandler(services.NewMockLLM())
	created := createGame(t, h, `{"name":"Korga"}`)

	req := httptest.NewRequest(http.MethodGet, "/v1/game/"+created.State.ID.String(), nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp GameResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, created.State.ID, resp.State.ID)

	req = httptest.NewRequest(http.MethodGet, "/v1/game/"+uuid.NewString(), nil)
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	req = httptest.NewRequest(http.MethodGet, "/v1/game/not-a-uuid", nil)
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestGameHandler_TurnFlow(t *testing.T) {
	mock := services.NewMockLLM()
	mock.Responses = []string{`{
		"narrative": "The gate creaks open.",
		"hp_change": -3,
		"choices": [{"text": "Step inside", "stat": "PER", "difficulty": 9}]
	}`}
	h, _ := newTestHandler(mock)
	created := createGame(t, h, `{"name":"Korga"}`)

	body := `{"action":"Push the gate"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/game/"+created.State.ID.String()+"/turn", strings.NewReader(body))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp chat.TurnResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "The gate creaks open.", resp.Narrative)
	assert.Equal(t, state.StatusOngoing, resp.Status)
	require.NotNil(t, resp.State)
	assert.Equal(t, created.State.MaxHP-3, resp.State.HP)
	require.Len(t, resp.Choices, 1)

	// Choice by index on the follow-up turn.
	mock.Responses = append(mock.Responses, `{"narrative": "You step through."}`)
	req = httptest.NewRequest(http.MethodPost, "/v1/game/"+created.State.ID.String()+"/turn",
		strings.NewReader(`{"choice_index":0}`))
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	require.NotNil(t, resp.Roll, "list choice with a stat must carry a precomputed roll")
	assert.Equal(t, 9, resp.Roll.Difficulty)
}

func TestGameHandler_TurnValidation(t *testing.T) {
	h, _ := newTestHandler(services.NewMockLLM())
	created := createGame(t, h, `{"name":"Korga"}`)
	turnURL := "/v1/game/" + created.State.ID.String() + "/turn"

	for name, body := range map[string]string{
		"empty action":       `{"action":"  "}`,
		"index out of range": `{"choice_index":5}`,
	} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, turnURL, strings.NewReader(body))
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)
			assert.Equal(t, http.StatusBadRequest, rr.Code, rr.Body.String())
		})
	}
}

func TestGameHandler_CancelWithoutTurn(t *testing.T) {
	h, _ := newTestHandler(services.NewMockLLM())
	created := createGame(t, h, `{"name":"Korga"}`)

	req := httptest.NewRequest(http.MethodPost, "/v1/game/"+created.State.ID.String()+"/cancel", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp map[string]bool
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.False(t, resp["cancelled"])
}

func TestGameHandler_SaveAndLoadRoundTrip(t *testing.T) {
	mock := services.NewMockLLM()
	mock.Responses = []string{`{"narrative": "Onward.", "choices": [{"text": "North"}, {"text": "South"}]}`}
	h, _ := newTestHandler(mock)
	created := createGame(t, h, `{"name":"Korga"}`)
	id := created.State.ID.String()

	req := httptest.NewRequest(http.MethodPost, "/v1/game/"+id+"/turn", strings.NewReader(`{"action":"march"}`))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	req = httptest.NewRequest(http.MethodGet, "/v1/game/"+id+"/save", nil)
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Disposition"), "attachment")
	saveData := rr.Body.String()

	// Restore into a fresh handler, as after a process restart.
	h2, _ := newTestHandler(services.NewMockLLM())
	req = httptest.NewRequest(http.MethodPost, "/v1/game/load", strings.NewReader(saveData))
	rr = httptest.NewRecorder()
	h2.ServeHTTP(rr, req)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var resp GameResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, created.State.ID, resp.State.ID)
	assert.Len(t, resp.State.History, 2)
	require.Len(t, resp.Choices, 2)
	assert.Equal(t, "North", resp.Choices[0].Text)
}

func TestGameHandler_LoadRejectsInvalidSave(t *testing.T) {
	h, _ := newTestHandler(services.NewMockLLM())

	req := httptest.NewRequest(http.MethodPost, "/v1/game/load", strings.NewReader(`{"current_choices":[]}`))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	require.Equal(t, http.StatusBadRequest, rr.Code)

	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Contains(t, resp.Error, "game_state")
}

func TestGameHandler_Export(t *testing.T) {
	mock := services.NewMockLLM()
	mock.Responses = []string{`{"narrative": "A crow watches you pass."}`}
	h, _ := newTestHandler(mock)
	created := createGame(t, h, `{"name":"Korga"}`)
	id := created.State.ID.String()

	req := httptest.NewRequest(http.MethodPost, "/v1/game/"+id+"/turn", strings.NewReader(`{"action":"walk the road"}`))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	req = httptest.NewRequest(http.MethodGet, "/v1/game/"+id+"/export", nil)
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "text/plain")
	assert.Contains(t, rr.Body.String(), "> USER: walk the road")
	assert.Contains(t, rr.Body.String(), "DM: A crow watches you pass.")
}

func TestGameHandler_Delete(t *testing.T) {
	h, store := newTestHandler(services.NewMockLLM())
	created := createGame(t, h, `{"name":"Korga"}`)

	req := httptest.NewRequest(http.MethodDelete, "/v1/game/"+created.State.ID.String(), nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	require.Equal(t, http.StatusNoContent, rr.Code)

	saved, err := store.LoadGame(t.Context(), created.State.ID)
	require.NoError(t, err)
	assert.Nil(t, saved)
}

func TestGameHandler_List(t *testing.T) {
	h, _ := newTestHandler(services.NewMockLLM())

	first := createGame(t, h, `{"name":"Korga","genre":"fantasy"}`)
	createGame(t, h, `{"name":"Vex","genre":"noir"}`)

	req := httptest.NewRequest(http.MethodGet, "/v1/game", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var summaries []GameSummary
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&summaries))
	require.Len(t, summaries, 2)

	names := []string{summaries[0].Name, summaries[1].Name}
	assert.ElementsMatch(t, []string{"Korga", "Vex"}, names)
	for _, s := range summaries {
		assert.Equal(t, state.StatusOngoing, s.Status)
		assert.Equal(t, s.MaxHP, s.HP)
		assert.Zero(t, s.Turns)
	}
	assert.Contains(t, names, first.State.Name)
}
