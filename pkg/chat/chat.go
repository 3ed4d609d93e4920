package chat

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/questweaver/questweaver/pkg/dice"
	"github.com/questweaver/questweaver/pkg/state"
)

// TurnRequest is a player action submitted to the turn endpoint. The
// player either picks one of the offered choices by index or types a
// custom action.
type TurnRequest struct {
	GameID      uuid.UUID `json:"game_id"`
	Action      string    `json:"action,omitempty"`
	ChoiceIndex *int      `json:"choice_index,omitempty"`
	Heroic      bool      `json:"heroic,omitempty"`
}

// TurnResponse is returned once the AI half of a turn has resolved.
type TurnResponse struct {
	GameID    uuid.UUID           `json:"game_id"`
	RequestID uint64              `json:"request_id"`
	Narrative string              `json:"narrative,omitempty"`
	Roll      *dice.RollResult    `json:"roll,omitempty"`
	LevelUp   *state.LevelUpEvent `json:"level_up,omitempty"`
	Choices   []state.Choice      `json:"choices,omitempty"`
	State     *state.PromptState  `json:"state,omitempty"`
	Status    state.GameStatus    `json:"game_status"`
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Message is a single entry in the conversation sent to the LLM. The
// shape matches what both the Anthropic and Ollama chat APIs accept.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func (tr *TurnRequest) Validate() error {
	if tr.ChoiceIndex == nil && strings.TrimSpace(tr.Action) == "" {
		return fmt.Errorf("action or choice_index is required")
	}
	if tr.ChoiceIndex != nil && *tr.ChoiceIndex < 0 {
		return fmt.Errorf("choice_index cannot be negative")
	}
	return nil
}
