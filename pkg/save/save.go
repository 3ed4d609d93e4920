// Package save handles the portable save-file envelope and the plain
// text adventure log export.
package save

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/questweaver/questweaver/pkg/state"
)

// Version is written into every envelope so future loaders can migrate
// older shapes.
const Version = "1.0"

var (
	ErrMissingGameState = errors.New("save file is missing game_state")
	ErrMissingChoices   = errors.New("save file is missing current_choices")
)

// Envelope is the on-disk save shape. CurrentChoices is stored outside
// the game state so a restored session can re-offer the pending choices
// without replaying a turn.
type Envelope struct {
	GameState      *state.CharacterState `json:"game_state"`
	CurrentChoices []state.Choice        `json:"current_choices"`
	Settings       map[string]string     `json:"settings,omitempty"`
	StoryboardImg  string                `json:"storyboard_image,omitempty"`
	Timestamp      time.Time             `json:"timestamp"`
	Version        string                `json:"version"`
}

// New wraps a state and its pending choices into a versioned envelope.
func New(cs *state.CharacterState, choices []state.Choice, settings map[string]string) *Envelope {
	if choices == nil {
		choices = []state.Choice{}
	}
	return &Envelope{
		GameState:      cs,
		CurrentChoices: choices,
		Settings:       settings,
		Timestamp:      time.Now().UTC(),
		Version:        Version,
	}
}

// Marshal serializes the envelope.
func (e *Envelope) Marshal() ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal save envelope: %w", err)
	}
	return data, nil
}

// Load parses and validates a save file. Validation failures return
// sentinel errors and no partial state: callers keep whatever session
// they had. Absent npcs are backfilled as an empty list and an optional
// storyboard image reference passes through untouched.
func Load(data []byte) (*Envelope, error) {
	// Presence-check the required keys before decoding so an explicit
	// null and an absent key are rejected the same way.
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("save file is not valid JSON: %w", err)
	}
	if raw, ok := probe["game_state"]; !ok || isJSONNull(raw) {
		return nil, ErrMissingGameState
	}
	if raw, ok := probe["current_choices"]; !ok || isJSONNull(raw) {
		return nil, ErrMissingChoices
	}

	var e Envelope
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("failed to parse save file: %w", err)
	}
	if e.GameState == nil {
		return nil, ErrMissingGameState
	}
	if e.GameState.NPCs == nil {
		e.GameState.NPCs = []state.NPC{}
	}
	return &e, nil
}

func isJSONNull(raw json.RawMessage) bool {
	return string(raw) == "null"
}
