package state

import (
	"fmt"
	"strings"

	"github.com/questweaver/questweaver/pkg/stats"
)

// PromptState is a reduced character state for LLM prompts: just the
// mechanical facts the narrator needs, without history or bookkeeping.
type PromptState struct {
	Name          string            `json:"name,omitempty"`
	Genre         string            `json:"genre,omitempty"`
	HP            int               `json:"hp"`
	MaxHP         int               `json:"max_hp"`
	Stats         map[string]int    `json:"stats"`
	Inventory     []string          `json:"inventory,omitempty"`
	Equipment     map[string]string `json:"equipment,omitempty"`
	ActiveEffects []string          `json:"active_effects,omitempty"`
	NPCs          map[string]string `json:"npcs,omitempty"`
	CurrentQuest  string            `json:"current_quest,omitempty"`
}

// ToPromptState projects the character state for prompt building.
// Effective (not base) stats are reported; the narrator should see what
// the player can actually do.
func ToPromptState(cs *CharacterState) *PromptState {
	ps := &PromptState{
		Name:         cs.Name,
		Genre:        cs.Genre,
		HP:           cs.HP,
		MaxHP:        cs.MaxHP,
		Stats:        map[string]int{},
		CurrentQuest: cs.CurrentQuest,
	}
	eff := cs.EffectiveStats()
	for _, axis := range stats.All() {
		ps.Stats[string(axis)] = eff.Get(axis)
	}
	for _, it := range cs.Inventory {
		ps.Inventory = append(ps.Inventory, it.Name)
	}

	equipment := map[string]string{}
	for _, slot := range []Slot{SlotWeapon, SlotArmor, SlotAccessory} {
		if it := cs.Equipped.Get(slot); it != nil {
			equipment[string(slot)] = it.Name
		}
	}
	if len(equipment) > 0 {
		ps.Equipment = equipment
	}

	for _, e := range cs.ActiveEffects {
		ps.ActiveEffects = append(ps.ActiveEffects,
			fmt.Sprintf("%s (%s, %d turns left)", e.Name, e.Kind, e.Duration))
	}

	if len(cs.NPCs) > 0 {
		ps.NPCs = map[string]string{}
		for _, n := range cs.NPCs {
			ps.NPCs[n.Name] = fmt.Sprintf("%s, %s", n.Type, n.Condition)
		}
	}
	return ps
}

// Transcript formats the trailing history as a compact prompt
// transcript, annotating turns with their roll outcomes. At most
// TranscriptTurns entries are included.
func (cs *CharacterState) Transcript() string {
	history := cs.History
	if len(history) > TranscriptTurns {
		history = history[len(history)-TranscriptTurns:]
	}

	var sb strings.Builder
	for _, turn := range history {
		speaker := "DM"
		if turn.IsUser {
			speaker = "PLAYER"
		}
		sb.WriteString(speaker)
		sb.WriteString(": ")
		sb.WriteString(turn.Text)
		if turn.Roll != nil {
			outcome := "FAILURE"
			if turn.Roll.Success {
				outcome = "SUCCESS"
			}
			fmt.Fprintf(&sb, " [%s check: rolled %d vs DC %d - %s]",
				turn.Roll.Stat, turn.Roll.Total, turn.Roll.Difficulty, outcome)
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}
