package state

import (
	"github.com/questweaver/questweaver/pkg/dice"
	"github.com/questweaver/questweaver/pkg/stats"
)

// TurnDelta is the canonical, validated representation of one AI
// response's mechanical consequences. It is the only thing the
// Reconciler accepts; raw model output never crosses that boundary.
type TurnDelta struct {
	Narrative string        `json:"narrative"`
	Choices   []ChoiceDelta `json:"choices,omitempty"`

	HPChange    int        `json:"hp_change,omitempty"`
	GameStatus  GameStatus `json:"game_status,omitempty"`
	QuestUpdate string     `json:"quest_update,omitempty"`

	ItemsAdded   []ItemGrant `json:"inventory_added,omitempty"`
	ItemsRemoved []string    `json:"inventory_removed,omitempty"`
	Equip        []string    `json:"equip,omitempty"`
	Unequip      []string    `json:"unequip,omitempty"`

	StatsUpdate stats.Block   `json:"stats_update,omitempty"`
	NewEffects  []EffectGrant `json:"new_effects,omitempty"`

	NPCsAdded   []NPCDirective `json:"npcs_added,omitempty"`
	NPCsUpdated []NPCDirective `json:"npcs_updated,omitempty"`
	NPCsRemoved []string       `json:"npcs_removed,omitempty"`

	// ActionResult carries the AI's self-reported roll resolution for a
	// freeform heroic action. Trusted as-is; the client cannot validate
	// the arithmetic.
	ActionResult *ActionResult `json:"action_result,omitempty"`
}

// ChoiceDelta is one proposed narrative option from the AI.
type ChoiceDelta struct {
	Text       string     `json:"text"`
	Stat       stats.Type `json:"stat,omitempty"`
	Difficulty int        `json:"difficulty,omitempty"`
}

// ItemGrant names an item the AI awarded. Type and bonuses are optional;
// absent values are filled by the item classifier during intake.
type ItemGrant struct {
	Name        string      `json:"name"`
	Type        string      `json:"type,omitempty"`
	Description string      `json:"description,omitempty"`
	Bonuses     stats.Block `json:"bonuses,omitempty"`
}

// EffectGrant is a status effect the AI applied.
type EffectGrant struct {
	Name          string      `json:"name"`
	Kind          EffectKind  `json:"kind"`
	Duration      int         `json:"duration"`
	Modifiers     stats.Block `json:"stat_modifiers,omitempty"`
	BlocksHeroics bool        `json:"blocks_heroic_actions,omitempty"`
}

// NPCDirective adds or patches an NPC by name.
type NPCDirective struct {
	Name        string       `json:"name"`
	Type        NPCType      `json:"type,omitempty"`
	Condition   NPCCondition `json:"condition,omitempty"`
	Description string       `json:"description,omitempty"`
}

// ActionResult is the AI's resolution of a heroic action's check.
type ActionResult struct {
	Stat       stats.Type `json:"stat,omitempty"`
	Roll       int        `json:"roll"`
	Modifier   int        `json:"modifier"`
	Total      int        `json:"total"`
	Difficulty int        `json:"difficulty"`
	Success    bool       `json:"success"`
}

// ToRollResult converts the AI-reported numbers into a roll record.
func (a *ActionResult) ToRollResult() *dice.RollResult {
	return &dice.RollResult{
		Base:       a.Roll,
		Modifier:   a.Modifier,
		Total:      a.Total,
		Difficulty: a.Difficulty,
		Success:    a.Success,
		Stat:       a.Stat,
	}
}

// IsEmpty reports whether the delta carries no mechanical change.
func (d *TurnDelta) IsEmpty() bool {
	return d == nil || (d.HPChange == 0 &&
		(d.GameStatus == "" || d.GameStatus == StatusOngoing) &&
		d.QuestUpdate == "" &&
		len(d.ItemsAdded) == 0 &&
		len(d.ItemsRemoved) == 0 &&
		len(d.Equip) == 0 &&
		len(d.Unequip) == 0 &&
		d.StatsUpdate.IsZero() &&
		len(d.NewEffects) == 0 &&
		len(d.NPCsAdded) == 0 &&
		len(d.NPCsUpdated) == 0 &&
		len(d.NPCsRemoved) == 0 &&
		d.ActionResult == nil)
}
