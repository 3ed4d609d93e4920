package state

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/questweaver/questweaver/pkg/dice"
	"github.com/questweaver/questweaver/pkg/item"
	"github.com/questweaver/questweaver/pkg/stats"
)

const (
	// BaseHP is max HP at a Constitution modifier of zero.
	BaseHP = 100

	// InventoryCap is the hard limit on unequipped bag contents.
	// Items past the cap are dropped in addition order.
	InventoryCap = 8

	// ExpThreshold is the per-axis experience count that triggers a
	// level-up. The counter resets to zero on trigger.
	ExpThreshold = 3

	// CustomActionBudget is the number of freeform heroic actions a
	// player may take per game. Never replenished.
	CustomActionBudget = 3

	// TranscriptTurns is how many trailing history entries are included
	// in the prompt transcript for a turn request.
	TranscriptTurns = 5
)

// GameStatus is the lifecycle phase of a game session. Once a game
// leaves StatusOngoing it never returns.
type GameStatus string

const (
	StatusOngoing GameStatus = "ongoing"
	StatusWon     GameStatus = "won"
	StatusLost    GameStatus = "lost"
)

// ParseGameStatus coerces a wire value to a known status. Unrecognized
// input resolves to StatusOngoing, the safe default.
func ParseGameStatus(s string) GameStatus {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "won", "win", "victory":
		return StatusWon
	case "lost", "lose", "dead", "defeat":
		return StatusLost
	default:
		return StatusOngoing
	}
}

// Terminal reports whether the status ends gameplay.
func (s GameStatus) Terminal() bool {
	return s == StatusWon || s == StatusLost
}

// NPCType is an NPC's disposition toward the player.
type NPCType string

const (
	NPCFriendly NPCType = "friendly"
	NPCHostile  NPCType = "hostile"
	NPCNeutral  NPCType = "neutral"
	NPCUnknown  NPCType = "unknown"
)

func ParseNPCType(s string) NPCType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "friendly":
		return NPCFriendly
	case "hostile":
		return NPCHostile
	case "neutral":
		return NPCNeutral
	default:
		return NPCUnknown
	}
}

// NPCCondition is an NPC's physical state.
type NPCCondition string

const (
	ConditionHealthy NPCCondition = "healthy"
	ConditionInjured NPCCondition = "injured"
	ConditionDying   NPCCondition = "dying"
	ConditionDead    NPCCondition = "dead"
	ConditionUnknown NPCCondition = "unknown"
)

func ParseNPCCondition(s string) NPCCondition {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "healthy":
		return ConditionHealthy
	case "injured", "wounded", "hurt":
		return ConditionInjured
	case "dying":
		return ConditionDying
	case "dead":
		return ConditionDead
	default:
		return ConditionUnknown
	}
}

// NPC is a non-player character known to the session. NPCs are matched
// by name, case-insensitively.
type NPC struct {
	ID          uuid.UUID    `json:"id"`
	Name        string       `json:"name"`
	Type        NPCType      `json:"type"`
	Condition   NPCCondition `json:"condition"`
	Description string       `json:"description,omitempty"`
}

// EffectKind distinguishes beneficial from harmful status effects.
type EffectKind string

const (
	EffectBuff   EffectKind = "buff"
	EffectDebuff EffectKind = "debuff"
)

func ParseEffectKind(s string) EffectKind {
	if strings.EqualFold(strings.TrimSpace(s), "buff") {
		return EffectBuff
	}
	return EffectDebuff
}

// StatusEffect is an ephemeral modifier on the character. Duration is
// counted in turns and decremented when a turn is issued; effects at
// zero are dropped.
type StatusEffect struct {
	ID            uuid.UUID   `json:"id"`
	Name          string      `json:"name"`
	Kind          EffectKind  `json:"kind"`
	Duration      int         `json:"duration"`
	Modifiers     stats.Block `json:"stat_modifiers,omitempty"`
	BlocksHeroics bool        `json:"blocks_heroic_actions,omitempty"`
}

// Slot is an equipment slot. Each slot holds at most one item and only
// accepts items of the matching type.
type Slot string

const (
	SlotWeapon    Slot = "weapon"
	SlotArmor     Slot = "armor"
	SlotAccessory Slot = "accessory"
)

// SlotFor maps an item type to its equip slot. Misc items are not
// equippable.
func SlotFor(t item.Type) (Slot, bool) {
	switch t {
	case item.TypeWeapon:
		return SlotWeapon, true
	case item.TypeArmor:
		return SlotArmor, true
	case item.TypeAccessory:
		return SlotAccessory, true
	default:
		return "", false
	}
}

// Equipped holds the three equipment slots. An item here must never
// also appear in the inventory.
type Equipped struct {
	Weapon    *item.Item `json:"weapon,omitempty"`
	Armor     *item.Item `json:"armor,omitempty"`
	Accessory *item.Item `json:"accessory,omitempty"`
}

// Get returns the occupant of a slot, nil if empty.
func (e *Equipped) Get(s Slot) *item.Item {
	switch s {
	case SlotWeapon:
		return e.Weapon
	case SlotArmor:
		return e.Armor
	case SlotAccessory:
		return e.Accessory
	}
	return nil
}

// Set replaces the occupant of a slot, returning the displaced item.
func (e *Equipped) Set(s Slot, it *item.Item) *item.Item {
	var prev *item.Item
	switch s {
	case SlotWeapon:
		prev, e.Weapon = e.Weapon, it
	case SlotArmor:
		prev, e.Armor = e.Armor, it
	case SlotAccessory:
		prev, e.Accessory = e.Accessory, it
	}
	return prev
}

// Items returns the occupied slots in weapon/armor/accessory order.
func (e *Equipped) Items() []*item.Item {
	var out []*item.Item
	for _, it := range []*item.Item{e.Weapon, e.Armor, e.Accessory} {
		if it != nil {
			out = append(out, it)
		}
	}
	return out
}

// Choice is one narrative option offered to the player. A zero Stat
// means the choice needs no check.
type Choice struct {
	Text       string     `json:"text"`
	Stat       stats.Type `json:"stat,omitempty"`
	Difficulty int        `json:"difficulty,omitempty"`
}

// LevelUpEvent records a base-stat increase from accumulated check
// experience.
type LevelUpEvent struct {
	Stat     stats.Type `json:"stat"`
	OldValue int        `json:"old_value"`
	NewValue int        `json:"new_value"`
}

// StoryTurn is one entry of the game's durable log. Immutable once
// appended, except that roll resolution may annotate the most recent
// user turn before the matching AI turn lands.
type StoryTurn struct {
	ID             uuid.UUID        `json:"id"`
	Text           string           `json:"text"`
	IsUser         bool             `json:"is_user"`
	Roll           *dice.RollResult `json:"roll_result,omitempty"`
	LevelUp        *LevelUpEvent    `json:"level_up,omitempty"`
	Choices        []Choice         `json:"choices,omitempty"`
	ItemsAdded     []string         `json:"items_added,omitempty"`
	ItemsRemoved   []string         `json:"items_removed,omitempty"`
	EffectsAdded   []string         `json:"effects_added,omitempty"`
	NPCChanges     []string         `json:"npc_changes,omitempty"`
	StatsUpdated   stats.Block      `json:"stats_updated,omitempty"`
	QuestUpdate    string           `json:"quest_update,omitempty"`
	HeroicResolved bool             `json:"heroic_resolved,omitempty"`
}

// CharacterState is the root aggregate for one game session. It is
// mutated only by the Reconciler and, for turn issuance bookkeeping,
// the lifecycle controller.
type CharacterState struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Genre string    `json:"genre,omitempty"`

	BaseStats      stats.Block `json:"base_stats"`
	StartingStats  stats.Block `json:"starting_stats"`
	StatExperience stats.Block `json:"stat_experience,omitempty"`

	HP        int   `json:"hp"`
	MaxHP     int   `json:"max_hp"`
	HPHistory []int `json:"hp_history,omitempty"`

	Inventory []item.Item `json:"inventory,omitempty"`
	Equipped  Equipped    `json:"equipped"`

	ActiveEffects []StatusEffect `json:"active_effects,omitempty"`
	NPCs          []NPC          `json:"npcs,omitempty"`

	CurrentQuest           string     `json:"current_quest,omitempty"`
	CustomActionsRemaining int        `json:"custom_actions_remaining"`
	GameStatus             GameStatus `json:"game_status"`

	History []StoryTurn `json:"history,omitempty"`

	// FinalSummary is the AI epilogue written when the game ends.
	FinalSummary string `json:"final_summary,omitempty"`

	CreatedAt time.Time `json:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// NewCharacterState creates a fresh session. Zero-valued axes in base
// default to 10.
func NewCharacterState(name, genre string, base stats.Block) *CharacterState {
	full := stats.NewBlock(10)
	for axis, v := range base {
		if v >= 1 {
			full[axis] = v
		}
	}

	cs := &CharacterState{
		ID:                     uuid.New(),
		Name:                   name,
		Genre:                  genre,
		BaseStats:              full,
		StartingStats:          full.Clone(),
		StatExperience:         stats.Block{},
		CustomActionsRemaining: CustomActionBudget,
		GameStatus:             StatusOngoing,
		CreatedAt:              time.Now().UTC(),
	}
	cs.MaxHP = MaxHPFor(cs.EffectiveStats().Get(stats.Constitution))
	cs.HP = cs.MaxHP
	return cs
}

// DeepCopy returns an independent copy of the state via a JSON
// round-trip.
func (cs *CharacterState) DeepCopy() (*CharacterState, error) {
	data, err := json.Marshal(cs)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal character state: %w", err)
	}
	var out CharacterState
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to unmarshal character state: %w", err)
	}
	return &out, nil
}

// findInventory returns the index of the first inventory item matching
// name case-insensitively, or -1.
func (cs *CharacterState) findInventory(name string) int {
	for i, it := range cs.Inventory {
		if it.NameEquals(name) {
			return i
		}
	}
	return -1
}

// findNPC returns the index of the first NPC matching name
// case-insensitively, or -1.
func (cs *CharacterState) findNPC(name string) int {
	for i, n := range cs.NPCs {
		if strings.EqualFold(n.Name, name) {
			return i
		}
	}
	return -1
}

// lastUserTurn returns a pointer to the most recent user entry in
// history, nil if there is none. Used to annotate roll outcomes.
func (cs *CharacterState) lastUserTurn() *StoryTurn {
	for i := len(cs.History) - 1; i >= 0; i-- {
		if cs.History[i].IsUser {
			return &cs.History[i]
		}
	}
	return nil
}

// LatestChoices returns the choice list from the most recent AI turn.
func (cs *CharacterState) LatestChoices() []Choice {
	for i := len(cs.History) - 1; i >= 0; i-- {
		if !cs.History[i].IsUser {
			return cs.History[i].Choices
		}
	}
	return nil
}

// HeroicsBlocked reports whether any active effect forbids freeform
// heroic actions this turn.
func (cs *CharacterState) HeroicsBlocked() bool {
	for _, e := range cs.ActiveEffects {
		if e.BlocksHeroics {
			return true
		}
	}
	return false
}

// DecrementedEffects returns a copy of the active effects with every
// duration reduced by one and expired entries dropped. This is the
// snapshot taken at turn issuance; the live state is not touched.
func (cs *CharacterState) DecrementedEffects() []StatusEffect {
	out := make([]StatusEffect, 0, len(cs.ActiveEffects))
	for _, e := range cs.ActiveEffects {
		e.Duration--
		if e.Duration <= 0 {
			continue
		}
		if e.Modifiers != nil {
			e.Modifiers = e.Modifiers.Clone()
		}
		out = append(out, e)
	}
	return out
}
