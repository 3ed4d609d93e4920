package state

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/questweaver/questweaver/pkg/dice"
	"github.com/questweaver/questweaver/pkg/item"
	"github.com/questweaver/questweaver/pkg/stats"
)

// Per-event base-stat swings are bounded; the resulting value is not.
const (
	statDeltaMin = -2
	statDeltaMax = 5
)

// RollContext tells the reconciler how the turn's check was resolved.
// Roll carries a client-resolved standard check; Heroic means the
// AI-reported action_result in the delta is authoritative.
type RollContext struct {
	Roll   *dice.RollResult
	Heroic bool
}

// Reconciler merges one TurnDelta into a CharacterState. It applies its
// steps in a fixed order, tolerates any absent lookup target, and is
// total over any syntactically valid delta: Apply never fails, it only
// logs what it had to ignore.
type Reconciler struct {
	cs     *CharacterState
	delta  *TurnDelta
	roll   *RollContext
	logger *slog.Logger
	newID  func() uuid.UUID
}

// NewReconciler creates a reconciler for one turn.
func NewReconciler(cs *CharacterState, delta *TurnDelta, logger *slog.Logger) *Reconciler {
	return &Reconciler{
		cs:     cs,
		delta:  delta,
		logger: logger,
		newID:  uuid.New,
	}
}

// WithRollContext attaches the turn's check resolution.
// Returns the Reconciler for method chaining.
func (r *Reconciler) WithRollContext(rc *RollContext) *Reconciler {
	r.roll = rc
	return r
}

// WithIDFunc overrides entity id generation for deterministic tests.
func (r *Reconciler) WithIDFunc(fn func() uuid.UUID) *Reconciler {
	r.newID = fn
	return r
}

// Apply merges the delta into the state and appends the resulting
// story turn to history. The returned turn records every delta
// category actually applied.
func (r *Reconciler) Apply() *StoryTurn {
	cs := r.cs
	d := r.delta
	if d == nil {
		d = &TurnDelta{GameStatus: StatusOngoing}
	}

	turn := &StoryTurn{
		ID:   r.newID(),
		Text: d.Narrative,
	}

	r.applyItemIntake(d, turn)
	r.applyItemRemovals(d, turn)
	r.enforceCapacity()
	r.applyUnequips(d)
	r.applyEquips(d)
	hpForcedLoss := r.applyHP(d)
	r.applyStatus(d, hpForcedLoss)
	r.applyStatUpdates(d, turn)
	r.applyEffects(d, turn)
	r.applyNPCs(d, turn)
	r.applyRollOutcome(d, turn)

	if d.QuestUpdate != "" {
		cs.CurrentQuest = d.QuestUpdate
		turn.QuestUpdate = d.QuestUpdate
	}
	for _, c := range d.Choices {
		turn.Choices = append(turn.Choices, Choice{Text: c.Text, Stat: c.Stat, Difficulty: c.Difficulty})
	}

	cs.HPHistory = append(cs.HPHistory, cs.HP)
	cs.History = append(cs.History, *turn)
	return turn
}

// applyItemIntake materializes awarded item names into inventory items,
// filling missing type and bonuses from the keyword classifier.
func (r *Reconciler) applyItemIntake(d *TurnDelta, turn *StoryTurn) {
	for _, g := range d.ItemsAdded {
		if isNone(g.Name) {
			continue
		}

		it := item.Item{
			ID:          r.newID(),
			Name:        item.CanonicalName(g.Name),
			Description: g.Description,
			Bonuses:     g.Bonuses,
		}
		cls := item.Classify(g.Name)
		if g.Type != "" {
			it.Type = item.ParseType(g.Type)
		} else {
			it.Type = cls.Type
		}
		if it.Bonuses == nil {
			it.Bonuses = cls.Bonuses
		}

		r.cs.Inventory = append(r.cs.Inventory, it)
		turn.ItemsAdded = append(turn.ItemsAdded, it.Name)
	}
}

// applyItemRemovals removes items by case-insensitive name match from
// the inventory, and independently clears any equipped slot whose
// occupant matches. Unmatched names are no-ops.
func (r *Reconciler) applyItemRemovals(d *TurnDelta, turn *StoryTurn) {
	for _, name := range d.ItemsRemoved {
		if isNone(name) {
			continue
		}

		removed := false
		kept := r.cs.Inventory[:0]
		for _, it := range r.cs.Inventory {
			if it.NameEquals(name) {
				removed = true
				continue
			}
			kept = append(kept, it)
		}
		r.cs.Inventory = kept

		for _, slot := range []Slot{SlotWeapon, SlotArmor, SlotAccessory} {
			if occ := r.cs.Equipped.Get(slot); occ != nil && occ.NameEquals(name) {
				r.cs.Equipped.Set(slot, nil)
				removed = true
			}
		}

		if removed {
			turn.ItemsRemoved = append(turn.ItemsRemoved, item.CanonicalName(name))
		} else if r.logger != nil {
			r.logger.Warn("Removal target not owned, ignoring", "item", name)
		}
	}
	if removedEquipAffectsCON(turn) {
		r.cs.RecalcMaxHP()
	}
}

// removedEquipAffectsCON is a cheap check: any removal may have cleared
// CON-granting gear, so recompute when anything was removed.
func removedEquipAffectsCON(turn *StoryTurn) bool {
	return len(turn.ItemsRemoved) > 0
}

// enforceCapacity truncates the bag to the first InventoryCap entries
// in addition order. The overflow is dropped, by policy, not shuffled.
func (r *Reconciler) enforceCapacity() {
	if len(r.cs.Inventory) <= InventoryCap {
		return
	}
	dropped := make([]string, 0, len(r.cs.Inventory)-InventoryCap)
	for _, it := range r.cs.Inventory[InventoryCap:] {
		dropped = append(dropped, it.Name)
	}
	if r.logger != nil {
		r.logger.Warn("Inventory over capacity, dropping overflow",
			"cap", InventoryCap,
			"dropped", dropped)
	}
	r.cs.Inventory = append([]item.Item(nil), r.cs.Inventory[:InventoryCap]...)
}

// applyUnequips moves slot occupants back to the bag. Unequipping into
// a full bag is an invariant-violation attempt and no-ops.
func (r *Reconciler) applyUnequips(d *TurnDelta) {
	changed := false
	for _, name := range d.Unequip {
		if isNone(name) {
			continue
		}
		for _, slot := range []Slot{SlotWeapon, SlotArmor, SlotAccessory} {
			occ := r.cs.Equipped.Get(slot)
			if occ == nil || !occ.NameEquals(name) {
				continue
			}
			if len(r.cs.Inventory) >= InventoryCap {
				if r.logger != nil {
					r.logger.Warn("Cannot unequip into a full bag, ignoring", "item", occ.Name)
				}
				continue
			}
			r.cs.Equipped.Set(slot, nil)
			r.cs.Inventory = append(r.cs.Inventory, *occ)
			changed = true
		}
	}
	if changed {
		r.cs.RecalcMaxHP()
	}
}

// applyEquips moves named bag items into their type's slot. A displaced
// occupant returns to the bag; if that overflows, the overflow policy
// applies and the new equip still wins. The item is removed from the
// bag before the slot is written, so no id ever exists in both places.
func (r *Reconciler) applyEquips(d *TurnDelta) {
	changed := false
	for _, name := range d.Equip {
		if isNone(name) {
			continue
		}
		idx := r.cs.findInventory(name)
		if idx < 0 {
			if r.logger != nil {
				r.logger.Warn("Equip target not in bag, ignoring", "item", name)
			}
			continue
		}

		it := r.cs.Inventory[idx]
		slot, ok := SlotFor(it.Type)
		if !ok {
			if r.logger != nil {
				r.logger.Warn("Item is not equippable", "item", it.Name, "type", it.Type)
			}
			continue
		}

		r.cs.Inventory = append(r.cs.Inventory[:idx], r.cs.Inventory[idx+1:]...)
		displaced := r.cs.Equipped.Set(slot, &it)
		if displaced != nil {
			r.cs.Inventory = append(r.cs.Inventory, *displaced)
			r.enforceCapacity()
		}
		changed = true
	}
	if changed {
		r.cs.RecalcMaxHP()
	}
}

// applyHP clamps HP into [0, maxHP]. Reaching zero forces a loss no
// matter what the delta's status said. Returns whether it forced one.
func (r *Reconciler) applyHP(d *TurnDelta) bool {
	cs := r.cs
	cs.HP += d.HPChange
	if cs.HP > cs.MaxHP {
		cs.HP = cs.MaxHP
	}
	if cs.HP < 0 {
		cs.HP = 0
	}
	if cs.HP == 0 && cs.GameStatus != StatusWon {
		cs.GameStatus = StatusLost
		return true
	}
	return false
}

// applyStatus merges the delta's game status. Transitions are
// monotonic: once terminal, a later "ongoing" never reverts it.
func (r *Reconciler) applyStatus(d *TurnDelta, hpForcedLoss bool) {
	if hpForcedLoss || d.GameStatus == "" {
		return
	}
	if r.cs.GameStatus.Terminal() {
		return
	}
	r.cs.GameStatus = d.GameStatus
}

// applyStatUpdates applies base-stat deltas, clamping each requested
// swing to [statDeltaMin, statDeltaMax]. Deltas that clamp to zero are
// omitted from the turn annotation.
func (r *Reconciler) applyStatUpdates(d *TurnDelta, turn *StoryTurn) {
	conChanged := false
	for axis, requested := range d.StatsUpdate {
		if !axis.Valid() {
			continue
		}
		delta := requested
		if delta < statDeltaMin {
			delta = statDeltaMin
		}
		if delta > statDeltaMax {
			delta = statDeltaMax
		}
		if delta == 0 {
			continue
		}

		next := r.cs.BaseStats.Get(axis) + delta
		if next < 1 {
			next = 1
		}
		if next == r.cs.BaseStats.Get(axis) {
			continue
		}
		delta = next - r.cs.BaseStats.Get(axis)
		r.cs.BaseStats[axis] = next

		if turn.StatsUpdated == nil {
			turn.StatsUpdated = stats.Block{}
		}
		turn.StatsUpdated[axis] = delta
		if axis == stats.Constitution {
			conChanged = true
		}
	}
	if conChanged {
		r.cs.RecalcMaxHP()
	}
}

// applyEffects appends new status effects with fresh ids. Effects are
// not deduplicated by name; stacking is permitted.
func (r *Reconciler) applyEffects(d *TurnDelta, turn *StoryTurn) {
	conChanged := false
	for _, g := range d.NewEffects {
		if isNone(g.Name) {
			continue
		}
		eff := StatusEffect{
			ID:            r.newID(),
			Name:          g.Name,
			Kind:          g.Kind,
			Duration:      g.Duration,
			Modifiers:     g.Modifiers,
			BlocksHeroics: g.BlocksHeroics,
		}
		if eff.Duration < 1 {
			eff.Duration = 1
		}
		r.cs.ActiveEffects = append(r.cs.ActiveEffects, eff)
		turn.EffectsAdded = append(turn.EffectsAdded, eff.Name)
		if eff.Modifiers.Get(stats.Constitution) != 0 {
			conChanged = true
		}
	}
	if conChanged {
		r.cs.RecalcMaxHP()
	}
}

// applyNPCs merges NPC directives: additions appended with fresh ids,
// updates matched by case-insensitive name, removals by exact name.
// Unmatched update and remove targets are silent no-ops; the named NPC
// may simply not have been introduced yet.
func (r *Reconciler) applyNPCs(d *TurnDelta, turn *StoryTurn) {
	for _, nd := range d.NPCsAdded {
		if isNone(nd.Name) {
			continue
		}
		r.cs.NPCs = append(r.cs.NPCs, NPC{
			ID:          r.newID(),
			Name:        nd.Name,
			Type:        nd.Type,
			Condition:   nd.Condition,
			Description: nd.Description,
		})
		turn.NPCChanges = append(turn.NPCChanges, fmt.Sprintf("+ %s", nd.Name))
	}

	for _, nd := range d.NPCsUpdated {
		idx := r.cs.findNPC(nd.Name)
		if idx < 0 {
			if r.logger != nil {
				r.logger.Debug("NPC update target unknown, ignoring", "npc", nd.Name)
			}
			continue
		}
		npc := &r.cs.NPCs[idx]
		if nd.Condition != "" && nd.Condition != ConditionUnknown {
			npc.Condition = nd.Condition
		}
		if nd.Type != "" && nd.Type != NPCUnknown {
			npc.Type = nd.Type
		}
		if nd.Description != "" {
			npc.Description = nd.Description
		}
		turn.NPCChanges = append(turn.NPCChanges, fmt.Sprintf("%s: %s", npc.Name, npc.Condition))
	}

	for _, name := range d.NPCsRemoved {
		if isNone(name) {
			continue
		}
		kept := r.cs.NPCs[:0]
		removed := false
		for _, npc := range r.cs.NPCs {
			if npc.Name == name {
				removed = true
				continue
			}
			kept = append(kept, npc)
		}
		r.cs.NPCs = kept
		if removed {
			turn.NPCChanges = append(turn.NPCChanges, fmt.Sprintf("- %s", name))
		}
	}
}

// applyRollOutcome converts a successful check into stat experience,
// possibly triggering a level-up. The roll and any level-up annotate
// the user turn that initiated the check, matching the adventure log
// format; the AI turn records that a heroic result was consumed.
func (r *Reconciler) applyRollOutcome(d *TurnDelta, turn *StoryTurn) {
	var roll *dice.RollResult
	switch {
	case r.roll == nil:
		return
	case r.roll.Roll != nil:
		roll = r.roll.Roll
	case r.roll.Heroic && d.ActionResult != nil:
		roll = d.ActionResult.ToRollResult()
		turn.HeroicResolved = true
	default:
		return
	}

	userTurn := r.cs.lastUserTurn()
	if userTurn != nil && userTurn.Roll == nil {
		userTurn.Roll = roll
	}

	if !roll.Success || !roll.Stat.Valid() {
		return
	}
	levelUp := r.cs.grantExperience(roll.Stat)
	if levelUp == nil {
		return
	}
	if userTurn != nil {
		userTurn.LevelUp = levelUp
	} else {
		turn.LevelUp = levelUp
	}
	if r.logger != nil {
		r.logger.Info("Level up",
			"stat", levelUp.Stat,
			"old", levelUp.OldValue,
			"new", levelUp.NewValue)
	}
}
