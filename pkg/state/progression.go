package state

import (
	"math"

	"github.com/questweaver/questweaver/pkg/item"
	"github.com/questweaver/questweaver/pkg/stats"
)

// MaxHPFor derives max HP from an effective Constitution value.
func MaxHPFor(conValue int) int {
	return BaseHP + 10*stats.Modifier(conValue)
}

// EffectiveStats layers equipment bonuses and active effect modifiers
// onto base stats. Recomputed on every read, never stored.
func (cs *CharacterState) EffectiveStats() stats.Block {
	eff := cs.BaseStats.Clone()
	for _, it := range cs.Equipped.Items() {
		eff = eff.Plus(it.Bonuses)
	}
	for _, e := range cs.ActiveEffects {
		eff = eff.Plus(e.Modifiers)
	}
	return eff
}

// PreviewStats computes effective stats as if candidate were equipped
// in its slot, displacing only that slot's current occupant. All other
// equipment and all effect modifiers still apply. Used for what-if
// display of unequipped gear.
func (cs *CharacterState) PreviewStats(candidate item.Item) stats.Block {
	slot, ok := SlotFor(candidate.Type)
	if !ok {
		return cs.EffectiveStats()
	}

	eff := cs.BaseStats.Clone()
	for _, s := range []Slot{SlotWeapon, SlotArmor, SlotAccessory} {
		if s == slot {
			continue
		}
		if it := cs.Equipped.Get(s); it != nil {
			eff = eff.Plus(it.Bonuses)
		}
	}
	eff = eff.Plus(candidate.Bonuses)
	for _, e := range cs.ActiveEffects {
		eff = eff.Plus(e.Modifiers)
	}
	return eff
}

// RecalcMaxHP recomputes max HP from effective Constitution. When the
// maximum changes, current HP is rescaled to preserve the player's HP
// fraction, then reclamped.
func (cs *CharacterState) RecalcMaxHP() {
	newMax := MaxHPFor(cs.EffectiveStats().Get(stats.Constitution))
	if newMax < 10 {
		newMax = 10
	}
	if newMax == cs.MaxHP {
		return
	}

	oldMax := cs.MaxHP
	cs.MaxHP = newMax
	if oldMax > 0 {
		cs.HP = int(math.Round(float64(cs.HP) * float64(newMax) / float64(oldMax)))
	}
	if cs.HP > cs.MaxHP {
		cs.HP = cs.MaxHP
	}
	if cs.HP < 0 {
		cs.HP = 0
	}
}

// grantExperience adds one success toward a stat axis. At the threshold
// the counter resets and the base stat increases by one. Returns the
// level-up event, or nil if the threshold was not reached.
func (cs *CharacterState) grantExperience(axis stats.Type) *LevelUpEvent {
	if !axis.Valid() {
		return nil
	}
	if cs.StatExperience == nil {
		cs.StatExperience = stats.Block{}
	}

	cs.StatExperience[axis]++
	if cs.StatExperience[axis] < ExpThreshold {
		return nil
	}

	cs.StatExperience[axis] = 0
	old := cs.BaseStats.Get(axis)
	cs.BaseStats[axis] = old + 1
	if axis == stats.Constitution {
		cs.RecalcMaxHP()
	}
	return &LevelUpEvent{Stat: axis, OldValue: old, NewValue: old + 1}
}
