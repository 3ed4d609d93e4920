package state

import (
	"fmt"
	"testing"

	"github.com/google/uuid"

	"github.com/questweaver/questweaver/pkg/dice"
	"github.com/questweaver/questweaver/pkg/item"
	"github.com/questweaver/questweaver/pkg/stats"
)

func testCharacter() *CharacterState {
	return NewCharacterState("Tester", "fantasy", nil)
}

func namedItem(name string, t item.Type) item.Item {
	return item.Item{ID: uuid.New(), Name: name, Type: t}
}

// checkInvariants asserts the cross-cutting guarantees that must hold
// after every reconciler pass.
func checkInvariants(t *testing.T, cs *CharacterState) {
	t.Helper()

	if cs.HP < 0 || cs.HP > cs.MaxHP {
		t.Errorf("HP %d outside [0, %d]", cs.HP, cs.MaxHP)
	}
	if len(cs.Inventory) > InventoryCap {
		t.Errorf("inventory length %d exceeds cap %d", len(cs.Inventory), InventoryCap)
	}

	equippedIDs := map[uuid.UUID]Slot{}
	for _, slot := range []Slot{SlotWeapon, SlotArmor, SlotAccessory} {
		it := cs.Equipped.Get(slot)
		if it == nil {
			continue
		}
		wantSlot, ok := SlotFor(it.Type)
		if !ok || wantSlot != slot {
			t.Errorf("item %q of type %v occupies slot %v", it.Name, it.Type, slot)
		}
		equippedIDs[it.ID] = slot
	}
	for _, it := range cs.Inventory {
		if slot, ok := equippedIDs[it.ID]; ok {
			t.Errorf("item %q present in both inventory and slot %v", it.Name, slot)
		}
	}

	for axis, xp := range cs.StatExperience {
		if xp < 0 || xp >= ExpThreshold {
			t.Errorf("stat experience %s=%d outside [0,%d)", axis, xp, ExpThreshold)
		}
	}
}

func TestReconciler_EmptyDeltaIsNoOp(t *testing.T) {
	cs := testCharacter()
	cs.Inventory = append(cs.Inventory, namedItem("Rope", item.TypeMisc))
	cs.ActiveEffects = append(cs.ActiveEffects, StatusEffect{ID: uuid.New(), Name: "Blessed", Kind: EffectBuff, Duration: 2})
	before, err := cs.DeepCopy()
	if err != nil {
		t.Fatal(err)
	}

	turn := NewReconciler(cs, &TurnDelta{Narrative: "Nothing happens.", GameStatus: StatusOngoing}, nil).Apply()

	if turn.Text != "Nothing happens." {
		t.Errorf("turn text = %q", turn.Text)
	}
	if len(cs.History) != len(before.History)+1 {
		t.Fatalf("history length = %d, want %d", len(cs.History), len(before.History)+1)
	}
	if cs.HP != before.HP || cs.MaxHP != before.MaxHP {
		t.Errorf("HP changed: %d/%d -> %d/%d", before.HP, before.MaxHP, cs.HP, cs.MaxHP)
	}
	if len(cs.Inventory) != len(before.Inventory) {
		t.Errorf("inventory changed: %d -> %d", len(before.Inventory), len(cs.Inventory))
	}
	// Effect decay happens at issuance, not inside an empty reconcile.
	if len(cs.ActiveEffects) != 1 || cs.ActiveEffects[0].Duration != 2 {
		t.Errorf("effects mutated by empty delta: %+v", cs.ActiveEffects)
	}
	if !blocksEqual(cs.BaseStats, before.BaseStats) {
		t.Errorf("base stats mutated by empty delta")
	}
	checkInvariants(t, cs)
}

func blocksEqual(a, b stats.Block) bool {
	for _, axis := range stats.All() {
		if a.Get(axis) != b.Get(axis) {
			return false
		}
	}
	return true
}

func TestReconciler_ItemIntakeAndClassification(t *testing.T) {
	cs := testCharacter()
	delta := &TurnDelta{
		GameStatus: StatusOngoing,
		ItemsAdded: []ItemGrant{
			{Name: "rusty sword"},
			{Name: "Odd Pebble", Type: "misc", Description: "It hums faintly."},
		},
	}

	turn := NewReconciler(cs, delta, nil).Apply()

	if len(cs.Inventory) != 2 {
		t.Fatalf("inventory length = %d, want 2", len(cs.Inventory))
	}
	if cs.Inventory[0].Name != "Rusty Sword" {
		t.Errorf("canonical name = %q, want %q", cs.Inventory[0].Name, "Rusty Sword")
	}
	if cs.Inventory[0].Type != item.TypeWeapon {
		t.Errorf("classified type = %v, want weapon", cs.Inventory[0].Type)
	}
	if cs.Inventory[1].Type != item.TypeMisc {
		t.Errorf("explicit type = %v, want misc", cs.Inventory[1].Type)
	}
	if len(turn.ItemsAdded) != 2 {
		t.Errorf("turn.ItemsAdded = %v", turn.ItemsAdded)
	}
	checkInvariants(t, cs)
}

func TestReconciler_InventoryOverflowDropsNewest(t *testing.T) {
	cs := testCharacter()
	for i := 0; i < InventoryCap; i++ {
		cs.Inventory = append(cs.Inventory, namedItem(fmt.Sprintf("Trinket %d", i), item.TypeMisc))
	}

	delta := &TurnDelta{
		GameStatus: StatusOngoing,
		ItemsAdded: []ItemGrant{{Name: "Extra One"}, {Name: "Extra Two"}},
	}
	NewReconciler(cs, delta, nil).Apply()

	if len(cs.Inventory) != InventoryCap {
		t.Fatalf("inventory length = %d, want %d", len(cs.Inventory), InventoryCap)
	}
	// Addition order means the existing eight survive and the two new
	// items land at positions 9-10 and are dropped.
	for i := 0; i < InventoryCap; i++ {
		want := fmt.Sprintf("Trinket %d", i)
		if cs.Inventory[i].Name != want {
			t.Errorf("inventory[%d] = %q, want %q", i, cs.Inventory[i].Name, want)
		}
	}
	checkInvariants(t, cs)
}

func TestReconciler_RemoveByNameCaseInsensitive(t *testing.T) {
	cs := testCharacter()
	cs.Inventory = append(cs.Inventory, namedItem("Torch", item.TypeMisc), namedItem("Rope", item.TypeMisc))
	sword := namedItem("Old Sword", item.TypeWeapon)
	cs.Equipped.Set(SlotWeapon, &sword)

	delta := &TurnDelta{
		GameStatus:   StatusOngoing,
		ItemsRemoved: []string{"TORCH", "old sword", "Unowned Thing"},
	}
	turn := NewReconciler(cs, delta, nil).Apply()

	if len(cs.Inventory) != 1 || cs.Inventory[0].Name != "Rope" {
		t.Errorf("inventory after removal = %+v", cs.Inventory)
	}
	if cs.Equipped.Weapon != nil {
		t.Errorf("equipped weapon should have been cleared, got %+v", cs.Equipped.Weapon)
	}
	// The unowned name is a tolerated no-op, not an error.
	if len(turn.ItemsRemoved) != 2 {
		t.Errorf("turn.ItemsRemoved = %v, want 2 entries", turn.ItemsRemoved)
	}
	checkInvariants(t, cs)
}

func TestReconciler_EquipDisplacesOccupant(t *testing.T) {
	cs := testCharacter()
	oldSword := namedItem("Old Sword", item.TypeWeapon)
	cs.Equipped.Set(SlotWeapon, &oldSword)
	cs.Inventory = append(cs.Inventory, namedItem("New Sword", item.TypeWeapon))

	delta := &TurnDelta{GameStatus: StatusOngoing, Equip: []string{"new sword"}}
	NewReconciler(cs, delta, nil).Apply()

	if cs.Equipped.Weapon == nil || cs.Equipped.Weapon.Name != "New Sword" {
		t.Fatalf("equipped weapon = %+v", cs.Equipped.Weapon)
	}
	if len(cs.Inventory) != 1 || cs.Inventory[0].Name != "Old Sword" {
		t.Errorf("displaced item should be back in the bag, got %+v", cs.Inventory)
	}
	checkInvariants(t, cs)
}

func TestReconciler_UnequipIntoFullBagIsNoOp(t *testing.T) {
	cs := testCharacter()
	sword := namedItem("Sword", item.TypeWeapon)
	cs.Equipped.Set(SlotWeapon, &sword)
	for i := 0; i < InventoryCap; i++ {
		cs.Inventory = append(cs.Inventory, namedItem(fmt.Sprintf("Rock %d", i), item.TypeMisc))
	}

	delta := &TurnDelta{GameStatus: StatusOngoing, Unequip: []string{"Sword"}}
	NewReconciler(cs, delta, nil).Apply()

	if cs.Equipped.Weapon == nil || cs.Equipped.Weapon.Name != "Sword" {
		t.Errorf("unequip into full bag should no-op, weapon = %+v", cs.Equipped.Weapon)
	}
	if len(cs.Inventory) != InventoryCap {
		t.Errorf("inventory length = %d", len(cs.Inventory))
	}
	checkInvariants(t, cs)
}

func TestReconciler_LethalDamageForcesLoss(t *testing.T) {
	cs := testCharacter()
	cs.HP = 40

	delta := &TurnDelta{
		GameStatus: StatusOngoing, // the delta claims the game goes on
		HPChange:   -150,
	}
	NewReconciler(cs, delta, nil).Apply()

	if cs.HP != 0 {
		t.Errorf("HP = %d, want 0", cs.HP)
	}
	if cs.GameStatus != StatusLost {
		t.Errorf("game status = %v, want lost", cs.GameStatus)
	}
	checkInvariants(t, cs)
}

func TestReconciler_HealingClampsAtMax(t *testing.T) {
	cs := testCharacter()
	cs.HP = 90

	NewReconciler(cs, &TurnDelta{GameStatus: StatusOngoing, HPChange: 50}, nil).Apply()
	if cs.HP != cs.MaxHP {
		t.Errorf("HP = %d, want %d", cs.HP, cs.MaxHP)
	}
	checkInvariants(t, cs)
}

func TestReconciler_TerminalStatusIsMonotonic(t *testing.T) {
	cs := testCharacter()
	NewReconciler(cs, &TurnDelta{GameStatus: StatusWon}, nil).Apply()
	if cs.GameStatus != StatusWon {
		t.Fatalf("game status = %v, want won", cs.GameStatus)
	}

	// A later delta saying "ongoing" must not revert the terminal state.
	NewReconciler(cs, &TurnDelta{GameStatus: StatusOngoing}, nil).Apply()
	if cs.GameStatus != StatusWon {
		t.Errorf("game status reverted to %v", cs.GameStatus)
	}
}

func TestReconciler_StatDeltaClamping(t *testing.T) {
	cs := testCharacter()
	delta := &TurnDelta{
		GameStatus: StatusOngoing,
		StatsUpdate: stats.Block{
			stats.Strength:  10, // clamps to +5
			stats.Dexterity: -7, // clamps to -2
			stats.Luck:      1,
		},
	}
	turn := NewReconciler(cs, delta, nil).Apply()

	if got := cs.BaseStats.Get(stats.Strength); got != 15 {
		t.Errorf("STR = %d, want 15", got)
	}
	if got := cs.BaseStats.Get(stats.Dexterity); got != 8 {
		t.Errorf("DEX = %d, want 8", got)
	}
	if got := turn.StatsUpdated.Get(stats.Strength); got != 5 {
		t.Errorf("recorded STR delta = %d, want clamped 5", got)
	}
	if got := turn.StatsUpdated.Get(stats.Luck); got != 1 {
		t.Errorf("recorded LUK delta = %d, want 1", got)
	}
	checkInvariants(t, cs)
}

func TestReconciler_EffectsStack(t *testing.T) {
	cs := testCharacter()
	delta := &TurnDelta{
		GameStatus: StatusOngoing,
		NewEffects: []EffectGrant{
			{Name: "Poisoned", Kind: EffectDebuff, Duration: 3},
			{Name: "Poisoned", Kind: EffectDebuff, Duration: 2},
		},
	}
	NewReconciler(cs, delta, nil).Apply()

	if len(cs.ActiveEffects) != 2 {
		t.Fatalf("effects = %d, want 2 (stacking permitted)", len(cs.ActiveEffects))
	}
	if cs.ActiveEffects[0].ID == cs.ActiveEffects[1].ID {
		t.Error("stacked effects must get distinct ids")
	}
}

func TestReconciler_NPCMerge(t *testing.T) {
	cs := testCharacter()
	NewReconciler(cs, &TurnDelta{
		GameStatus: StatusOngoing,
		NPCsAdded:  []NPCDirective{{Name: "Gorak", Type: NPCHostile, Condition: ConditionHealthy}},
	}, nil).Apply()

	if len(cs.NPCs) != 1 {
		t.Fatalf("NPCs = %d, want 1", len(cs.NPCs))
	}

	// Update matches case-insensitively; removal needs the exact name.
	NewReconciler(cs, &TurnDelta{
		GameStatus:  StatusOngoing,
		NPCsUpdated: []NPCDirective{{Name: "gorak", Condition: ConditionInjured}},
	}, nil).Apply()
	if cs.NPCs[0].Condition != ConditionInjured {
		t.Errorf("condition = %v, want injured", cs.NPCs[0].Condition)
	}

	NewReconciler(cs, &TurnDelta{GameStatus: StatusOngoing, NPCsRemoved: []string{"gorak"}}, nil).Apply()
	if len(cs.NPCs) != 1 {
		t.Errorf("lowercase removal should not match, NPCs = %d", len(cs.NPCs))
	}
	NewReconciler(cs, &TurnDelta{GameStatus: StatusOngoing, NPCsRemoved: []string{"Gorak"}}, nil).Apply()
	if len(cs.NPCs) != 0 {
		t.Errorf("exact removal failed, NPCs = %d", len(cs.NPCs))
	}

	// Unknown update target is a silent no-op.
	NewReconciler(cs, &TurnDelta{
		GameStatus:  StatusOngoing,
		NPCsUpdated: []NPCDirective{{Name: "Nobody", Condition: ConditionDead}},
	}, nil).Apply()
	checkInvariants(t, cs)
}

func TestReconciler_XPThreshold(t *testing.T) {
	cs := testCharacter()
	userTurnBefore := func() {
		cs.History = append(cs.History, StoryTurn{ID: uuid.New(), Text: "I try something.", IsUser: true})
	}

	success := &RollContext{Roll: &dice.RollResult{
		Base: 15, Modifier: 0, Total: 15, Difficulty: 10, Success: true, Stat: stats.Perception,
	}}

	var levelUps int
	for i := 0; i < ExpThreshold; i++ {
		userTurnBefore()
		NewReconciler(cs, &TurnDelta{GameStatus: StatusOngoing}, nil).
			WithRollContext(success).
			Apply()
	}
	for _, turn := range cs.History {
		if turn.LevelUp != nil {
			levelUps++
			if turn.LevelUp.Stat != stats.Perception {
				t.Errorf("level up stat = %v", turn.LevelUp.Stat)
			}
			if turn.LevelUp.NewValue != turn.LevelUp.OldValue+1 {
				t.Errorf("level up %d -> %d", turn.LevelUp.OldValue, turn.LevelUp.NewValue)
			}
		}
	}

	if levelUps != 1 {
		t.Errorf("level ups = %d, want exactly 1", levelUps)
	}
	if got := cs.BaseStats.Get(stats.Perception); got != 11 {
		t.Errorf("PER = %d, want 11", got)
	}
	if got := cs.StatExperience.Get(stats.Perception); got != 0 {
		t.Errorf("PER experience = %d, want reset to 0", got)
	}
	checkInvariants(t, cs)
}

func TestReconciler_TwoSuccessesDoNotLevel(t *testing.T) {
	cs := testCharacter()
	success := &RollContext{Roll: &dice.RollResult{
		Base: 15, Total: 15, Difficulty: 10, Success: true, Stat: stats.Strength,
	}}
	for i := 0; i < 2; i++ {
		NewReconciler(cs, &TurnDelta{GameStatus: StatusOngoing}, nil).WithRollContext(success).Apply()
	}

	if got := cs.BaseStats.Get(stats.Strength); got != 10 {
		t.Errorf("STR = %d, want unchanged 10", got)
	}
	if got := cs.StatExperience.Get(stats.Strength); got != 2 {
		t.Errorf("STR experience = %d, want 2", got)
	}
}

func TestReconciler_FailedCheckGrantsNothing(t *testing.T) {
	cs := testCharacter()
	failure := &RollContext{Roll: &dice.RollResult{
		Base: 3, Total: 3, Difficulty: 15, Success: false, Stat: stats.Charisma,
	}}
	NewReconciler(cs, &TurnDelta{GameStatus: StatusOngoing}, nil).WithRollContext(failure).Apply()

	if got := cs.StatExperience.Get(stats.Charisma); got != 0 {
		t.Errorf("CHA experience = %d, want 0 after failure", got)
	}
}

func TestReconciler_HeroicActionTrustsAIResult(t *testing.T) {
	cs := testCharacter()
	cs.History = append(cs.History, StoryTurn{ID: uuid.New(), Text: "I leap across the chasm!", IsUser: true})

	delta := &TurnDelta{
		GameStatus: StatusOngoing,
		ActionResult: &ActionResult{
			Stat: stats.Dexterity, Roll: 18, Modifier: 1, Total: 19, Difficulty: 14, Success: true,
		},
	}
	turn := NewReconciler(cs, delta, nil).WithRollContext(&RollContext{Heroic: true}).Apply()

	if !turn.HeroicResolved {
		t.Error("heroic resolution not recorded on AI turn")
	}
	user := cs.History[0]
	if user.Roll == nil || user.Roll.Total != 19 {
		t.Errorf("user turn roll = %+v, want AI-reported total 19", user.Roll)
	}
	if got := cs.StatExperience.Get(stats.Dexterity); got != 1 {
		t.Errorf("DEX experience = %d, want 1", got)
	}
}

func TestReconciler_QuestAndHPHistory(t *testing.T) {
	cs := testCharacter()
	NewReconciler(cs, &TurnDelta{GameStatus: StatusOngoing, QuestUpdate: "Find the lighthouse keeper", HPChange: -10}, nil).Apply()

	if cs.CurrentQuest != "Find the lighthouse keeper" {
		t.Errorf("quest = %q", cs.CurrentQuest)
	}
	if len(cs.HPHistory) != 1 || cs.HPHistory[0] != cs.HP {
		t.Errorf("hp history = %v, hp = %d", cs.HPHistory, cs.HP)
	}
}
