package state

import (
	"testing"

	"github.com/questweaver/questweaver/pkg/stats"
)

const sampleDelimited = `### NARRATIVE
The cellar door gives way and you tumble into darkness.

### CHOICES
1. [Light a torch and search the shelves] | PER | 11
2. Climb back out | STR | 0
3. Call out into the dark | NONE | 0

### UPDATES
HP: -4
STATUS: ongoing
QUEST: Find the smuggler's ledger
ITEM_ADD: Smuggler's Lantern|accessory|Still warm to the touch|PER+1, LUK +1
ITEM_REMOVE: Rope
EFFECT_ADD: Bruised Ankle|debuff|2
EQUIP: Smuggler's Lantern

### ACTION_RESULT
STAT: DEX
ROLL: 14
MODIFIER: 1
TOTAL: 15
DIFFICULTY: 12
OUTCOME: SUCCESS
`

func TestNormalizeDelimited_Sections(t *testing.T) {
	n := NewNormalizer(WireDelimited, nil).WithDifficultyFn(fixedDC(10))
	d := n.Normalize(sampleDelimited)

	if d.Narrative != "The cellar door gives way and you tumble into darkness." {
		t.Errorf("narrative = %q", d.Narrative)
	}
	if d.HPChange != -4 {
		t.Errorf("hp_change = %d", d.HPChange)
	}
	if d.GameStatus != StatusOngoing {
		t.Errorf("status = %v", d.GameStatus)
	}
	if d.QuestUpdate != "Find the smuggler's ledger" {
		t.Errorf("quest = %q", d.QuestUpdate)
	}

	if len(d.Choices) != 3 {
		t.Fatalf("choices = %d, want 3", len(d.Choices))
	}
	// Enumeration and brackets are stripped.
	if d.Choices[0].Text != "Light a torch and search the shelves" {
		t.Errorf("choice 0 text = %q", d.Choices[0].Text)
	}
	if d.Choices[0].Stat != stats.Perception || d.Choices[0].Difficulty != 11 {
		t.Errorf("choice 0 = %+v", d.Choices[0])
	}
	// STR with DC 0 gets a drawn difficulty in post-processing.
	if d.Choices[1].Stat != stats.Strength || d.Choices[1].Difficulty != 10 {
		t.Errorf("choice 1 = %+v", d.Choices[1])
	}
	// NONE means no check; "Call out into the dark" has no stat cue.
	if d.Choices[2].Stat != "" || d.Choices[2].Difficulty != 0 {
		t.Errorf("choice 2 = %+v", d.Choices[2])
	}

	if len(d.ItemsAdded) != 1 {
		t.Fatalf("items added = %+v", d.ItemsAdded)
	}
	g := d.ItemsAdded[0]
	if g.Name != "Smuggler's Lantern" || g.Type != "accessory" || g.Description != "Still warm to the touch" {
		t.Errorf("item grant = %+v", g)
	}
	if g.Bonuses.Get(stats.Perception) != 1 || g.Bonuses.Get(stats.Luck) != 1 {
		t.Errorf("item bonuses = %+v", g.Bonuses)
	}

	if len(d.ItemsRemoved) != 1 || d.ItemsRemoved[0] != "Rope" {
		t.Errorf("items removed = %v", d.ItemsRemoved)
	}
	if len(d.Equip) != 1 || d.Equip[0] != "Smuggler's Lantern" {
		t.Errorf("equip = %v", d.Equip)
	}
	if len(d.NewEffects) != 1 || d.NewEffects[0].Duration != 2 || d.NewEffects[0].Kind != EffectDebuff {
		t.Errorf("effects = %+v", d.NewEffects)
	}

	ar := d.ActionResult
	if ar == nil {
		t.Fatal("action_result missing")
	}
	if ar.Stat != stats.Dexterity || ar.Roll != 14 || ar.Total != 15 || ar.Difficulty != 12 || !ar.Success {
		t.Errorf("action_result = %+v", ar)
	}
}

func TestNormalizeDelimited_ItemRemoveNone(t *testing.T) {
	raw := "### NARRATIVE\nNothing to drop.\n### UPDATES\nITEM_REMOVE: NONE\nITEM_REMOVE: none\n"
	d := NewNormalizer(WireDelimited, nil).Normalize(raw)

	if len(d.ItemsRemoved) != 0 {
		t.Errorf("ITEM_REMOVE: NONE must produce zero removals, got %v", d.ItemsRemoved)
	}
}

func TestNormalizeDelimited_NoHeadersFallsBackToNarrative(t *testing.T) {
	raw := "The innkeeper shrugs and pours another drink."
	d := NewNormalizer(WireDelimited, nil).Normalize(raw)

	if d.Narrative != raw {
		t.Errorf("narrative fallback = %q", d.Narrative)
	}
	if !d.IsEmpty() {
		t.Errorf("plain text should normalize to an empty delta: %+v", d)
	}
}

func TestNormalizeDelimited_MissingNarrativeSectionFallsBack(t *testing.T) {
	raw := "### CHOICES\n1. Run for the door | DEX | 10\n2. Hide under the table | NONE | 0\n"
	d := NewNormalizer(WireDelimited, nil).Normalize(raw)

	// Headered responses without a NARRATIVE section still keep their
	// text instead of yielding an empty narrative.
	if d.Narrative == "" {
		t.Error("narrative empty, want raw-text fallback")
	}
	if len(d.Choices) != 2 {
		t.Fatalf("choices = %d, want 2", len(d.Choices))
	}
	if d.Choices[0].Text != "Run for the door" || d.Choices[0].Stat != stats.Dexterity {
		t.Errorf("choice 0 = %+v", d.Choices[0])
	}
}

func TestNormalizeDelimited_MalformedLinesSkipped(t *testing.T) {
	raw := `### NARRATIVE
Onward.
### UPDATES
HP: minus five
MYSTERY_KEY: whatever
QUEST: SAME
STATUS: victory
: orphaned value
`
	d := NewNormalizer(WireDelimited, nil).Normalize(raw)

	if d.HPChange != 0 {
		t.Errorf("unparseable HP should default to 0, got %d", d.HPChange)
	}
	if d.QuestUpdate != "" {
		t.Errorf("QUEST: SAME means no change, got %q", d.QuestUpdate)
	}
	if d.GameStatus != StatusWon {
		t.Errorf("status = %v, want won", d.GameStatus)
	}
}

func TestParseBonusString(t *testing.T) {
	tests := []struct {
		in   string
		want stats.Block
	}{
		{"STR+2", stats.Block{stats.Strength: 2}},
		{"con: 3", stats.Block{stats.Constitution: 3}},
		{"DEX +1, LUK-2", stats.Block{stats.Dexterity: 1, stats.Luck: -2}},
		{"no bonuses here", nil},
		{"", nil},
	}
	for _, tt := range tests {
		got := parseBonusString(tt.in)
		if len(got) != len(tt.want) {
			t.Errorf("parseBonusString(%q) = %v, want %v", tt.in, got, tt.want)
			continue
		}
		for axis, v := range tt.want {
			if got.Get(axis) != v {
				t.Errorf("parseBonusString(%q)[%s] = %d, want %d", tt.in, axis, got.Get(axis), v)
			}
		}
	}
}
