package item

import (
	"testing"

	"github.com/questweaver/questweaver/pkg/stats"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		itemName string
		wantType Type
	}{
		{"weapon keyword", "Rusty Sword", TypeWeapon},
		{"armor keyword", "Chain Mail", TypeArmor},
		{"accessory keyword", "Ring of Shadows", TypeAccessory},
		{"unknown falls to misc", "Old Map", TypeMisc},
		{"case insensitive", "VORPAL BLADE", TypeWeapon},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Classify(tt.itemName)
			if c.Type != tt.wantType {
				t.Errorf("Classify(%q).Type = %v, want %v", tt.itemName, c.Type, tt.wantType)
			}
		})
	}
}

func TestClassify_Bonuses(t *testing.T) {
	c := Classify("Mighty Hammer of the Giant")
	if c.Type != TypeWeapon {
		t.Fatalf("type = %v, want weapon", c.Type)
	}
	// "mighty" and "giant" both cue STR.
	if c.Bonuses.Get(stats.Strength) != 2 {
		t.Errorf("STR bonus = %d, want 2", c.Bonuses.Get(stats.Strength))
	}

	// Plain gear still gets a slot-default bonus.
	c = Classify("dagger")
	if c.Bonuses.Get(stats.Strength) != 1 {
		t.Errorf("plain weapon STR bonus = %d, want 1", c.Bonuses.Get(stats.Strength))
	}

	// Misc items carry nothing.
	c = Classify("torn letter")
	if !c.Bonuses.IsZero() {
		t.Errorf("misc item should have no bonuses, got %v", c.Bonuses)
	}
}

func TestInferStat(t *testing.T) {
	tests := []struct {
		text string
		want stats.Type
		ok   bool
	}{
		{"Try to persuade the guard", stats.Charisma, true},
		{"Sneak past the sleeping dragon", stats.Dexterity, true},
		{"Search the room for hidden doors", stats.Perception, true},
		{"Smash the door open", stats.Strength, true},
		{"Walk away quietly", "", false},
	}

	for _, tt := range tests {
		got, ok := InferStat(tt.text)
		if ok != tt.ok || got != tt.want {
			t.Errorf("InferStat(%q) = %v, %v; want %v, %v", tt.text, got, ok, tt.want, tt.ok)
		}
	}
}

func TestCanonicalName(t *testing.T) {
	if got := CanonicalName("  rusty sword "); got != "Rusty Sword" {
		t.Errorf("CanonicalName = %q, want %q", got, "Rusty Sword")
	}
}

func TestNameEquals(t *testing.T) {
	it := Item{Name: "Rusty Sword"}
	if !it.NameEquals("rusty sword") {
		t.Error("NameEquals should be case-insensitive")
	}
	if it.NameEquals("shiny sword") {
		t.Error("NameEquals matched a different name")
	}
}
