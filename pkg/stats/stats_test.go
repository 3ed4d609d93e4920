package stats

import "testing"

func TestModifier(t *testing.T) {
	tests := []struct {
		value int
		want  int
	}{
		{10, 0},
		{11, 0},
		{12, 1},
		{13, 1},
		{9, -1},
		{8, -1},
		{7, -2},
		{1, -5},
		{18, 4},
	}
	for _, tt := range tests {
		if got := Modifier(tt.value); got != tt.want {
			t.Errorf("Modifier(%d) = %d, want %d", tt.value, got, tt.want)
		}
	}
}

func TestParse(t *testing.T) {
	if got, ok := Parse("str"); !ok || got != Strength {
		t.Errorf("Parse(str) = %v, %v", got, ok)
	}
	if got, ok := Parse(" LUK "); !ok || got != Luck {
		t.Errorf("Parse( LUK ) = %v, %v", got, ok)
	}
	if _, ok := Parse("WIS"); ok {
		t.Error("Parse(WIS) should not resolve; there is no wisdom axis")
	}
	if _, ok := Parse(""); ok {
		t.Error("Parse empty string should not resolve")
	}
}

func TestBlockPlus(t *testing.T) {
	base := NewBlock(10)
	bonus := Block{Strength: 2, Constitution: -1}
	sum := base.Plus(bonus)

	if sum.Get(Strength) != 12 {
		t.Errorf("STR = %d, want 12", sum.Get(Strength))
	}
	if sum.Get(Constitution) != 9 {
		t.Errorf("CON = %d, want 9", sum.Get(Constitution))
	}
	// Plus must not mutate the receiver.
	if base.Get(Strength) != 10 {
		t.Errorf("base STR mutated to %d", base.Get(Strength))
	}
}

func TestBlockIsZero(t *testing.T) {
	if !(Block{}).IsZero() {
		t.Error("empty block should be zero")
	}
	if !(Block{Luck: 0}).IsZero() {
		t.Error("explicit zero block should be zero")
	}
	if (Block{Luck: 1}).IsZero() {
		t.Error("non-zero block reported zero")
	}
}
