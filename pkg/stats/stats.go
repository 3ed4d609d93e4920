package stats

import "strings"

// Type identifies one of the seven character attribute axes.
type Type string

const (
	Strength     Type = "STR"
	Dexterity    Type = "DEX"
	Constitution Type = "CON"
	Intelligence Type = "INT"
	Charisma     Type = "CHA"
	Perception   Type = "PER"
	Luck         Type = "LUK"
)

// All returns the seven axes in display order.
func All() []Type {
	return []Type{Strength, Dexterity, Constitution, Intelligence, Charisma, Perception, Luck}
}

var names = map[Type]string{
	Strength:     "Strength",
	Dexterity:    "Dexterity",
	Constitution: "Constitution",
	Intelligence: "Intelligence",
	Charisma:     "Charisma",
	Perception:   "Perception",
	Luck:         "Luck",
}

// Name returns the long display name for a stat axis.
func (t Type) Name() string {
	if n, ok := names[t]; ok {
		return n
	}
	return string(t)
}

// Valid reports whether t is one of the seven known axes.
func (t Type) Valid() bool {
	_, ok := names[t]
	return ok
}

// Parse resolves a three-letter stat code, case-insensitively.
// The second return is false for unrecognized input.
func Parse(s string) (Type, bool) {
	t := Type(strings.ToUpper(strings.TrimSpace(s)))
	if t.Valid() {
		return t, true
	}
	return "", false
}

// Block is a partial or complete per-axis integer map. Absent axes
// are treated as zero.
type Block map[Type]int

// NewBlock returns a full block with every axis set to v.
func NewBlock(v int) Block {
	b := make(Block, len(names))
	for t := range names {
		b[t] = v
	}
	return b
}

// Clone returns an independent copy of the block.
func (b Block) Clone() Block {
	out := make(Block, len(b))
	for t, v := range b {
		out[t] = v
	}
	return out
}

// Plus returns a new block with other added per-axis.
func (b Block) Plus(other Block) Block {
	out := b.Clone()
	for t, v := range other {
		out[t] += v
	}
	return out
}

// Get returns the value for an axis, zero if absent.
func (b Block) Get(t Type) int {
	return b[t]
}

// IsZero reports whether every axis in the block is zero.
func (b Block) IsZero() bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}

// Modifier converts a stat value to its ability modifier:
// floor((value-10)/2), rounding toward negative infinity.
func Modifier(value int) int {
	d := value - 10
	if d < 0 {
		return -((-d + 1) / 2)
	}
	return d / 2
}
