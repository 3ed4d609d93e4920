// Package dice resolves d20 ability checks against a difficulty class.
package dice

import (
	"math/rand"
	"time"

	"github.com/questweaver/questweaver/pkg/stats"
)

// Roller produces natural d20 rolls. Implementations must return
// values in [1,20].
type Roller interface {
	D20() int
}

type randRoller struct {
	rng *rand.Rand
}

func (r *randRoller) D20() int {
	return r.rng.Intn(20) + 1
}

// NewRoller returns a time-seeded Roller for live play.
func NewRoller() Roller {
	return &randRoller{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// NewSeededRoller returns a deterministic Roller for tests.
func NewSeededRoller(seed int64) Roller {
	return &randRoller{rng: rand.New(rand.NewSource(seed))}
}

// Fixed is a Roller that replays a scripted sequence of natural rolls,
// cycling when exhausted. Used in tests.
type Fixed struct {
	Rolls []int
	next  int
}

func (f *Fixed) D20() int {
	if len(f.Rolls) == 0 {
		return 10
	}
	v := f.Rolls[f.next%len(f.Rolls)]
	f.next++
	return v
}

// RollResult is the immutable record of one resolved check.
type RollResult struct {
	Base       int        `json:"base"`
	Modifier   int        `json:"modifier"`
	Total      int        `json:"total"`
	Difficulty int        `json:"difficulty"`
	Success    bool       `json:"success"`
	Stat       stats.Type `json:"stat,omitempty"`
}

// ResolveCheck rolls a d20 against difficulty using the ability modifier
// derived from the effective stat value.
func ResolveCheck(r Roller, stat stats.Type, statValue, difficulty int) RollResult {
	base := r.D20()
	mod := stats.Modifier(statValue)
	total := base + mod
	return RollResult{
		Base:       base,
		Modifier:   mod,
		Total:      total,
		Difficulty: difficulty,
		Success:    total >= difficulty,
		Stat:       stat,
	}
}

// SuccessChance estimates the percent chance of passing a check as a
// linear mapping of the natural-roll space, floored at 5 (a natural 1
// is always possible) and capped at 95 (a natural 20 is never
// guaranteed). This is the display heuristic, not a combinatorial
// probability.
func SuccessChance(statValue, difficulty int) int {
	mod := stats.Modifier(statValue)
	pct := (21 - (difficulty - mod)) * 100 / 20
	if pct < 5 {
		return 5
	}
	if pct > 95 {
		return 95
	}
	return pct
}
