package item

import (
	"strings"

	"github.com/questweaver/questweaver/pkg/stats"
)

// statCues maps action verbs and adjectives in choice text to the stat
// axis a check against them would use. First match wins, in the order
// the axes are declared.
var statCues = map[stats.Type][]string{
	stats.Strength:     {"force", "lift", "smash", "break", "push", "climb", "wrestle", "carry"},
	stats.Dexterity:    {"sneak", "dodge", "leap", "steal", "pick the lock", "balance", "slip", "tumble"},
	stats.Constitution: {"endure", "resist", "withstand", "hold your breath", "outlast", "stomach"},
	stats.Intelligence: {"decipher", "recall", "study", "solve", "analyze", "examine", "read"},
	stats.Charisma:     {"persuade", "convince", "charm", "negotiate", "bluff", "intimidate", "plead"},
	stats.Perception:   {"search", "spot", "listen", "notice", "watch", "track", "scan"},
	stats.Luck:         {"gamble", "guess", "chance", "random", "draw straws", "coin"},
}

// InferStat guesses which stat a freeform choice would test based on
// keywords in its text. The second return is false when no cue matches.
func InferStat(text string) (stats.Type, bool) {
	lower := strings.ToLower(text)
	for _, axis := range stats.All() {
		for _, cue := range statCues[axis] {
			if strings.Contains(lower, cue) {
				return axis, true
			}
		}
	}
	return "", false
}
