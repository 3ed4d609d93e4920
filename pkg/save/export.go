package save

import (
	"fmt"
	"strings"

	"github.com/questweaver/questweaver/pkg/state"
)

const separator = "----------------------------------------"

// ExportLog renders the session history as a shareable plain text
// adventure log. User turns carry their roll and level-up annotations
// inline; each DM turn is followed by a separator.
func ExportLog(cs *state.CharacterState) string {
	var b strings.Builder

	title := cs.Name
	if title == "" {
		title = "Adventure"
	}
	fmt.Fprintf(&b, "%s\n%s\n\n", title, separator)

	for _, turn := range cs.History {
		if turn.IsUser {
			b.WriteString("> USER: " + turn.Text)
			if turn.Roll != nil {
				fmt.Fprintf(&b, " [ROLL: %d vs DC %d]", turn.Roll.Total, turn.Roll.Difficulty)
			}
			if turn.LevelUp != nil {
				fmt.Fprintf(&b, " [LEVEL UP: %s %d->%d]", turn.LevelUp.Stat, turn.LevelUp.OldValue, turn.LevelUp.NewValue)
			}
			b.WriteString("\n")
			continue
		}
		b.WriteString("DM: " + turn.Text + "\n")
		b.WriteString(separator + "\n")
	}

	if cs.FinalSummary != "" {
		fmt.Fprintf(&b, "\nEPILOGUE\n%s\n%s\n", separator, cs.FinalSummary)
	}
	return b.String()
}
