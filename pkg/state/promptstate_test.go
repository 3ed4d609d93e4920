package state

import (
	"strings"
	"testing"

	"github.com/questweaver/questweaver/pkg/dice"
	"github.com/questweaver/questweaver/pkg/stats"
)

func TestTranscript(t *testing.T) {
	cs := NewCharacterState("Korga", "fantasy", nil)
	if got := cs.Transcript(); got != "" {
		t.Errorf("empty history transcript = %q, want empty", got)
	}

	for i := 0; i < 8; i++ {
		cs.History = append(cs.History, StoryTurn{
			Text:   "old turn",
			IsUser: i%2 == 0,
		})
	}
	cs.History = append(cs.History, StoryTurn{
		Text:   "Force the lock",
		IsUser: true,
		Roll:   &dice.RollResult{Total: 9, Difficulty: 11, Success: false, Stat: stats.Strength},
	})
	cs.History = append(cs.History, StoryTurn{Text: "The lock holds."})

	got := cs.Transcript()
	lines := strings.Split(got, "\n")
	if len(lines) != TranscriptTurns {
		t.Fatalf("transcript has %d lines, want %d:\n%s", len(lines), TranscriptTurns, got)
	}
	if want := "PLAYER: Force the lock [STR check: rolled 9 vs DC 11 - FAILURE]"; lines[3] != want {
		t.Errorf("roll line = %q, want %q", lines[3], want)
	}
	if want := "DM: The lock holds."; lines[4] != want {
		t.Errorf("last line = %q, want %q", lines[4], want)
	}
}
