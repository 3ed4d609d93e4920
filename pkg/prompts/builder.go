package prompts

import (
	"fmt"
	"strings"

	"github.com/questweaver/questweaver/pkg/chat"
	"github.com/questweaver/questweaver/pkg/dice"
	"github.com/questweaver/questweaver/pkg/state"
)

// Builder constructs chat messages for narrator interaction using a
// fluent interface. It separates prompt building from game state
// management.
type Builder struct {
	cs           *state.CharacterState
	mode         state.WireMode
	userAction   string
	roll         *dice.RollResult
	heroic       bool
	epilogue     bool
	historyLimit int
	messages     []chat.Message
}

// New creates a new prompt builder with default settings.
func New() *Builder {
	return &Builder{
		mode:         state.WireStructured,
		historyLimit: 2 * state.TranscriptTurns,
		messages:     make([]chat.Message, 0),
	}
}

// WithState sets the session whose turn is being generated.
func (b *Builder) WithState(cs *state.CharacterState) *Builder {
	b.cs = cs
	return b
}

// WithWireMode selects the response format the model is asked for.
func (b *Builder) WithWireMode(mode state.WireMode) *Builder {
	b.mode = mode
	return b
}

// WithUserAction sets the player action text for this turn.
func (b *Builder) WithUserAction(action string) *Builder {
	b.userAction = action
	return b
}

// WithRoll attaches a precomputed dice resolution for a chosen action.
func (b *Builder) WithRoll(r *dice.RollResult) *Builder {
	b.roll = r
	return b
}

// WithHeroic marks the action as a freeform heroic attempt the model
// adjudicates itself.
func (b *Builder) WithHeroic(heroic bool) *Builder {
	b.heroic = heroic
	return b
}

// WithEpilogue requests a closing summary instead of a regular turn.
func (b *Builder) WithEpilogue() *Builder {
	b.epilogue = true
	return b
}

// WithHistoryLimit sets the history window size in turns.
func (b *Builder) WithHistoryLimit(limit int) *Builder {
	b.historyLimit = limit
	return b
}

// Build constructs the final message array for the narrator.
func (b *Builder) Build() ([]chat.Message, error) {
	if b.cs == nil {
		return nil, fmt.Errorf("character state is required")
	}

	b.messages = make([]chat.Message, 0)

	if err := b.addSystemPrompt(); err != nil {
		return nil, fmt.Errorf("error building system prompt: %w", err)
	}
	b.addHistory()
	b.addUserMessage()

	return b.messages, nil
}

func (b *Builder) addSystemPrompt() error {
	var sb strings.Builder

	genre := b.cs.Genre
	if genre == "" {
		genre = "fantasy"
	}
	name := b.cs.Name
	if name == "" {
		name = "the hero"
	}
	fmt.Fprintf(&sb, BaseSystemPrompt, genre, name)

	if b.epilogue {
		sb.WriteString("\n\n" + EpiloguePrompt)
	} else {
		switch b.mode {
		case state.WireDelimited:
			sb.WriteString("\n\n" + DelimitedFormatPrompt)
		default:
			sb.WriteString("\n\n" + StructuredFormatPrompt)
		}
		if b.heroic {
			sb.WriteString("\n\n" + HeroicFormatSupplement)
		}
	}

	sp, err := statePrompt(state.ToPromptState(b.cs))
	if err != nil {
		return err
	}
	sb.WriteString("\n\n" + sp)

	// The chat-shaped history below carries the prose; this compact
	// transcript is where the narrator sees which rolls already landed.
	if t := b.cs.Transcript(); t != "" {
		sb.WriteString("\n\n### RECENT EVENTS\n" + t)
	}

	b.messages = append(b.messages, chat.Message{
		Role:    chat.RoleSystem,
		Content: sb.String(),
	})
	return nil
}

// addHistory appends the windowed story log as alternating chat turns.
func (b *Builder) addHistory() {
	history := b.cs.History
	if b.historyLimit > 0 && len(history) > b.historyLimit {
		history = history[len(history)-b.historyLimit:]
	}
	for _, turn := range history {
		role := chat.RoleAssistant
		if turn.IsUser {
			role = chat.RoleUser
		}
		b.messages = append(b.messages, chat.Message{Role: role, Content: turn.Text})
	}
}

func (b *Builder) addUserMessage() {
	if b.epilogue {
		b.messages = append(b.messages, chat.Message{
			Role:    chat.RoleUser,
			Content: "The adventure is over. Tell me how it ends.",
		})
		return
	}

	content := b.userAction
	if b.roll != nil {
		outcome := "FAILURE"
		if b.roll.Success {
			outcome = "SUCCESS"
		}
		content += fmt.Sprintf("\n[%s check: rolled %d vs DC %d - %s. Narrate accordingly.]",
			b.roll.Stat, b.roll.Total, b.roll.Difficulty, outcome)
	}
	if b.heroic {
		content += "\n[HEROIC ACTION - adjudicate per the action_result rules.]"
	}

	b.messages = append(b.messages, chat.Message{
		Role:    chat.RoleUser,
		Content: content,
	})
}
