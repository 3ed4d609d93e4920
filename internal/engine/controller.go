// Package engine drives the turn lifecycle: it commits the player half
// of a turn, calls the narrator, and fences stale responses so at most
// one in-flight request can ever mutate state.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/questweaver/questweaver/internal/services"
	"github.com/questweaver/questweaver/internal/storage"
	"github.com/questweaver/questweaver/pkg/chat"
	"github.com/questweaver/questweaver/pkg/dice"
	"github.com/questweaver/questweaver/pkg/prompts"
	"github.com/questweaver/questweaver/pkg/state"
	"github.com/questweaver/questweaver/pkg/textfilter"
)

var (
	ErrGameOver      = errors.New("game is over")
	ErrTurnInFlight  = errors.New("a turn is already being resolved")
	ErrNoRetryTarget = errors.New("no failed or cancelled turn to retry")
	ErrSuperseded    = errors.New("turn was superseded")
	ErrHeroicBlocked = errors.New("heroic actions are currently blocked")
	ErrHeroicBudget  = errors.New("no heroic actions remaining")
)

// Outcome is delivered on the channel returned by Submit and Retry once
// the AI half of the turn resolves (or fails).
type Outcome struct {
	RequestID uint64
	State     *state.CharacterState
	Turn      *state.StoryTurn
	Err       error
}

// pendingTurn carries everything needed to redo the AI half of a turn.
// The player half is already committed to the history by then.
type pendingTurn struct {
	messages []chat.Message
	roll     *dice.RollResult
	heroic   bool
}

// Controller owns one game session. All state access goes through its
// mutex; the narrator call itself runs outside the lock.
type Controller struct {
	mu     sync.Mutex
	cs     *state.CharacterState
	llm    services.LLMService
	store  storage.Storage
	norm   *state.Normalizer
	roller dice.Roller
	filter *textfilter.Filter
	mode   state.WireMode
	logger *slog.Logger

	// seq is the id of the newest issued request; active is the id
	// allowed to land, or zero when nothing may.
	seq     uint64
	active  uint64
	pending *pendingTurn
}

// NewController wraps a session. The roller defaults to the production
// d20 roller.
func NewController(cs *state.CharacterState, llm services.LLMService, store storage.Storage, mode state.WireMode, logger *slog.Logger) *Controller {
	return &Controller{
		cs:     cs,
		llm:    llm,
		store:  store,
		norm:   state.NewNormalizer(mode, logger),
		roller: dice.NewRoller(),
		filter: textfilter.New(textfilter.RatingMature),
		mode:   mode,
		logger: logger,
	}
}

// WithRoller overrides the dice roller. Returns the controller for
// chaining.
func (c *Controller) WithRoller(r dice.Roller) *Controller {
	c.roller = r
	return c
}

// WithFilter overrides the content filter applied to narrator text.
func (c *Controller) WithFilter(f *textfilter.Filter) *Controller {
	c.filter = f
	return c
}

// State returns an independent snapshot of the session.
func (c *Controller) State() (*state.CharacterState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cs.DeepCopy()
}

// Choices returns the currently offered choices.
func (c *Controller) Choices() []state.Choice {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cs.LatestChoices()
}

// Submit commits the player half of a turn and starts resolving the AI
// half. The player turn (and effect decay, and the heroic budget
// charge) stays committed even if the AI half later fails or is
// cancelled; only the AI half is retried.
//
// choice carries the picked option when the action came from the choice
// list; it is nil for freeform input. heroic marks a freeform action
// the narrator adjudicates itself.
func (c *Controller) Submit(ctx context.Context, action string, choice *state.Choice, heroic bool) (<-chan Outcome, uint64, error) {
	c.mu.Lock()

	if c.cs.GameStatus.Terminal() {
		c.mu.Unlock()
		return nil, 0, ErrGameOver
	}
	if c.active != 0 {
		c.mu.Unlock()
		return nil, 0, ErrTurnInFlight
	}
	if heroic {
		if c.cs.HeroicsBlocked() {
			c.mu.Unlock()
			return nil, 0, ErrHeroicBlocked
		}
		if c.cs.CustomActionsRemaining <= 0 {
			c.mu.Unlock()
			return nil, 0, ErrHeroicBudget
		}
		c.cs.CustomActionsRemaining--
	}

	// Player half: append the turn and decay effect durations. Decay
	// happens at issuance, never during reconciliation.
	c.cs.History = append(c.cs.History, state.StoryTurn{
		ID:     uuid.New(),
		Text:   action,
		IsUser: true,
	})
	c.cs.ActiveEffects = c.cs.DecrementedEffects()
	// Effect expiry can change effective CON, so max HP follows here,
	// not just on equip and level-up.
	c.cs.RecalcMaxHP()

	// Resolve the dice check for list choices before prompting, so the
	// narrator writes toward a known outcome.
	var roll *dice.RollResult
	if !heroic && choice != nil && choice.Stat.Valid() {
		statValue := c.cs.EffectiveStats().Get(choice.Stat)
		r := dice.ResolveCheck(c.roller, choice.Stat, statValue, choice.Difficulty)
		roll = &r
	}

	messages, err := prompts.New().
		WithState(c.cs).
		WithWireMode(c.mode).
		WithUserAction(action).
		WithRoll(roll).
		WithHeroic(heroic).
		Build()
	if err != nil {
		c.mu.Unlock()
		return nil, 0, fmt.Errorf("failed to build prompt: %w", err)
	}

	c.seq++
	reqID := c.seq
	c.active = reqID
	c.pending = &pendingTurn{messages: messages, roll: roll, heroic: heroic}
	pt := c.pending
	c.mu.Unlock()

	ch := make(chan Outcome, 1)
	go c.resolve(ctx, reqID, pt, ch)
	return ch, reqID, nil
}

// Cancel drops the in-flight turn, if any. The player half stays
// committed; the AI half can be redone with Retry. Reports whether
// anything was cancelled.
func (c *Controller) Cancel() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == 0 {
		return false
	}
	c.logger.Info("Cancelling in-flight turn", "request_id", c.active)
	c.active = 0
	return true
}

// Retry redoes the AI half of the last failed or cancelled turn under a
// fresh request id. The player turn is not re-committed.
func (c *Controller) Retry(ctx context.Context) (<-chan Outcome, uint64, error) {
	c.mu.Lock()
	if c.active != 0 {
		c.mu.Unlock()
		return nil, 0, ErrTurnInFlight
	}
	if c.pending == nil {
		c.mu.Unlock()
		return nil, 0, ErrNoRetryTarget
	}

	c.seq++
	reqID := c.seq
	c.active = reqID
	pt := c.pending
	c.mu.Unlock()

	ch := make(chan Outcome, 1)
	go c.resolve(ctx, reqID, pt, ch)
	return ch, reqID, nil
}

// resolve runs the narrator call and, if this request is still the one
// allowed to land, reconciles its delta into the session.
func (c *Controller) resolve(ctx context.Context, reqID uint64, pt *pendingTurn, ch chan<- Outcome) {
	raw, err := c.llm.GenerateTurn(ctx, pt.messages)
	if err != nil {
		c.mu.Lock()
		if c.active == reqID {
			// Leave pending in place so Retry can redo this half.
			c.active = 0
		}
		c.mu.Unlock()
		c.logger.Error("Narrator call failed", "request_id", reqID, "error", err)
		ch <- Outcome{RequestID: reqID, Err: err}
		return
	}

	delta := c.norm.Normalize(raw)
	if c.filter.Flags(delta.Narrative) {
		c.logger.Warn("Softened narrator text for content rating", "request_id", reqID)
	}
	delta.Narrative = c.filter.Sanitize(delta.Narrative)
	for i := range delta.Choices {
		delta.Choices[i].Text = c.filter.Sanitize(delta.Choices[i].Text)
	}

	c.mu.Lock()
	if c.active != reqID {
		c.mu.Unlock()
		c.logger.Warn("Dropping stale narrator response", "request_id", reqID)
		ch <- Outcome{RequestID: reqID, Err: ErrSuperseded}
		return
	}

	// Reconcile against a copy so a marshal failure can't leave the
	// live session half-updated.
	next, err := c.cs.DeepCopy()
	if err != nil {
		c.active = 0
		c.mu.Unlock()
		ch <- Outcome{RequestID: reqID, Err: err}
		return
	}

	turn := state.NewReconciler(next, delta, c.logger).
		WithRollContext(&state.RollContext{Roll: pt.roll, Heroic: pt.heroic}).
		Apply()

	c.cs = next
	c.active = 0
	c.pending = nil
	snapshot, snapErr := c.cs.DeepCopy()
	ended := c.cs.GameStatus.Terminal() && c.cs.FinalSummary == ""
	c.mu.Unlock()

	if snapErr != nil {
		ch <- Outcome{RequestID: reqID, Err: snapErr}
		return
	}

	if c.store != nil {
		if err := c.store.SaveGame(ctx, snapshot.ID, snapshot); err != nil {
			// Persistence is best-effort; the session lives in memory.
			c.logger.Error("Failed to persist session", "game_id", snapshot.ID, "error", err)
		}
	}

	if ended {
		c.writeEpilogue(ctx)
		if s, err := c.State(); err == nil {
			snapshot = s
		}
	}

	ch <- Outcome{RequestID: reqID, State: snapshot, Turn: turn}
}

// writeEpilogue asks the narrator for a closing summary once the game
// ends. Failures are logged and swallowed: the game is already over.
func (c *Controller) writeEpilogue(ctx context.Context) {
	c.mu.Lock()
	messages, err := prompts.New().WithState(c.cs).WithEpilogue().Build()
	c.mu.Unlock()
	if err != nil {
		c.logger.Error("Failed to build epilogue prompt", "error", err)
		return
	}

	summary, err := c.llm.GenerateTurn(ctx, messages)
	if err != nil {
		c.logger.Error("Epilogue generation failed", "error", err)
		return
	}

	c.mu.Lock()
	c.cs.FinalSummary = c.filter.Sanitize(summary)
	id := c.cs.ID
	snapshot, snapErr := c.cs.DeepCopy()
	c.mu.Unlock()

	if c.store != nil && snapErr == nil {
		if err := c.store.SaveGame(ctx, id, snapshot); err != nil {
			c.logger.Error("Failed to persist epilogue", "game_id", id, "error", err)
		}
	}
}
