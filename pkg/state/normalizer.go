package state

import (
	"encoding/json"
	"log/slog"
	"math/rand"
	"strings"

	"github.com/questweaver/questweaver/pkg/item"
	"github.com/questweaver/questweaver/pkg/stats"
)

// WireMode selects which raw AI output shape the normalizer expects.
type WireMode string

const (
	// WireStructured expects a JSON object in the TurnDelta shape.
	WireStructured WireMode = "structured"
	// WireDelimited expects ###-sectioned plain text.
	WireDelimited WireMode = "delimited"
)

// ParseWireMode coerces a config value, defaulting to structured.
func ParseWireMode(s string) WireMode {
	if strings.EqualFold(strings.TrimSpace(s), string(WireDelimited)) {
		return WireDelimited
	}
	return WireStructured
}

// Normalizer converts raw model output into a validated TurnDelta. It
// never fails: malformed input degrades to a delta whose narrative is
// the raw text and whose mechanical fields are defaults.
type Normalizer struct {
	mode      WireMode
	inferStat func(string) (stats.Type, bool)
	randomDC  func() int
	logger    *slog.Logger
}

// NewNormalizer builds a normalizer with the production collaborators:
// the keyword stat inferrer and a uniform DC draw in [8,12].
func NewNormalizer(mode WireMode, logger *slog.Logger) *Normalizer {
	return &Normalizer{
		mode:      mode,
		inferStat: item.InferStat,
		randomDC:  func() int { return 8 + rand.Intn(5) },
		logger:    logger,
	}
}

// WithStatInferrer overrides the choice stat inferrer. Returns the
// normalizer for chaining.
func (n *Normalizer) WithStatInferrer(fn func(string) (stats.Type, bool)) *Normalizer {
	n.inferStat = fn
	return n
}

// WithDifficultyFn overrides the random DC draw for deterministic tests.
func (n *Normalizer) WithDifficultyFn(fn func() int) *Normalizer {
	n.randomDC = fn
	return n
}

// Normalize parses raw output according to the configured wire mode.
func (n *Normalizer) Normalize(raw string) *TurnDelta {
	var d *TurnDelta
	switch n.mode {
	case WireDelimited:
		d = n.normalizeDelimited(raw)
	default:
		d = n.normalizeStructured(raw)
	}
	n.postProcess(d)
	return d
}

// isNone reports whether an entity-name field is empty or the literal
// NONE marker, which means "no-op for this line".
func isNone(name string) bool {
	t := strings.TrimSpace(name)
	return t == "" || strings.EqualFold(t, "none")
}

// stripCodeFence removes a wrapping markdown code fence if present.
// Models emit these around JSON despite instructions not to.
func stripCodeFence(s string) string {
	t := strings.TrimSpace(s)
	if !strings.HasPrefix(t, "```") {
		return t
	}
	t = strings.TrimPrefix(t, "```")
	if i := strings.Index(t, "\n"); i >= 0 {
		t = t[i+1:] // drop the language tag line
	}
	t = strings.TrimSuffix(strings.TrimSpace(t), "```")
	return strings.TrimSpace(t)
}

// normalizeStructured parses the JSON wire shape field by field, so one
// wrong-typed field never poisons the rest of the delta.
func (n *Normalizer) normalizeStructured(raw string) *TurnDelta {
	d := &TurnDelta{GameStatus: StatusOngoing}

	var m map[string]json.RawMessage
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &m); err != nil {
		if n.logger != nil {
			n.logger.Warn("Structured response is not valid JSON, using raw text as narrative", "error", err)
		}
		d.Narrative = strings.TrimSpace(raw)
		return d
	}

	d.Narrative = asString(m["narrative"])
	if d.Narrative == "" {
		d.Narrative = strings.TrimSpace(raw)
	}
	d.HPChange = asInt(m["hp_change"])
	if s := asString(m["game_status"]); s != "" {
		d.GameStatus = ParseGameStatus(s)
	}
	if q := asString(m["quest_update"]); !isNone(q) && !strings.EqualFold(q, "same") {
		d.QuestUpdate = q
	}

	var choices []ChoiceDelta
	if unmarshalField(m, "choices", &choices) {
		for _, c := range choices {
			if strings.TrimSpace(c.Text) == "" {
				continue
			}
			if parsed, ok := stats.Parse(string(c.Stat)); ok {
				c.Stat = parsed
			} else {
				c.Stat = ""
			}
			d.Choices = append(d.Choices, c)
		}
	}

	var grants []ItemGrant
	if unmarshalField(m, "inventory_added", &grants) {
		for _, g := range grants {
			if !isNone(g.Name) {
				d.ItemsAdded = append(d.ItemsAdded, g)
			}
		}
	}
	d.ItemsRemoved = asNameList(m["inventory_removed"])
	d.Equip = asNameList(m["equip"])
	d.Unequip = asNameList(m["unequip"])

	var su map[string]int
	if unmarshalField(m, "stats_update", &su) {
		for key, v := range su {
			axis, ok := stats.Parse(key)
			if !ok || v == 0 {
				continue
			}
			if d.StatsUpdate == nil {
				d.StatsUpdate = stats.Block{}
			}
			d.StatsUpdate[axis] = v
		}
	}

	var effects []EffectGrant
	if unmarshalField(m, "new_effects", &effects) {
		for _, e := range effects {
			if isNone(e.Name) {
				continue
			}
			e.Kind = ParseEffectKind(string(e.Kind))
			if e.Duration < 1 {
				e.Duration = 1
			}
			d.NewEffects = append(d.NewEffects, e)
		}
	}

	d.NPCsAdded = n.coerceNPCs(m, "npcs_added")
	d.NPCsUpdated = n.coerceNPCs(m, "npcs_updated")
	d.NPCsRemoved = asNameList(m["npcs_removed"])

	var ar ActionResult
	if unmarshalField(m, "action_result", &ar) && (ar.Total != 0 || ar.Roll != 0) {
		if parsed, ok := stats.Parse(string(ar.Stat)); ok {
			ar.Stat = parsed
		} else {
			ar.Stat = ""
		}
		d.ActionResult = &ar
	}

	return d
}

func (n *Normalizer) coerceNPCs(m map[string]json.RawMessage, key string) []NPCDirective {
	var in []NPCDirective
	if !unmarshalField(m, key, &in) {
		return nil
	}
	var out []NPCDirective
	for _, nd := range in {
		if isNone(nd.Name) {
			continue
		}
		nd.Type = ParseNPCType(string(nd.Type))
		nd.Condition = ParseNPCCondition(string(nd.Condition))
		out = append(out, nd)
	}
	return out
}

// postProcess fills in missing check metadata on choices regardless of
// wire mode: infer a stat from the text when absent, and draw a
// moderate DC when a stat is present without one.
func (n *Normalizer) postProcess(d *TurnDelta) {
	if d.GameStatus == "" {
		d.GameStatus = StatusOngoing
	}
	for i := range d.Choices {
		c := &d.Choices[i]
		if c.Stat == "" && n.inferStat != nil {
			if inferred, ok := n.inferStat(c.Text); ok {
				c.Stat = inferred
			}
		}
		if c.Stat != "" && c.Difficulty <= 0 {
			c.Difficulty = n.randomDC()
		}
		if c.Stat == "" {
			c.Difficulty = 0
		}
	}
}

// unmarshalField best-effort unmarshals one field, reporting success.
func unmarshalField(m map[string]json.RawMessage, key string, out any) bool {
	raw, ok := m[key]
	if !ok {
		return false
	}
	return json.Unmarshal(raw, out) == nil
}

func asString(raw json.RawMessage) string {
	if raw == nil {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}

func asInt(raw json.RawMessage) int {
	if raw == nil {
		return 0
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return int(f)
	}
	// Some models quote numbers.
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		var f2 float64
		if err := json.Unmarshal([]byte(strings.TrimSpace(s)), &f2); err == nil {
			return int(f2)
		}
	}
	return 0
}

// asNameList parses a list of entity names, dropping NONE markers and
// blanks.
func asNameList(raw json.RawMessage) []string {
	if raw == nil {
		return nil
	}
	var in []string
	if err := json.Unmarshal(raw, &in); err != nil {
		// Tolerate a single string where a list was expected.
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil
		}
		in = []string{s}
	}
	var out []string
	for _, name := range in {
		if !isNone(name) {
			out = append(out, strings.TrimSpace(name))
		}
	}
	return out
}
