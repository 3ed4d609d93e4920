package state

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/questweaver/questweaver/pkg/stats"
)

// Delimited wire format: the model emits plain text split into
// ###-prefixed uppercase sections. Example:
//
//	### NARRATIVE
//	The door creaks open...
//	### CHOICES
//	1. Sneak inside | DEX | 12
//	2. Knock loudly | NONE | 0
//	### UPDATES
//	HP: -5
//	ITEM_ADD: Rusty Key|misc|Opens something, probably|
//	### ACTION_RESULT
//	STAT: STR
//	ROLL: 14
//
// Sections run greedily until the next ### header or end of text.

var sectionHeader = regexp.MustCompile(`(?m)^###\s*([A-Z_]+)\s*$`)

// leadingEnumeration strips "1." / "2)" style prefixes from a choice line.
var leadingEnumeration = regexp.MustCompile(`^\s*\d+[.)]\s*`)

// bonusPair tolerantly captures stat bonuses out of a free-form bonus
// string: a three-letter stat code, any separator, then digits.
var bonusPair = regexp.MustCompile(`(?i)(STR|DEX|CON|INT|CHA|PER|LUK)[^0-9+-]*([+-]?\d+)`)

func (n *Normalizer) normalizeDelimited(raw string) *TurnDelta {
	d := &TurnDelta{GameStatus: StatusOngoing}

	sections := splitSections(raw)
	d.Narrative = strings.TrimSpace(sections["NARRATIVE"])
	if d.Narrative == "" {
		// A response with no NARRATIVE section, headered or not, keeps
		// its raw text as the narrative rather than being discarded.
		d.Narrative = strings.TrimSpace(raw)
	}

	n.parseChoices(sections["CHOICES"], d)
	n.parseUpdates(sections["UPDATES"], d)
	n.parseActionResult(sections["ACTION_RESULT"], d)

	return d
}

// splitSections scans for ### headers and maps each section name to the
// text that runs until the next header.
func splitSections(raw string) map[string]string {
	out := make(map[string]string)
	locs := sectionHeader.FindAllStringSubmatchIndex(raw, -1)
	for i, loc := range locs {
		name := raw[loc[2]:loc[3]]
		start := loc[1]
		end := len(raw)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		out[name] = raw[start:end]
	}
	return out
}

// parseChoices reads lines of the form
// "N. <text> | <STAT|NONE> | <difficulty|0>". Bracket-wrapped text is
// unwrapped and the enumeration prefix dropped.
func (n *Normalizer) parseChoices(section string, d *TurnDelta) {
	for _, line := range strings.Split(section, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		parts := strings.Split(line, "|")
		text := leadingEnumeration.ReplaceAllString(strings.TrimSpace(parts[0]), "")
		text = strings.TrimSpace(strings.Trim(text, "[]"))
		if text == "" {
			continue
		}

		c := ChoiceDelta{Text: text}
		if len(parts) > 1 {
			if axis, ok := stats.Parse(parts[1]); ok {
				c.Stat = axis
			}
		}
		if len(parts) > 2 && c.Stat != "" {
			if dc, err := strconv.Atoi(strings.TrimSpace(parts[2])); err == nil && dc > 0 {
				c.Difficulty = dc
			}
		}
		d.Choices = append(d.Choices, c)
	}
}

// parseUpdates reads "KEY: value" lines. Unknown keys are skipped; a
// NONE value for any entity-name field skips that line.
func (n *Normalizer) parseUpdates(section string, d *TurnDelta) {
	for _, line := range strings.Split(section, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		key = strings.ToUpper(strings.TrimSpace(key))
		value = strings.TrimSpace(value)

		switch key {
		case "HP":
			if v, err := strconv.Atoi(strings.TrimPrefix(value, "+")); err == nil {
				d.HPChange = v
			}
		case "STATUS":
			d.GameStatus = ParseGameStatus(value)
		case "QUEST":
			if !isNone(value) && !strings.EqualFold(value, "same") {
				d.QuestUpdate = value
			}
		case "ITEM_ADD":
			if g, ok := parseItemGrant(value); ok {
				d.ItemsAdded = append(d.ItemsAdded, g)
			}
		case "ITEM_REMOVE":
			if !isNone(value) {
				d.ItemsRemoved = append(d.ItemsRemoved, value)
			}
		case "EQUIP":
			if !isNone(value) {
				d.Equip = append(d.Equip, value)
			}
		case "UNEQUIP":
			if !isNone(value) {
				d.Unequip = append(d.Unequip, value)
			}
		case "EFFECT_ADD":
			if g, ok := parseEffectGrant(value); ok {
				d.NewEffects = append(d.NewEffects, g)
			}
		case "STAT":
			if axis, delta, ok := parseStatUpdate(value); ok {
				if d.StatsUpdate == nil {
					d.StatsUpdate = stats.Block{}
				}
				d.StatsUpdate[axis] = delta
			}
		case "NPC_ADD":
			if nd, ok := parseNPCDirective(value); ok {
				d.NPCsAdded = append(d.NPCsAdded, nd)
			}
		case "NPC_UPDATE":
			if nd, ok := parseNPCDirective(value); ok {
				d.NPCsUpdated = append(d.NPCsUpdated, nd)
			}
		case "NPC_REMOVE":
			if !isNone(value) {
				d.NPCsRemoved = append(d.NPCsRemoved, value)
			}
		default:
			if n.logger != nil {
				n.logger.Debug("Unrecognized update key", "key", key)
			}
		}
	}
}

// parseItemGrant parses "name|type|description|bonus-string".
func parseItemGrant(value string) (ItemGrant, bool) {
	parts := strings.Split(value, "|")
	name := strings.TrimSpace(parts[0])
	if isNone(name) {
		return ItemGrant{}, false
	}

	g := ItemGrant{Name: name}
	if len(parts) > 1 {
		g.Type = strings.TrimSpace(parts[1])
	}
	if len(parts) > 2 {
		g.Description = strings.TrimSpace(parts[2])
	}
	if len(parts) > 3 {
		g.Bonuses = parseBonusString(parts[3])
	}
	return g, true
}

// parseBonusString extracts stat bonuses from free-form text such as
// "STR+2, LUK +1" or "CON: 3".
func parseBonusString(s string) stats.Block {
	var out stats.Block
	for _, match := range bonusPair.FindAllStringSubmatch(s, -1) {
		axis, ok := stats.Parse(match[1])
		if !ok {
			continue
		}
		v, err := strconv.Atoi(match[2])
		if err != nil || v == 0 {
			continue
		}
		if out == nil {
			out = stats.Block{}
		}
		out[axis] += v
	}
	return out
}

// parseEffectGrant parses "name|buff-or-debuff|duration[|bonus-string]".
func parseEffectGrant(value string) (EffectGrant, bool) {
	parts := strings.Split(value, "|")
	name := strings.TrimSpace(parts[0])
	if isNone(name) {
		return EffectGrant{}, false
	}

	g := EffectGrant{Name: name, Kind: EffectDebuff, Duration: 1}
	if len(parts) > 1 {
		g.Kind = ParseEffectKind(parts[1])
	}
	if len(parts) > 2 {
		if v, err := strconv.Atoi(strings.TrimSpace(parts[2])); err == nil && v > 0 {
			g.Duration = v
		}
	}
	if len(parts) > 3 {
		g.Modifiers = parseBonusString(parts[3])
	}
	return g, true
}

// parseStatUpdate parses "STR +1" / "STR|+1" / "STR: -2" forms.
func parseStatUpdate(value string) (stats.Type, int, bool) {
	match := bonusPair.FindStringSubmatch(value)
	if match == nil {
		return "", 0, false
	}
	axis, ok := stats.Parse(match[1])
	if !ok {
		return "", 0, false
	}
	v, err := strconv.Atoi(match[2])
	if err != nil || v == 0 {
		return "", 0, false
	}
	return axis, v, true
}

// parseNPCDirective parses "name|type|condition[|description]".
func parseNPCDirective(value string) (NPCDirective, bool) {
	parts := strings.Split(value, "|")
	name := strings.TrimSpace(parts[0])
	if isNone(name) {
		return NPCDirective{}, false
	}

	nd := NPCDirective{Name: name, Type: NPCUnknown, Condition: ConditionUnknown}
	if len(parts) > 1 {
		nd.Type = ParseNPCType(parts[1])
	}
	if len(parts) > 2 {
		nd.Condition = ParseNPCCondition(parts[2])
	}
	if len(parts) > 3 {
		nd.Description = strings.TrimSpace(parts[3])
	}
	return nd, true
}

// parseActionResult reads KEY: value lines for a heroic action's
// AI-reported resolution.
func (n *Normalizer) parseActionResult(section string, d *TurnDelta) {
	if strings.TrimSpace(section) == "" {
		return
	}

	ar := &ActionResult{}
	seen := false
	for _, line := range strings.Split(section, "\n") {
		key, value, found := strings.Cut(strings.TrimSpace(line), ":")
		if !found {
			continue
		}
		value = strings.TrimSpace(value)
		switch strings.ToUpper(strings.TrimSpace(key)) {
		case "STAT":
			if axis, ok := stats.Parse(value); ok {
				ar.Stat = axis
				seen = true
			}
		case "ROLL":
			ar.Roll, seen = atoiField(value, seen)
		case "MODIFIER":
			ar.Modifier, seen = atoiField(value, seen)
		case "TOTAL":
			ar.Total, seen = atoiField(value, seen)
		case "DIFFICULTY", "DC":
			ar.Difficulty, seen = atoiField(value, seen)
		case "OUTCOME", "RESULT":
			ar.Success = strings.EqualFold(value, "success")
			seen = true
		}
	}
	if !seen {
		return
	}

	if ar.Total == 0 && ar.Roll != 0 {
		ar.Total = ar.Roll + ar.Modifier
	}
	d.ActionResult = ar
}

func atoiField(value string, seen bool) (int, bool) {
	v, err := strconv.Atoi(strings.TrimPrefix(value, "+"))
	if err != nil {
		return 0, seen
	}
	return v, true
}
