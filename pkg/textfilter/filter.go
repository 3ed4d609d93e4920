// Package textfilter softens profanity in narrator output when a game
// is configured for family-friendly play. Models are prompted to keep
// the tone clean, but they drift; this is the backstop.
package textfilter

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Rating is the configured content ceiling for narrator text.
type Rating string

const (
	// RatingMature passes narrator text through untouched.
	RatingMature Rating = "mature"

	// RatingFamily replaces profanity with mild stand-ins.
	RatingFamily Rating = "family"
)

// ParseRating resolves a config value, defaulting to mature.
func ParseRating(s string) Rating {
	if strings.EqualFold(strings.TrimSpace(s), string(RatingFamily)) {
		return RatingFamily
	}
	return RatingMature
}

// replacements maps each filtered word to its mild stand-in. Matching
// is case-insensitive on word boundaries; slurs and anatomical terms
// are censored outright rather than given a cute substitute.
var replacements = map[string]string{
	"fuck":         "flip",
	"fucking":      "flipping",
	"motherfucker": "scoundrel",
	"shit":         "muck",
	"bullshit":     "nonsense",
	"damn":         "blast",
	"goddamn":      "confounded",
	"hell":         "blazes",
	"ass":          "rear",
	"asshole":      "lout",
	"bastard":      "wretch",
	"bitch":        "wretch",
	"piss":         "spite",
	"crap":         "muck",
	"cock":         "[censored]",
	"dick":         "[censored]",
	"pussy":        "[censored]",
	"whore":        "[censored]",
	"slut":         "[censored]",
}

// Filter rewrites narrator text to honor a content rating.
type Filter struct {
	rating  Rating
	pattern *regexp.Regexp
}

// New compiles a filter for the given rating. A mature filter is a
// no-op passthrough.
func New(rating Rating) *Filter {
	f := &Filter{rating: rating}
	if rating != RatingFamily {
		return f
	}

	words := make([]string, 0, len(replacements))
	for w := range replacements {
		words = append(words, regexp.QuoteMeta(w))
	}
	f.pattern = regexp.MustCompile(`(?i)\b(` + strings.Join(words, "|") + `)\b`)
	return f
}

// Sanitize returns text with filtered words replaced, preserving the
// case shape of each match. Under RatingMature the input is returned
// unchanged.
func (f *Filter) Sanitize(text string) string {
	if f.pattern == nil {
		return text
	}
	return f.pattern.ReplaceAllStringFunc(text, func(match string) string {
		repl, ok := replacements[strings.ToLower(match)]
		if !ok {
			return match
		}
		return matchCase(match, repl)
	})
}

// Flags reports whether text contains anything Sanitize would rewrite.
func (f *Filter) Flags(text string) bool {
	return f.pattern != nil && f.pattern.MatchString(text)
}

var titleCaser = cases.Title(language.English)

// matchCase applies the original word's case shape (all-caps, title, or
// lower) to the replacement.
func matchCase(original, replacement string) string {
	switch {
	case original == strings.ToUpper(original):
		return strings.ToUpper(replacement)
	case original == titleCaser.String(strings.ToLower(original)):
		return titleCaser.String(replacement)
	default:
		return replacement
	}
}
