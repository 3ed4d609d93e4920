package textfilter

import (
	"testing"
)

func TestParseRating(t *testing.T) {
	tests := []struct {
		input    string
		expected Rating
	}{
		{"family", RatingFamily},
		{" FAMILY ", RatingFamily},
		{"mature", RatingMature},
		{"", RatingMature},
		{"pg13", RatingMature},
	}

	for _, tt := range tests {
		if got := ParseRating(tt.input); got != tt.expected {
			t.Errorf("ParseRating(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestFilter_Sanitize(t *testing.T) {
	f := New(RatingFamily)

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "simple replacement",
			input:    "What the hell is going on?",
			expected: "What the blazes is going on?",
		},
		{
			name:     "multiple words",
			input:    "That damn bastard stole it!",
			expected: "That blast wretch stole it!",
		},
		{
			name:     "case preservation - uppercase",
			input:    "DAMN that stings!",
			expected: "BLAST that stings!",
		},
		{
			name:     "case preservation - title case",
			input:    "Hell hath no fury",
			expected: "Blazes hath no fury",
		},
		{
			name:     "word boundaries leave partial matches alone",
			input:    "The assassin studies classical fencing.",
			expected: "The assassin studies classical fencing.",
		},
		{
			name:     "censored term",
			input:    "The whore of the harbor district",
			expected: "The [censored] of the harbor district",
		},
		{
			name:     "clean text unchanged",
			input:    "A crow watches you pass.",
			expected: "A crow watches you pass.",
		},
		{
			name:     "empty string",
			input:    "",
			expected: "",
		},
		{
			name:     "punctuation adjacent",
			input:    "Hell?! That's damn strange.",
			expected: "Blazes?! That's blast strange.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := f.Sanitize(tt.input); got != tt.expected {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestFilter_MaturePassthrough(t *testing.T) {
	f := New(RatingMature)
	input := "That damn bastard stole it!"
	if got := f.Sanitize(input); got != input {
		t.Errorf("mature filter changed text: %q", got)
	}
	if f.Flags(input) {
		t.Error("mature filter should flag nothing")
	}
}

func TestFilter_Flags(t *testing.T) {
	f := New(RatingFamily)
	if !f.Flags("well damn") {
		t.Error("expected profanity to be flagged")
	}
	if f.Flags("a quiet evening") {
		t.Error("clean text should not be flagged")
	}
}
