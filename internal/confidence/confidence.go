// Package confidence scores how likely a tagged transcript span is a genuine
// named entity rather than recognition noise.
//
// The score is a fixed heuristic, not a classifier. Campaign archives contain
// entities scored with these exact weights, so the weights are frozen for
// compatibility — tuning them would silently reshuffle which historical
// candidates fall below the review threshold.
package confidence

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// fantasyPatterns are substrings common in invented fantasy names (Welsh and
// Norse borrowings, Elvish particles, doubled consonants, apostrophes and
// hyphens). Their presence lowers confidence: the speech engine is more
// likely to have mangled such a word, so a human should look at it.
var fantasyPatterns = []string{
	"ae", "wyn", "wynn", "dwyn", "wynne",
	"thor", "odin", "loki",
	"el", "il", "al",
	"zz", "xx", "kk",
	"'", "-",
}

// Score returns a confidence in [0.0, 1.0] for a candidate span.
//
// tag is the tagger's semantic category for the span. It is part of the
// scoring contract but the current heuristic keys on surface form only:
//
//	base 0.5
//	+0.2 first rune is uppercase
//	−0.2 shorter than 3 runes, or −0.1 longer than 10 runes
//	−0.3 lowercase form contains any fantasy pattern
//
// Score is a pure function: identical (text, tag) inputs always produce the
// identical score.
func Score(text, tag string) float64 {
	score := 0.5

	if first, _ := utf8.DecodeRuneInString(text); unicode.IsUpper(first) {
		score += 0.2
	}

	switch n := utf8.RuneCountInString(text); {
	case n < 3:
		score -= 0.2
	case n > 10:
		score -= 0.1
	}

	if containsFantasyPattern(text) {
		score -= 0.3
	}

	return clamp(score)
}

// containsFantasyPattern reports whether the lowercase form of text contains
// any of the fixed fantasy-name substrings.
func containsFantasyPattern(text string) bool {
	lower := strings.ToLower(text)
	for _, p := range fantasyPatterns {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
