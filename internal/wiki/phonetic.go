package wiki

import (
	"sort"
	"strings"

	"github.com/antzucaro/matchr"
)

// Phonetic suggestion runs in two stages. Double Metaphone codes are
// computed for each token of the query and of every known name; any code
// overlap makes the name a phonetic candidate, accepted when its
// Jaro-Winkler similarity clears the phonetic threshold. Names with no
// phonetic overlap still qualify through pure string similarity at the
// stricter fuzzy threshold, which catches spelling drift that changes the
// consonant skeleton.
const (
	phoneticThreshold = 0.70
	fuzzyThreshold    = 0.85
)

// Suggestion is one near-duplicate candidate.
type Suggestion struct {
	// Name is the existing entity name that sounds like the query.
	Name string

	// Score is the Jaro-Winkler similarity in (0, 1].
	Score float64
}

// suggestSimilar ranks names by phonetic and string similarity to the
// query. Exact (case-insensitive) matches are excluded: a reviewer asking
// about "Eldrinax" wants the near-misses, not the name itself.
func suggestSimilar(query string, names []string) []Suggestion {
	queryLower := strings.ToLower(strings.TrimSpace(query))
	if queryLower == "" {
		return nil
	}
	queryTokens := strings.Fields(queryLower)
	queryCodes := codesForTokens(queryTokens)

	var out []Suggestion
	for _, name := range names {
		nameLower := strings.ToLower(strings.TrimSpace(name))
		if nameLower == "" || nameLower == queryLower {
			continue
		}
		nameTokens := strings.Fields(nameLower)

		score := bestJWScore(queryTokens, nameTokens, queryLower, nameLower)
		phonetic := codesOverlap(queryCodes, codesForTokens(nameTokens))

		switch {
		case phonetic && score >= phoneticThreshold:
			out = append(out, Suggestion{Name: name, Score: score})
		case !phonetic && score >= fuzzyThreshold:
			out = append(out, Suggestion{Name: name, Score: score})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}

// codesForTokens returns the union of all Double Metaphone codes for the
// given tokens. Empty codes (words too short or with no consonants) are
// excluded.
func codesForTokens(tokens []string) map[string]struct{} {
	codes := make(map[string]struct{}, len(tokens)*2)
	for _, t := range tokens {
		p, s := matchr.DoubleMetaphone(t)
		if p != "" {
			codes[p] = struct{}{}
		}
		if s != "" {
			codes[s] = struct{}{}
		}
	}
	return codes
}

// codesOverlap reports whether the two code sets share at least one code.
func codesOverlap(a, b map[string]struct{}) bool {
	if len(a) > len(b) {
		a, b = b, a
	}
	for code := range a {
		if _, ok := b[code]; ok {
			return true
		}
	}
	return false
}

// bestJWScore computes the highest Jaro-Winkler similarity between the
// query and a name across three comparisons: the full strings, the
// space-stripped strings ("elder nacks" vs "eldrinax"), and the best
// pairwise token score. Multi-word names need all three; one spoken word
// often maps to one written word inside a longer name.
func bestJWScore(queryTokens, nameTokens []string, queryFull, nameFull string) float64 {
	score := matchr.JaroWinkler(queryFull, nameFull, false)

	if len(queryTokens) > 1 || len(nameTokens) > 1 {
		c1 := strings.Join(queryTokens, "")
		c2 := strings.Join(nameTokens, "")
		if s := matchr.JaroWinkler(c1, c2, false); s > score {
			score = s
		}
	}

	for _, qt := range queryTokens {
		for _, nt := range nameTokens {
			if s := matchr.JaroWinkler(qt, nt, false); s > score {
				score = s
			}
		}
	}
	return score
}
