package confidence_test

import (
	"testing"

	"github.com/lorescribe/lorescribe/internal/confidence"
)

func TestScore(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want float64
	}{
		// Capitalized, length 5, no fantasy pattern: 0.5 + 0.2.
		{"plain capitalized name", "Frodo", 0.7},
		// Capitalized, length 6, contains "thor": 0.5 + 0.2 − 0.3.
		{"norse pattern", "Thorin", 0.4},
		// Capitalized, length 7, contains "al" (in "gandALf"): 0.5 + 0.2 − 0.3.
		{"elvish particle mid-word", "Gandalf", 0.4},
		// Lowercase, length 5, no pattern: base only.
		{"lowercase common word", "sword", 0.5},
		// Capitalized, length 2 (<3): 0.5 + 0.2 − 0.2.
		{"very short", "Om", 0.5},
		// Lowercase, length 2: 0.5 − 0.2.
		{"short lowercase", "of", 0.3},
		// Capitalized, length 12 (>10), no pattern: 0.5 + 0.2 − 0.1.
		{"long name", "Stormbringer", 0.6},
		// Capitalized, length 8, contains "ae": 0.5 + 0.2 − 0.3.
		{"welsh diphthong", "Faerghus", 0.4},
		// Capitalized, length 7, contains apostrophe: 0.5 + 0.2 − 0.3.
		{"apostrophe", "Kel'dor", 0.4},
		// Lowercase, length 11 (>10), contains "el": 0.5 − 0.1 − 0.3.
		{"long lowercase with pattern", "spellweaver", 0.1},
		// Capitalized, length 9, contains "el": 0.5 + 0.2 − 0.3.
		{"elvish particle", "Elsewhere", 0.4},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := confidence.Score(tc.text, "PersonalName")
			if !approx(got, tc.want) {
				t.Errorf("Score(%q) = %v, want %v", tc.text, got, tc.want)
			}
		})
	}
}

func TestScoreIsDeterministic(t *testing.T) {
	t.Parallel()

	first := confidence.Score("Wynnefred", "PersonalName")
	for range 100 {
		if got := confidence.Score("Wynnefred", "PersonalName"); got != first {
			t.Fatalf("Score not deterministic: got %v then %v", first, got)
		}
	}
}

func TestScoreStaysInRange(t *testing.T) {
	t.Parallel()

	// Worst case stacks every penalty; best case stacks every bonus.
	inputs := []string{
		"", "x", "zz", "a'-zzxxkkwynne-thor'odin",
		"Gandalf", "The Grey Pilgrim of the Western Reaches",
		"Ææthelwynne", "名前",
	}
	for _, in := range inputs {
		got := confidence.Score(in, "PlaceName")
		if got < 0 || got > 1 {
			t.Errorf("Score(%q) = %v, out of [0,1]", in, got)
		}
	}
}

func TestScoreCountsRunesNotBytes(t *testing.T) {
	t.Parallel()

	// Two runes but six bytes: must take the short-word penalty, and the
	// leading rune is uppercase.
	got := confidence.Score("Æá", "PersonalName")
	want := 0.5 // 0.5 + 0.2 (upper) − 0.2 (len < 3)
	if !approx(got, want) {
		t.Errorf("Score(%q) = %v, want %v", "Æá", got, want)
	}
}

func approx(a, b float64) bool {
	const eps = 1e-9
	d := a - b
	return d < eps && d > -eps
}
