// Package extract turns a finalized session transcript into a sequence of
// candidate lore entities with heuristic confidence scores.
//
// Tagging and scoring are separate concerns: a [Tagger] finds name-type spans
// in the text, and the [Extractor] maps each span's tag to a domain entity
// type and scores it with the confidence heuristic. The built-in [RuleTagger]
// is a cue-word heuristic good enough for review workflows; a real NLP
// tagger can be injected through the [Tagger] interface without touching the
// extraction or scoring logic.
package extract

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Tag is the coarse semantic category a tagger assigns to a span.
type Tag string

const (
	// TagPersonalName marks a person's name.
	TagPersonalName Tag = "PersonalName"

	// TagPlaceName marks a named location.
	TagPlaceName Tag = "PlaceName"

	// TagOrganizationName marks a named organization, guild, or order.
	TagOrganizationName Tag = "OrganizationName"

	// TagOther marks a tagged span of no recognised name category.
	TagOther Tag = "Other"
)

// Span is a tagged region of source text. Start and End are byte offsets
// such that text[Start:End] == Text.
type Span struct {
	Text  string
	Start int
	End   int
	Tag   Tag
}

// Tagger locates name-type spans in a transcript. Implementations must
// return spans in document order and must be deterministic for a given
// input.
type Tagger interface {
	Spans(text string) []Span
}

// Cue-word tables for the rule tagger. Matching is case-insensitive.
var (
	// honorifics preceding a capitalized run mark it as a personal name.
	honorifics = map[string]bool{
		"mr": true, "mrs": true, "ms": true, "dr": true,
		"sir": true, "dame": true, "lord": true, "lady": true,
		"king": true, "queen": true, "prince": true, "princess": true,
		"captain": true, "master": true, "saint": true,
	}

	// placePrepositions preceding a capitalized run mark it as a place.
	placePrepositions = map[string]bool{
		"in": true, "at": true, "near": true, "into": true,
		"through": true, "toward": true, "towards": true, "beneath": true,
	}

	// placeHeads are head nouns that mark a capitalized run as a place
	// when they appear inside it (e.g. "Everfall Keep").
	placeHeads = map[string]bool{
		"city": true, "town": true, "village": true, "keep": true,
		"tower": true, "castle": true, "forest": true, "mountain": true,
		"mountains": true, "river": true, "isle": true, "bay": true,
		"vale": true, "marsh": true, "caverns": true, "shire": true,
	}

	// orgHeads are head nouns that mark a capitalized run as an
	// organization (e.g. "the Amber Guild").
	orgHeads = map[string]bool{
		"guild": true, "order": true, "company": true, "brotherhood": true,
		"sisterhood": true, "legion": true, "circle": true, "covenant": true,
		"consortium": true, "syndicate": true,
	}

	// connectors may appear inside a multi-word name between capitalized
	// words ("Tower of Whispers", "Bay of the Drowned").
	connectors = map[string]bool{
		"of": true, "the": true,
	}
)

// RuleTagger is the built-in heuristic [Tagger]. It groups runs of
// capitalized words (allowing "of"/"the" connectors between them) and
// classifies each run by cue words:
//
//   - a run containing an organization head noun → [TagOrganizationName]
//   - a run containing a place head noun, or preceded by a place
//     preposition → [TagPlaceName]
//   - a run preceded by an honorific → [TagPersonalName]
//   - any other capitalized run that is not sentence-initial-only →
//     [TagPersonalName]
//
// A single capitalized word at the start of a sentence is ignored unless a
// cue word vouches for it; otherwise ordinary sentence capitalization would
// flood the review queue.
//
// The zero value is ready to use. RuleTagger is stateless and safe for
// concurrent use.
type RuleTagger struct{}

// NewRuleTagger returns the built-in heuristic tagger.
func NewRuleTagger() *RuleTagger { return &RuleTagger{} }

// word is a tokenized word with its byte offsets.
type word struct {
	text          string
	start, end    int
	sentenceStart bool
}

// Spans implements [Tagger].
func (rt *RuleTagger) Spans(text string) []Span {
	words := tokenize(text)
	var spans []Span

	for i := 0; i < len(words); {
		if !isCapitalized(words[i].text) || isCue(words[i].text) {
			i++
			continue
		}

		// Extend the run across further capitalized words and connectors.
		// A connector is only absorbed when a capitalized word follows it.
		last := i
		for j := i + 1; j < len(words); j++ {
			if words[j].sentenceStart {
				break
			}
			w := strings.ToLower(trimPunct(words[j].text))
			if isCapitalized(words[j].text) && !isCue(words[j].text) {
				last = j
				continue
			}
			if connectors[w] && j+1 < len(words) && isCapitalized(words[j+1].text) {
				continue
			}
			break
		}

		start := words[i].start
		end := words[last].end
		runText := text[start:end]
		tag, keep := rt.classify(words, i, last, runText)
		if keep {
			spans = append(spans, Span{Text: runText, Start: start, End: end, Tag: tag})
		}
		i = last + 1
	}
	return spans
}

// classify decides the tag for the capitalized run words[first..last].
func (rt *RuleTagger) classify(words []word, first, last int, runText string) (Tag, bool) {
	var prev string
	if first > 0 {
		prev = strings.ToLower(trimPunct(words[first-1].text))
	}

	for k := first; k <= last; k++ {
		w := strings.ToLower(trimPunct(words[k].text))
		if orgHeads[w] {
			return TagOrganizationName, true
		}
	}
	for k := first; k <= last; k++ {
		w := strings.ToLower(trimPunct(words[k].text))
		if placeHeads[w] {
			return TagPlaceName, true
		}
	}
	if placePrepositions[prev] {
		return TagPlaceName, true
	}
	if honorifics[prev] {
		return TagPersonalName, true
	}

	// Lone sentence-initial capitalized word with no cue: ordinary
	// sentence capitalization, not a name.
	if first == last && words[first].sentenceStart {
		return TagOther, false
	}
	return TagPersonalName, true
}

// tokenize splits text into words with byte offsets, marking words that
// start a sentence (first word, or first word after ._!_? punctuation).
func tokenize(text string) []word {
	var words []word
	sentenceStart := true

	i := 0
	for i < len(text) {
		r, size := utf8.DecodeRuneInString(text[i:])
		if unicode.IsSpace(r) {
			i += size
			continue
		}

		start := i
		endsSentence := false
		for i < len(text) {
			r, size = utf8.DecodeRuneInString(text[i:])
			if unicode.IsSpace(r) {
				break
			}
			if r == '.' || r == '!' || r == '?' {
				endsSentence = true
			}
			i += size
		}
		words = append(words, word{
			text:          text[start:i],
			start:         start,
			end:           trimPunctEnd(text, start, i),
			sentenceStart: sentenceStart,
		})
		sentenceStart = endsSentence
	}
	return words
}

// trimPunctEnd returns the byte offset of the word end with trailing
// punctuation stripped, so spans never include a closing "." or ",".
func trimPunctEnd(text string, start, end int) int {
	for end > start {
		r, size := utf8.DecodeLastRuneInString(text[start:end])
		if unicode.IsLetter(r) || unicode.IsNumber(r) || r == '\'' || r == '-' {
			break
		}
		end -= size
	}
	return end
}

// trimPunct strips leading and trailing non-word runes.
func trimPunct(s string) string {
	return strings.TrimFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r) && r != '\'' && r != '-'
	})
}

// isCapitalized reports whether the word's first letter rune is uppercase.
func isCapitalized(s string) bool {
	s = trimPunct(s)
	r, _ := utf8.DecodeRuneInString(s)
	return unicode.IsUpper(r)
}

// isCue reports whether the word is itself a cue word (honorific or
// connector) that should not anchor a run on its own.
func isCue(s string) bool {
	w := strings.ToLower(trimPunct(s))
	return honorifics[w] || connectors[w]
}
