package extract

import (
	"github.com/google/uuid"

	"github.com/lorescribe/lorescribe/internal/confidence"
	"github.com/lorescribe/lorescribe/pkg/lore"
)

// Threshold is the fixed confidence cut-off below which a candidate requires
// human review. Candidates scoring exactly Threshold are auto-accepted.
const Threshold = 0.7

// Result is one complete extraction pass over a transcript.
//
// LowConfidence is always a subset of Candidates: every member scores below
// [Threshold] and every non-member scores at or above it. Both slices are in
// document order. A Result is a snapshot — re-running extraction produces a
// fresh Result that replaces, never appends to, a previous one.
type Result struct {
	// Candidates covers every tagged name-type span in document order.
	Candidates []lore.Candidate

	// LowConfidence is the subset of Candidates needing human review.
	LowConfidence []lore.Candidate
}

// Extractor produces candidate lore entities from transcript text.
// It is stateless and safe for concurrent use.
type Extractor struct {
	tagger Tagger
}

// New returns an Extractor using the given tagger. A nil tagger selects the
// built-in [RuleTagger].
func New(tagger Tagger) *Extractor {
	if tagger == nil {
		tagger = NewRuleTagger()
	}
	return &Extractor{tagger: tagger}
}

// Extract runs a tagging pass over text and returns all candidates with
// their confidence scores and the low-confidence subset. Extraction is
// idempotent: the same text yields candidates with identical text, type,
// confidence, and offsets on every call (candidate IDs are fresh per pass —
// they identify a candidate within one review round only).
func (e *Extractor) Extract(text string) Result {
	spans := e.tagger.Spans(text)

	res := Result{
		Candidates: make([]lore.Candidate, 0, len(spans)),
	}
	for _, sp := range spans {
		c := lore.Candidate{
			ID:         uuid.NewString(),
			Text:       sp.Text,
			Type:       EntityTypeForTag(sp.Tag),
			Confidence: confidence.Score(sp.Text, string(sp.Tag)),
			Start:      sp.Start,
			End:        sp.End,
		}
		res.Candidates = append(res.Candidates, c)
		if c.Confidence < Threshold {
			res.LowConfidence = append(res.LowConfidence, c)
		}
	}
	return res
}

// EntityTypeForTag maps a tagger category to the domain entity type.
// Organization names map to [lore.EntityItem]: guilds and orders are treated
// as item-like wiki records, matching the historical campaign data.
func EntityTypeForTag(tag Tag) lore.EntityType {
	switch tag {
	case TagPersonalName:
		return lore.EntityCharacter
	case TagPlaceName:
		return lore.EntityLocation
	case TagOrganizationName:
		return lore.EntityItem
	default:
		return lore.EntityUnknown
	}
}
