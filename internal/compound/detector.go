// Package compound detects multi-intent requests from linguistic signals
// and candidate-category spread. A positive detection forces the pipeline
// off the fast path into decomposition.
package compound

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/miwake-ai/miwake/internal/model"
)

// DefaultThreshold is the minimum combined confidence to flag a message
// as compound.
const DefaultThreshold = 0.60

// Per-signal weights.
const (
	conjunctionWeight   = 0.70
	multiSentenceWeight = 0.80
	categoryMixWeight   = 0.75
)

// conjunctionPatterns is the ordered list of compound conjunctions. Order
// is the evaluation order and determines which signal fires first.
var conjunctionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\band\s+(?:also|then|I\s+also)\b`),
	regexp.MustCompile(`(?i)\bbut\s+also\b`),
	regexp.MustCompile(`(?i)\balso\s+(?:want|need|would\s+like)\b`),
	regexp.MustCompile(`(?i)\bplus\b`),
	regexp.MustCompile(`(?i)\bas\s+well\s+as\b`),
	regexp.MustCompile(`(?i)\bin\s+addition\b`),
	regexp.MustCompile(`(?i)\bon\s+top\s+of\s+that\b`),
	regexp.MustCompile(`(?i)\bwhile\s+you'?re\s+at\s+it\b`),
}

// actionPatterns matches the verbs and phrases that indicate a distinct
// customer action inside a sentence segment.
var actionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(cancel|return|exchange|refund|track|replace|change|update|modify)\b`),
	regexp.MustCompile(`(?i)\b(where\s+is|when\s+will|how\s+do\s+i|can\s+i|i\s+want|i\s+need)\b`),
	regexp.MustCompile(`(?i)\b(check|find|get|send|ship|deliver)\b`),
}

// segmentBoundary marks sentence breaks and comma or semicolon clause
// breaks. A clause break only splits when the text after it opens with a
// conjunction or "I", and the opener stays in the tail segment so its
// action phrases still match.
var (
	segmentBoundary = regexp.MustCompile(`[.!?]\s+|\s*[,;]\s+`)
	clauseOpener    = regexp.MustCompile(`^(?:and|but|also|I\s)`)
)

// Detector flags compound intents. Stateless; safe for concurrent use.
type Detector struct {
	threshold float64
}

// New creates a detector. A non-positive threshold falls back to the
// default.
func New(threshold float64) *Detector {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Detector{threshold: threshold}
}

// Detect analyzes a message for compound-intent signals. topMatches is
// optional; when present the top three candidates are checked for
// category spread.
func (d *Detector) Detect(text string, topMatches []model.IntentMatch) model.CompoundResult {
	var signals []model.CompoundSignal

	signals = append(signals, detectConjunctions(text)...)
	signals = append(signals, detectMultiActionSegments(SegmentSentences(text))...)
	if len(topMatches) > 0 {
		signals = append(signals, detectCategoryMix(topMatches)...)
	}

	var confidence float64
	if len(signals) > 0 {
		var sum float64
		for _, s := range signals {
			sum += s.Confidence
		}
		confidence = model.Clamp01(sum / 2)
	}

	return model.CompoundResult{
		IsCompound: confidence >= d.threshold,
		Confidence: confidence,
		Signals:    signals,
	}
}

// PotentialIntents returns the candidate intent codes worth decomposing:
// the top match alone for simple messages, or the top three candidates
// with similarity at least 0.50 for compound ones.
func (d *Detector) PotentialIntents(text string, topMatches []model.IntentMatch) []string {
	res := d.Detect(text, topMatches)
	if !res.IsCompound {
		if len(topMatches) == 0 {
			return nil
		}
		return []string{topMatches[0].IntentCode}
	}
	var codes []string
	for _, m := range topMatches {
		if len(codes) == 3 {
			break
		}
		if m.Similarity >= 0.50 {
			codes = append(codes, m.IntentCode)
		}
	}
	return codes
}

func detectConjunctions(text string) []model.CompoundSignal {
	var signals []model.CompoundSignal
	for _, p := range conjunctionPatterns {
		if p.MatchString(text) {
			signals = append(signals, model.CompoundSignal{
				SignalType:  model.SignalConjunction,
				Description: "Found compound conjunction: " + p.String(),
				Confidence:  conjunctionWeight,
			})
		}
	}
	return signals
}

// SegmentSentences splits a message into trimmed sentence segments,
// dropping fragments of three characters or fewer.
func SegmentSentences(text string) []string {
	var segments []string
	emit := func(s string) {
		s = strings.TrimSpace(s)
		if len(s) > 3 {
			segments = append(segments, s)
		}
	}

	start := 0
	for _, loc := range segmentBoundary.FindAllStringIndex(text, -1) {
		delim := text[loc[0]:loc[1]]
		if strings.ContainsAny(delim, ",;") && !clauseOpener.MatchString(text[loc[1]:]) {
			continue
		}
		emit(text[start:loc[0]])
		start = loc[1]
	}
	emit(text[start:])
	return segments
}

func detectMultiActionSegments(segments []string) []model.CompoundSignal {
	if len(segments) < 2 {
		return nil
	}

	// Distinct actions in first-seen order, and the count of segments that
	// contributed at least one action.
	var allActions []string
	seen := make(map[string]bool)
	contributing := 0

	for _, segment := range segments {
		found := false
		for _, p := range actionPatterns {
			for _, m := range p.FindAllStringSubmatch(strings.ToLower(segment), -1) {
				found = true
				action := m[1]
				if !seen[action] {
					seen[action] = true
					allActions = append(allActions, action)
				}
			}
		}
		if found {
			contributing++
		}
	}

	if contributing >= 2 && len(allActions) >= 2 {
		return []model.CompoundSignal{{
			SignalType: model.SignalMultipleSentences,
			Description: fmt.Sprintf("Found %d segments with different actions: %s",
				contributing, strings.Join(allActions, ", ")),
			Confidence: multiSentenceWeight,
		}}
	}
	return nil
}

func detectCategoryMix(topMatches []model.IntentMatch) []model.CompoundSignal {
	if len(topMatches) < 2 {
		return nil
	}

	var categories []string
	seen := make(map[string]bool)
	for i, m := range topMatches {
		if i == 3 {
			break
		}
		if m.Similarity >= 0.50 {
			if cat := m.Category(); !seen[cat] {
				seen[cat] = true
				categories = append(categories, cat)
			}
		}
	}

	if len(categories) >= 2 {
		return []model.CompoundSignal{{
			SignalType:  model.SignalCategoryMix,
			Description: "Top matches span categories: " + strings.Join(categories, ", "),
			Confidence:  categoryMixWeight,
		}}
	}
	return nil
}
