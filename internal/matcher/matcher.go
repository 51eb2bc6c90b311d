// Package matcher implements the similarity fast-path router: it turns a
// ranked candidate list from vector search into a routing decision, with an
// entity-based similarity boost for corroborated matches.
package matcher

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/miwake-ai/miwake/internal/catalog"
	"github.com/miwake-ai/miwake/internal/model"
)

// Default thresholds. All three are configurable per engine instance.
const (
	DefaultFastPathThreshold      = 0.85
	DefaultAmbiguityGapThreshold  = 0.10
	DefaultLowConfidenceThreshold = 0.60

	// entityBoost is the relative similarity bump applied when extracted
	// entities corroborate the top match.
	entityBoost = 0.05
)

// Thresholds holds the matcher's routing knobs.
type Thresholds struct {
	FastPath      float64
	AmbiguityGap  float64
	LowConfidence float64
}

// DefaultThresholds returns the standard threshold set.
func DefaultThresholds() Thresholds {
	return Thresholds{
		FastPath:      DefaultFastPathThreshold,
		AmbiguityGap:  DefaultAmbiguityGapThreshold,
		LowConfidence: DefaultLowConfidenceThreshold,
	}
}

// Matcher routes a request based on its ranked candidate matches. It holds
// no per-request state; one instance serves all requests concurrently.
type Matcher struct {
	thresholds Thresholds
	logger     *slog.Logger
}

// New creates a matcher. Zero threshold fields fall back to defaults.
func New(thresholds Thresholds, logger *slog.Logger) *Matcher {
	if thresholds.FastPath <= 0 {
		thresholds.FastPath = DefaultFastPathThreshold
	}
	if thresholds.AmbiguityGap <= 0 {
		thresholds.AmbiguityGap = DefaultAmbiguityGapThreshold
	}
	if thresholds.LowConfidence <= 0 {
		thresholds.LowConfidence = DefaultLowConfidenceThreshold
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Matcher{thresholds: thresholds, logger: logger}
}

// Match routes from a candidate list ordered descending by similarity.
// An empty list is the expected clarification outcome, never an error.
func (m *Matcher) Match(matches []model.IntentMatch) model.MatchOutcome {
	if len(matches) == 0 {
		return model.MatchOutcome{
			Decision:        model.RouteClarification,
			TopMatches:      nil,
			IsAmbiguous:     true,
			AmbiguityReason: "No matches found in intent catalog",
		}
	}

	top := matches[0]

	if top.Similarity < m.thresholds.LowConfidence {
		return model.MatchOutcome{
			Decision:        model.RouteReasoningPath,
			TopMatches:      matches,
			IsAmbiguous:     true,
			AmbiguityReason: fmt.Sprintf("Low confidence (%.2f)", top.Similarity),
		}
	}

	if len(matches) > 1 {
		second := matches[1]
		gap := top.Similarity - second.Similarity
		if gap < m.thresholds.AmbiguityGap {
			if top.Category() != second.Category() {
				return model.MatchOutcome{
					Decision:    model.RouteReasoningPath,
					TopMatches:  matches,
					IsAmbiguous: true,
					AmbiguityReason: fmt.Sprintf("Multiple categories: %s vs %s (gap: %.2f)",
						top.IntentCode, second.IntentCode, gap),
				}
			}
			if top.IntentCode != second.IntentCode {
				return model.MatchOutcome{
					Decision:    model.RouteReasoningPath,
					TopMatches:  matches,
					IsAmbiguous: true,
					AmbiguityReason: fmt.Sprintf("Close match: %s (%.2f)",
						second.IntentCode, second.Similarity),
				}
			}
		}
	}

	if top.Similarity >= m.thresholds.FastPath {
		resolved := model.NewResolvedIntent(top.IntentCode, top.Similarity, top.ExampleText)
		return model.MatchOutcome{
			Decision:       model.RouteFastPath,
			TopMatches:     matches,
			ResolvedIntent: &resolved,
		}
	}

	// Medium confidence, unambiguous.
	return model.MatchOutcome{
		Decision:   model.RouteReasoningPath,
		TopMatches: matches,
	}
}

// MatchWithEntityBoost routes like Match, then applies a similarity boost
// when the extracted entity types intersect the expected entity types of
// the top match. The boost can upgrade an unambiguous medium-confidence
// outcome to the fast path.
func (m *Matcher) MatchWithEntityBoost(matches []model.IntentMatch, entities []model.Entity) model.MatchOutcome {
	out := m.Match(matches)
	if len(out.TopMatches) == 0 || len(entities) == 0 {
		return out
	}

	extracted := make(map[model.EntityType]bool, len(entities))
	for _, e := range entities {
		extracted[e.Type] = true
	}

	top := out.TopMatches[0]
	var overlap []string
	for _, want := range catalog.ExpectedEntities(top.IntentCode) {
		if extracted[want] {
			overlap = append(overlap, string(want))
		}
	}
	if len(overlap) == 0 {
		return out
	}

	boosted := model.Clamp01(top.Similarity * (1 + entityBoost))
	// Copy before boosting so the caller's slice is never mutated.
	out.TopMatches = append([]model.IntentMatch(nil), out.TopMatches...)
	out.TopMatches[0].Similarity = boosted

	if out.Decision != model.RouteFastPath && boosted >= m.thresholds.FastPath && !out.IsAmbiguous {
		resolved := model.NewResolvedIntent(top.IntentCode, boosted,
			top.ExampleText,
			"Entity boost: "+strings.Join(overlap, ", "),
		)
		out.ResolvedIntent = &resolved
		out.Decision = model.RouteFastPath
		m.logger.Debug("matcher: entity boost upgraded to fast path",
			"intent_code", top.IntentCode, "similarity", boosted, "entities", overlap)
	}
	return out
}

// Hints returns the candidate intent codes in rank order, for callers that
// pass match context to an external decomposition step.
func Hints(matches []model.IntentMatch) []string {
	hints := make([]string, 0, len(matches))
	for _, m := range matches {
		hints = append(hints, m.IntentCode)
	}
	return hints
}
