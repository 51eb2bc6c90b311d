// Package model defines the domain types shared across the decision pipeline:
// intent codes, matches, routing decisions, compound signals, conflicts,
// enriched context, and the final resolution result.
package model

import "strings"

// ConfidenceTier is the coarse confidence bucket for a resolved intent.
type ConfidenceTier string

const (
	TierHigh   ConfidenceTier = "high"   // >= 0.85: fast path, auto-resolve
	TierMedium ConfidenceTier = "medium" // 0.60-0.85: reasoning path
	TierLow    ConfidenceTier = "low"    // < 0.60: clarification or handoff
)

// TierFor buckets a numeric confidence into a ConfidenceTier.
func TierFor(confidence float64) ConfidenceTier {
	switch {
	case confidence >= 0.85:
		return TierHigh
	case confidence >= 0.60:
		return TierMedium
	default:
		return TierLow
	}
}

// Clamp01 clamps v into [0, 1]. Similarity and confidence values are always
// stored clamped; callers never see out-of-range scores.
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// SplitIntentCode splits a CATEGORY.INTENT code on the first dot.
// A code with no dot yields the whole code for both parts, matching the
// round-trip guarantee only for well-formed codes.
func SplitIntentCode(code string) (category, intent string) {
	category, intent, ok := strings.Cut(code, ".")
	if !ok {
		return code, code
	}
	return category, intent
}

// JoinIntentCode reassembles a CATEGORY.INTENT code.
func JoinIntentCode(category, intent string) string {
	return category + "." + intent
}

// ResolvedIntent is a single atomic classified intent with confidence and
// supporting evidence.
type ResolvedIntent struct {
	Category       string         `json:"category"`
	Intent         string         `json:"intent"`
	Confidence     float64        `json:"confidence"`
	ConfidenceTier ConfidenceTier `json:"confidence_tier"`
	Evidence       []string       `json:"evidence,omitempty"`
}

// IntentCode returns the full CATEGORY.INTENT code.
func (r ResolvedIntent) IntentCode() string {
	return JoinIntentCode(r.Category, r.Intent)
}

// NewResolvedIntent builds a ResolvedIntent from a full intent code,
// clamping confidence and deriving the tier.
func NewResolvedIntent(code string, confidence float64, evidence ...string) ResolvedIntent {
	category, intent := SplitIntentCode(code)
	c := Clamp01(confidence)
	return ResolvedIntent{
		Category:       category,
		Intent:         intent,
		Confidence:     c,
		ConfidenceTier: TierFor(c),
		Evidence:       evidence,
	}
}
