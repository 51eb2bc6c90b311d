// Package resolver settles conflicts between resolved intents in compound
// requests. It sits between decomposition and policy evaluation: given two
// intents that cannot both be honored for the same item, it narrows to a
// subset or asks the customer to choose.
package resolver

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/miwake-ai/miwake/internal/model"
)

// frustrationCutoff switches the resolver into de-escalation mode, where
// the customer-favorable table replaces the business one.
const frustrationCutoff = 0.7

// preferencePatterns extract the word a customer explicitly prefers.
// Ordered; the first matching pattern wins.
var preferencePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:i\s+)?prefer\s+(?:to\s+)?(\w+)`),
	regexp.MustCompile(`(?:i\s+)?(?:want|would like)\s+(?:to\s+)?(?:a\s+)?(\w+)\s+(?:not|instead)`),
	regexp.MustCompile(`(?:just|only)\s+(?:want\s+(?:to\s+)?)?(?:a\s+)?(\w+)`),
	regexp.MustCompile(`(\w+)\s+not\s+(?:a\s+)?(?:refund|return|exchange)`),
}

// negationPattern catches "X, not Y" phrasings; the non-negated action is
// the preferred one.
var negationPattern = regexp.MustCompile(
	`(refund|return|exchange|cancel|expedite)[^,]*,?\s*not\s+(refund|return|exchange|cancel|expedite)`)

// Input carries everything the resolver considers for one request.
type Input struct {
	Intents          []model.ResolvedIntent
	Entities         []model.Entity
	Context          *model.EnrichedContext
	Text             string
	CustomerTier     model.CustomerTier
	FrustrationScore float64
}

// Resolver applies the ordered resolution chain. Stateless; one instance
// serves all requests.
type Resolver struct {
	logger *slog.Logger
}

// New creates a resolver.
func New(logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{logger: logger}
}

// Resolve runs the resolution chain top to bottom; the first applicable
// step wins. The returned trace records one line per decision taken and
// is append-only.
func (r *Resolver) Resolve(in Input) model.ConflictResolution {
	trace := []string{"Conflict resolution"}

	if len(in.Intents) < 2 {
		trace = append(trace, "Single intent - no conflict possible")
		return model.ConflictResolution{FinalIntents: in.Intents, ReasoningTrace: trace}
	}

	conflicts := detectConflicts(in.Intents)
	if len(conflicts) == 0 {
		trace = append(trace, fmt.Sprintf("No conflicts detected among %d intents", len(in.Intents)))
		return model.ConflictResolution{FinalIntents: in.Intents, ReasoningTrace: trace}
	}

	// Handle the first detected conflict.
	c := conflicts[0]
	trace = append(trace, fmt.Sprintf("Detected conflict: %s vs %s", c.a.IntentCode(), c.b.IntentCode()))
	trace = append(trace, "Conflict type: "+c.description)

	conflictType := classifyConflict(c.a, c.b, in.Context)
	record := func(strategy model.ResolutionStrategy) *model.ConflictRecord {
		return &model.ConflictRecord{
			IntentA:            c.a.IntentCode(),
			IntentB:            c.b.IntentCode(),
			ConflictType:       conflictType,
			Description:        c.description,
			ResolutionStrategy: strategy,
		}
	}

	if differentItems(in.Entities) {
		trace = append(trace, "Intents apply to different items - no conflict")
		return model.ConflictResolution{FinalIntents: in.Intents, ReasoningTrace: trace}
	}

	if pref := extractPreference(in.Text); pref != "" {
		trace = append(trace, fmt.Sprintf("Customer preference detected: %q", pref))
		if resolved := applyPreference(in.Intents, pref, c.a, c.b); resolved != nil {
			trace = append(trace, fmt.Sprintf("Resolved to %s based on stated preference", resolved[0].IntentCode()))
			return model.ConflictResolution{
				FinalIntents:        resolved,
				HasConflict:         true,
				Conflict:            record(model.StrategyPreference),
				ConflictType:        conflictType,
				ConflictDescription: c.description,
				ResolutionStrategy:  model.StrategyPreference,
				ReasoningTrace:      trace,
			}
		}
	}

	if tier := in.CustomerTier; tier == model.TierVIP || tier == model.TierAtRisk {
		if !contradictoryPairs[key(c.a.IntentCode(), c.b.IntentCode())] {
			trace = append(trace, string(tier)+" customer - approving both actions")
			return model.ConflictResolution{
				FinalIntents:        in.Intents,
				HasConflict:         true,
				Conflict:            record(model.StrategyPriority),
				ConflictType:        conflictType,
				ConflictDescription: c.description,
				ResolutionStrategy:  model.StrategyPriority,
				ReasoningTrace:      trace,
			}
		}
	}

	if in.FrustrationScore > frustrationCutoff {
		trace = append(trace, fmt.Sprintf("High frustration (%.2f) - favoring customer preference", in.FrustrationScore))
		resolved := applyCustomerFavorable(in.Intents, c.a, c.b)
		trace = append(trace, fmt.Sprintf("Resolved to %s (customer-favorable)", resolved[0].IntentCode()))
		return model.ConflictResolution{
			FinalIntents:        resolved,
			HasConflict:         true,
			Conflict:            record(model.StrategyPriority),
			ConflictType:        conflictType,
			ConflictDescription: c.description,
			ResolutionStrategy:  model.StrategyPriority,
			ReasoningTrace:      trace,
		}
	}

	if resolved := applyBusinessPriority(in.Intents, c.a, c.b); resolved != nil {
		trace = append(trace, fmt.Sprintf("Applied business priority: %s preferred", resolved[0].IntentCode()))
		return model.ConflictResolution{
			FinalIntents:        resolved,
			HasConflict:         true,
			Conflict:            record(model.StrategyPriority),
			ConflictType:        conflictType,
			ConflictDescription: c.description,
			ResolutionStrategy:  model.StrategyPriority,
			ReasoningTrace:      trace,
		}
	}

	// Nothing resolved it: keep all intents pending behind a question.
	question, options := generateClarification(c.a, c.b)
	trace = append(trace, "No clear resolution - requesting clarification")
	return model.ConflictResolution{
		FinalIntents:          in.Intents,
		HasConflict:           true,
		Conflict:              record(model.StrategyClarification),
		ConflictType:          conflictType,
		ConflictDescription:   c.description,
		ResolutionStrategy:    model.StrategyClarification,
		RequiresClarification: true,
		ClarificationQuestion: question,
		ClarificationOptions:  options,
		ReasoningTrace:        trace,
	}
}

type conflict struct {
	a, b        model.ResolvedIntent
	description string
}

func detectConflicts(intents []model.ResolvedIntent) []conflict {
	var out []conflict
	for i, a := range intents {
		for _, b := range intents[i+1:] {
			if desc, ok := exclusivePairs[key(a.IntentCode(), b.IntentCode())]; ok {
				out = append(out, conflict{a: a, b: b, description: desc})
			}
		}
	}
	return out
}

func classifyConflict(a, b model.ResolvedIntent, ctx *model.EnrichedContext) model.ConflictType {
	if ctx != nil && ctx.Order != nil && ctx.Order.ReturnWindowExpired {
		if strings.Contains(a.IntentCode(), "RETURN") || strings.Contains(b.IntentCode(), "RETURN") {
			return model.ConflictPolicyViolation
		}
	}
	if contradictoryPairs[key(a.IntentCode(), b.IntentCode())] {
		return model.ConflictContradictoryPolicy
	}
	return model.ConflictMutuallyExclusive
}

// differentItems reports whether the entities name at least two distinct
// product identifiers, meaning the intents target different items.
func differentItems(entities []model.Entity) bool {
	distinct := make(map[string]bool)
	for _, e := range entities {
		if e.Type == model.EntityProductSKU || e.Type == model.EntityProductName {
			distinct[e.Value] = true
		}
	}
	return len(distinct) >= 2
}

// extractPreference pulls an explicit customer preference class from the
// text, or returns "" when none is stated.
func extractPreference(text string) string {
	lower := strings.ToLower(text)

	for _, p := range preferencePatterns {
		m := p.FindStringSubmatch(lower)
		if m == nil {
			continue
		}
		if pref := classifyPreferenceWord(m[1]); pref != "" {
			return pref
		}
	}

	if m := negationPattern.FindStringSubmatch(lower); m != nil {
		return classifyPreferenceWord(m[1])
	}
	return ""
}

func classifyPreferenceWord(word string) string {
	for _, entry := range preferenceKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(kw, word) || strings.Contains(word, kw) {
				return entry.preference
			}
		}
	}
	return ""
}

func applyPreference(intents []model.ResolvedIntent, preference string, a, b model.ResolvedIntent) []model.ResolvedIntent {
	name, ok := preferenceIntent[preference]
	if !ok {
		return nil
	}

	var preferred *model.ResolvedIntent
	for _, in := range []model.ResolvedIntent{a, b} {
		if strings.Contains(in.IntentCode(), name) {
			preferred = &in
			break
		}
	}
	if preferred == nil {
		return nil
	}

	removed := b.IntentCode()
	if preferred.IntentCode() == b.IntentCode() {
		removed = a.IntentCode()
	}
	return dropIntent(intents, removed)
}

func applyCustomerFavorable(intents []model.ResolvedIntent, a, b model.ResolvedIntent) []model.ResolvedIntent {
	scoreA := customerFavorablePriority[a.Intent]
	scoreB := customerFavorablePriority[b.Intent]

	removed := b.IntentCode()
	if scoreA < scoreB {
		removed = a.IntentCode()
	}
	return dropIntent(intents, removed)
}

func applyBusinessPriority(intents []model.ResolvedIntent, a, b model.ResolvedIntent) []model.ResolvedIntent {
	prioA := businessPriority[a.IntentCode()]
	prioB := businessPriority[b.IntentCode()]
	if prioA == prioB {
		return nil
	}

	removed := b.IntentCode()
	if prioA < prioB {
		removed = a.IntentCode()
	}
	return dropIntent(intents, removed)
}

func dropIntent(intents []model.ResolvedIntent, code string) []model.ResolvedIntent {
	out := make([]model.ResolvedIntent, 0, len(intents))
	for _, in := range intents {
		if in.IntentCode() != code {
			out = append(out, in)
		}
	}
	return out
}

func generateClarification(a, b model.ResolvedIntent) (string, []string) {
	descA := describeIntent(a)
	descB := describeIntent(b)

	question := fmt.Sprintf(
		"I noticed you'd like to both %s and %s. These options are mutually exclusive for the same item. Which would you prefer?",
		descA, descB)
	options := []string{
		"I'd like to " + descA,
		"I'd like to " + descB,
		"I need help deciding",
	}
	return question, options
}

func describeIntent(in model.ResolvedIntent) string {
	if d, ok := clarificationDescriptions[in.Intent]; ok {
		return d
	}
	return strings.ReplaceAll(strings.ToLower(in.Intent), "_", " ")
}
