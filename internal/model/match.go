package model

// RoutingDecision is the matcher's verdict on how a request proceeds.
type RoutingDecision string

const (
	RouteFastPath      RoutingDecision = "fast_path"      // high confidence, single intent
	RouteReasoningPath RoutingDecision = "reasoning_path" // needs decomposition
	RouteClarification RoutingDecision = "clarification"  // too ambiguous, ask the customer
)

// IntentMatch is one ranked candidate from the vector search collaborator.
// Lists are ordered descending by similarity; ties keep catalog insertion order.
type IntentMatch struct {
	IntentCode  string  `json:"intent_code"`
	Similarity  float64 `json:"similarity"`
	ExampleText string  `json:"example_text"`
}

// Category returns the category prefix of the matched intent code.
func (m IntentMatch) Category() string {
	category, _ := SplitIntentCode(m.IntentCode)
	return category
}

// MatchOutcome is the similarity matcher's full output for one request.
type MatchOutcome struct {
	Decision        RoutingDecision `json:"decision"`
	TopMatches      []IntentMatch   `json:"top_matches"`
	ResolvedIntent  *ResolvedIntent `json:"resolved_intent,omitempty"`
	IsAmbiguous     bool            `json:"is_ambiguous"`
	AmbiguityReason string          `json:"ambiguity_reason,omitempty"`
}
