package model

// PathTaken names which route produced the final result.
type PathTaken string

const (
	PathFastPath         PathTaken = "fast_path"
	PathFastPathFallback PathTaken = "fast_path_fallback"
	PathReasoningPath    PathTaken = "reasoning_path"
	PathNoMatch          PathTaken = "no_match"
)

// Result is the assembled decision for one request.
//
// ConfidenceSummary is the minimum confidence across all resolved intents.
// A compound request is only as trustworthy as its weakest sub-intent.
type Result struct {
	RequestID             string            `json:"request_id,omitempty"`
	ResolvedIntents       []ResolvedIntent  `json:"resolved_intents"`
	IsCompound            bool              `json:"is_compound"`
	ConfidenceSummary     float64           `json:"confidence_summary"`
	RequiresHuman         bool              `json:"requires_human"`
	HumanHandoffReason    string            `json:"human_handoff_reason,omitempty"`
	PathTaken             PathTaken         `json:"path_taken"`
	ReasoningTrace        []string          `json:"reasoning_trace"`
	ProcessingTimeMS      int64             `json:"processing_time_ms"`
	Entities              []Entity          `json:"entities,omitempty"`
	Sentiment             *SentimentResult  `json:"sentiment,omitempty"`
	CompoundSignals       []CompoundSignal  `json:"compound_signals,omitempty"`
	Conflict              *ConflictRecord   `json:"conflict,omitempty"`
	RequiresClarification bool              `json:"requires_clarification"`
	ClarificationQuestion string            `json:"clarification_question,omitempty"`
	ClarificationOptions  []string          `json:"clarification_options,omitempty"`
	PolicyDecisions       []*PolicyDecision `json:"policy_decisions,omitempty"`
}

// MinConfidence returns the minimum confidence across intents, or 0 when
// the list is empty.
func MinConfidence(intents []ResolvedIntent) float64 {
	if len(intents) == 0 {
		return 0
	}
	minConf := intents[0].Confidence
	for _, in := range intents[1:] {
		if in.Confidence < minConf {
			minConf = in.Confidence
		}
	}
	return minConf
}
