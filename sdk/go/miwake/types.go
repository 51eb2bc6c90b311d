package miwake

// ResolveRequest is one message to classify. Text is required; everything
// else is optional context. The tenant comes from the client's
// credentials, never from the request.
type ResolveRequest struct {
	Text            string   `json:"text"`
	Channel         string   `json:"channel,omitempty"`
	CustomerEmail   string   `json:"customer_email,omitempty"`
	CustomerTier    string   `json:"customer_tier,omitempty"`
	OrderIDs        []string `json:"order_ids,omitempty"`
	PreviousIntents []string `json:"previous_intents,omitempty"`
}

// ResolvedIntent is a single classified intent with confidence and
// supporting evidence.
type ResolvedIntent struct {
	Category       string   `json:"category"`
	Intent         string   `json:"intent"`
	Confidence     float64  `json:"confidence"`
	ConfidenceTier string   `json:"confidence_tier"`
	Evidence       []string `json:"evidence,omitempty"`
}

// IntentCode returns the full CATEGORY.INTENT code.
func (r ResolvedIntent) IntentCode() string {
	return r.Category + "." + r.Intent
}

// Entity is a structured value extracted from the message text.
type Entity struct {
	Type       string  `json:"entity_type"`
	Value      string  `json:"value"`
	RawSpan    string  `json:"raw_span"`
	StartPos   int     `json:"start_pos"`
	EndPos     int     `json:"end_pos"`
	Confidence float64 `json:"confidence"`
}

// SentimentResult scores the emotional register of the message.
type SentimentResult struct {
	Sentiment    float64  `json:"sentiment"`
	Urgency      float64  `json:"urgency"`
	Frustration  float64  `json:"frustration"`
	PriorityFlag bool     `json:"priority_flag"`
	Signals      []string `json:"signals,omitempty"`
}

// CompoundSignal is one piece of evidence that the message carries more
// than one request.
type CompoundSignal struct {
	SignalType  string  `json:"signal_type"`
	Description string  `json:"description"`
	Confidence  float64 `json:"confidence"`
}

// ConflictRecord describes a detected conflict between two resolved
// intents and how it was settled.
type ConflictRecord struct {
	IntentA            string `json:"intent_a"`
	IntentB            string `json:"intent_b"`
	ConflictType       string `json:"conflict_type"`
	Description        string `json:"description"`
	ResolutionStrategy string `json:"resolution_strategy"`
}

// PolicyDecision is the tenant-policy verdict for one resolved intent.
type PolicyDecision struct {
	IntentCode              string   `json:"intent_code"`
	AutoApproveReturn       bool     `json:"auto_approve_return"`
	AutoApproveRefund       bool     `json:"auto_approve_refund"`
	AutoApproveReplacement  bool     `json:"auto_approve_replacement"`
	EscalationRequired      bool     `json:"escalation_required"`
	EscalationReasons       []string `json:"escalation_reasons,omitempty"`
	PriorityFlag            bool     `json:"priority_flag"`
	PriorityReasons         []string `json:"priority_reasons,omitempty"`
	ReturnEligible          bool     `json:"return_eligible"`
	ReturnEligibilityReason string   `json:"return_eligibility_reason,omitempty"`
	DaysUntilReturnExpires  int      `json:"days_until_return_expires"`
	RecommendedAction       string   `json:"recommended_action"`
	RulesApplied            []string `json:"rules_applied"`
}

// Result is the assembled decision for one message.
type Result struct {
	RequestID             string            `json:"request_id,omitempty"`
	ResolvedIntents       []ResolvedIntent  `json:"resolved_intents"`
	IsCompound            bool              `json:"is_compound"`
	ConfidenceSummary     float64           `json:"confidence_summary"`
	RequiresHuman         bool              `json:"requires_human"`
	HumanHandoffReason    string            `json:"human_handoff_reason,omitempty"`
	PathTaken             string            `json:"path_taken"`
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

// BatchItem is the outcome for one message in a batch. Exactly one of
// Result and Error is set.
type BatchItem struct {
	RequestID string  `json:"request_id"`
	Result    *Result `json:"result,omitempty"`
	Error     string  `json:"error,omitempty"`
}

// Intent is one entry in the intent taxonomy.
type Intent struct {
	Code        string   `json:"intent_code"`
	Category    string   `json:"category"`
	Intent      string   `json:"intent"`
	Description string   `json:"description"`
	Examples    []string `json:"examples,omitempty"`
}

// CatalogResponse is the full intent taxonomy.
type CatalogResponse struct {
	Intents []Intent `json:"intents"`
	Count   int      `json:"count"`
}

// HealthResponse reports server liveness and component status.
type HealthResponse struct {
	Status        string            `json:"status"`
	Version       string            `json:"version"`
	UptimeSeconds int               `json:"uptime_seconds"`
	Components    map[string]string `json:"components"`
}
