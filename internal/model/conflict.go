package model

// ConflictType classifies why two resolved intents cannot both be honored.
type ConflictType string

const (
	ConflictMutuallyExclusive   ConflictType = "MUTUALLY_EXCLUSIVE"
	ConflictPolicyViolation     ConflictType = "POLICY_VIOLATION"
	ConflictContradictoryPolicy ConflictType = "CONTRADICTORY_POLICY"
)

// ResolutionStrategy names how a conflict between intents was settled.
type ResolutionStrategy string

const (
	StrategyPreference    ResolutionStrategy = "PREFERENCE"
	StrategyPriority      ResolutionStrategy = "PRIORITY"
	StrategyClarification ResolutionStrategy = "CLARIFICATION"
)

// ConflictRecord describes one detected conflict between a pair of intents.
type ConflictRecord struct {
	IntentA            string             `json:"intent_a"`
	IntentB            string             `json:"intent_b"`
	ConflictType       ConflictType       `json:"conflict_type"`
	Description        string             `json:"description"`
	ResolutionStrategy ResolutionStrategy `json:"resolution_strategy"`
}

// ConflictResolution is the resolver's full output: the surviving intent
// subset plus an append-only trace of every decision step taken.
//
// A resolution never drops every conflicting intent. It either narrows to a
// non-conflicting subset or keeps all candidates pending behind a
// clarification question.
type ConflictResolution struct {
	FinalIntents          []ResolvedIntent   `json:"final_intents"`
	HasConflict           bool               `json:"has_conflict"`
	Conflict              *ConflictRecord    `json:"conflict,omitempty"`
	ConflictType          ConflictType       `json:"conflict_type,omitempty"`
	ConflictDescription   string             `json:"conflict_description,omitempty"`
	ResolutionStrategy    ResolutionStrategy `json:"resolution_strategy,omitempty"`
	RequiresClarification bool               `json:"requires_clarification"`
	ClarificationQuestion string             `json:"clarification_question,omitempty"`
	ClarificationOptions  []string           `json:"clarification_options,omitempty"`
	ReasoningTrace        []string           `json:"reasoning_trace"`
}
