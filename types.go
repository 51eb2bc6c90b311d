package miwake

// Match is one candidate intent from a similarity search.
// It is a curated view of the internal match type for use in extension
// interfaces. No internal package imports — safe to use from outside the
// module.
type Match struct {
	IntentCode  string
	Similarity  float64
	ExampleText string
}

// IntentResolution is one classified intent produced by a Decomposer.
type IntentResolution struct {
	// IntentCode is the full CATEGORY.INTENT code.
	IntentCode string
	Confidence float64
	Evidence   []string
}

// DecomposeInput carries everything a decomposer may use to split a
// message into sub-intents.
type DecomposeInput struct {
	Text            string
	Hints           []Match
	CustomerTier    string
	PreviousIntents []string
}

// Decomposition is a decomposer's verdict on a single message.
type Decomposition struct {
	Intents               []IntentResolution
	IsCompound            bool
	RequiresClarification bool
	ClarificationQuestion string
	Trace                 []string
}
