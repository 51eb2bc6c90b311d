package engine

import (
	"context"

	"github.com/miwake-ai/miwake/internal/model"
	"github.com/miwake-ai/miwake/internal/policy"
)

// VectorSearcher returns candidate intent matches for an embedding,
// ordered descending by similarity with stable ties. The pipeline cannot
// proceed without candidates, so search failures propagate to the caller.
type VectorSearcher interface {
	Search(ctx context.Context, embedding []float32, topK int) ([]model.IntentMatch, error)
}

// DecomposeInput carries everything a decomposer may use to split a
// message into sub-intents.
type DecomposeInput struct {
	Text            string
	Entities        []model.Entity
	Hints           []model.IntentMatch
	CustomerTier    model.CustomerTier
	PreviousIntents []string
}

// Decomposition is a decomposer's verdict on a single message.
type Decomposition struct {
	Intents               []model.ResolvedIntent
	IsCompound            bool
	Constraints           []string
	RequiresClarification bool
	ClarificationQuestion string
	Trace                 []string
}

// Decomposer breaks an ambiguous or compound message into sub-intents.
// Optional: a nil decomposer selects the deterministic best-match
// fallback, which is a documented path and never an error.
type Decomposer interface {
	Decompose(ctx context.Context, in DecomposeInput) (*Decomposition, error)
}

// ContextProvider enriches a request with customer and order data.
// Optional: absence yields a reduced policy evaluation, never a failure.
type ContextProvider interface {
	Enrich(ctx context.Context, email string, orderIDs []string) (*model.EnrichedContext, error)
}

// PolicyProvider resolves the policy document for a tenant. Unknown
// tenants resolve to the named "default" document; a malformed document
// for a named tenant is a load-time error, never silently defaulted.
type PolicyProvider interface {
	Document(tenantID string) (*policy.Document, error)
}
