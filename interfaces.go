package miwake

import "context"

// EmbeddingProvider generates vector embeddings from text.
// When provided via WithEmbeddingProvider, replaces the configured
// Ollama/noop provider for both catalog seeding and incoming messages.
type EmbeddingProvider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
}

// Searcher is a vector similarity index over intent example utterances.
// When provided via WithSearcher, replaces the built-in Qdrant index;
// the app then skips collection setup and catalog seeding, which become
// the implementation's responsibility.
type Searcher interface {
	// Search returns the topK closest examples for the embedding,
	// ordered descending by similarity with stable ties.
	Search(ctx context.Context, embedding []float32, topK int) ([]Match, error)
	Healthy(ctx context.Context) error
}

// Decomposer breaks an ambiguous or compound message into sub-intents,
// typically backed by an LLM. When provided via WithDecomposer, the
// reasoning path calls it instead of the deterministic best-match
// fallback. Errors fall back to the deterministic path and are logged,
// never surfaced to the caller.
type Decomposer interface {
	Decompose(ctx context.Context, in DecomposeInput) (*Decomposition, error)
}
