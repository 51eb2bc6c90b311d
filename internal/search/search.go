// Package search provides the Qdrant-backed vector index of intent
// example utterances. The matcher's candidate lists come from this index:
// one point per example utterance, payload carrying the intent code and
// the example text.
package search

import (
	"github.com/google/uuid"

	"github.com/miwake-ai/miwake/internal/catalog"
)

// Example is one intent example utterance stored in the index.
type Example struct {
	ID         uuid.UUID
	IntentCode string
	Text       string
	Embedding  []float32
}

// ExampleID derives a stable point ID from the intent code and example
// text, so reseeding the catalog overwrites points instead of
// duplicating them.
func ExampleID(intentCode, text string) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(intentCode+"\x00"+text))
}

// CatalogExamples flattens a catalog into index examples in catalog
// order. Embeddings are left to the caller.
func CatalogExamples(c *catalog.Catalog) []Example {
	var out []Example
	for _, in := range c.All() {
		for _, text := range in.Examples {
			out = append(out, Example{
				ID:         ExampleID(in.Code, text),
				IntentCode: in.Code,
				Text:       text,
			})
		}
	}
	return out
}

// clampScore maps a Qdrant cosine score into [0, 1]. Cosine similarity
// can go negative for opposed vectors; the pipeline treats those as zero.
func clampScore(score float32) float64 {
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return float64(score)
}
