// Package catalog holds the static intent taxonomy: every CATEGORY.INTENT
// code the pipeline can resolve to, with descriptions and example
// utterances used to seed the vector index.
package catalog

import (
	"fmt"
	"strings"

	"github.com/miwake-ai/miwake/internal/model"
)

// Intent is one entry in the taxonomy.
type Intent struct {
	Code        string   `json:"intent_code"`
	Category    string   `json:"category"`
	Intent      string   `json:"intent"`
	Description string   `json:"description"`
	Examples    []string `json:"examples,omitempty"`
}

// Catalog is an ordered, immutable intent taxonomy. Order is the catalog
// insertion order and is observable in search tie-breaks, so it never
// changes between builds.
type Catalog struct {
	intents []Intent
	byCode  map[string]int
}

// New builds a catalog from an ordered intent list. Codes must be unique
// and well formed (CATEGORY.INTENT).
func New(intents []Intent) (*Catalog, error) {
	byCode := make(map[string]int, len(intents))
	for i, in := range intents {
		if !strings.Contains(in.Code, ".") {
			return nil, fmt.Errorf("catalog: malformed intent code %q", in.Code)
		}
		if _, dup := byCode[in.Code]; dup {
			return nil, fmt.Errorf("catalog: duplicate intent code %q", in.Code)
		}
		byCode[in.Code] = i
	}
	return &Catalog{intents: intents, byCode: byCode}, nil
}

// Default returns the built-in taxonomy.
func Default() *Catalog {
	c, err := New(defaultIntents)
	if err != nil {
		panic(err) // built-in data, validated by tests
	}
	return c
}

// All returns the intents in catalog order. Callers must not mutate.
func (c *Catalog) All() []Intent {
	return c.intents
}

// Len returns the number of intents.
func (c *Catalog) Len() int { return len(c.intents) }

// ByCode looks up an intent by its full code.
func (c *Catalog) ByCode(code string) (Intent, bool) {
	i, ok := c.byCode[code]
	if !ok {
		return Intent{}, false
	}
	return c.intents[i], true
}

// ByCategory returns the intents under one category, in catalog order.
func (c *Catalog) ByCategory(category string) []Intent {
	var out []Intent
	for _, in := range c.intents {
		if in.Category == category {
			out = append(out, in)
		}
	}
	return out
}

// Categories returns the distinct categories in first-seen order.
func (c *Catalog) Categories() []string {
	seen := make(map[string]bool)
	var out []string
	for _, in := range c.intents {
		if !seen[in.Category] {
			seen[in.Category] = true
			out = append(out, in.Category)
		}
	}
	return out
}

// ExpectedEntities returns the entity types whose presence corroborates a
// match on the given intent, or nil when the intent has no expectation.
func ExpectedEntities(code string) []model.EntityType {
	return expectedEntities[code]
}
