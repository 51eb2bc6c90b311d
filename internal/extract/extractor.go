// Package extract pulls structured commerce entities out of free text
// using ordered regex tables: order IDs, tracking numbers, SKUs, sizes,
// colors, quantities, contact details, deadlines, and return reasons.
package extract

import (
	"regexp"
	"strings"

	"github.com/miwake-ai/miwake/internal/model"
)

// Confidence levels per extraction source.
const (
	regexConfidence    = 0.95
	reasonConfidence   = 0.90
	deadlineConfidence = 0.70
)

type typedPatterns struct {
	entityType model.EntityType
	patterns   []*regexp.Regexp
}

// patternTable is evaluated in order; earlier entity types claim their
// spans first, which matters for dedup.
var patternTable = []typedPatterns{
	{model.EntityOrderID, []*regexp.Regexp{
		regexp.MustCompile(`(?i)#?\b(ORD[-_]?\d{4,10})\b`),
		regexp.MustCompile(`(?i)#?\b(ORDER[-_]?\d{4,10})\b`),
		regexp.MustCompile(`(?i)\border(?:er)?\s*(?:number|#|id)?[:\s]*#?(\d{4,10})\b`),
		regexp.MustCompile(`#(\d{4,10})\b`),
	}},
	{model.EntityTrackingNumber, []*regexp.Regexp{
		regexp.MustCompile(`\b(\d{20,22})\b`),
		regexp.MustCompile(`\b([A-Z]{2}\d{9}[A-Z]{2})\b`),
		regexp.MustCompile(`(?i)\b(1Z[A-Z0-9]{16})\b`),
		regexp.MustCompile(`(?i)\btracking[:\s#]*(\d{12,15})\b`),
	}},
	{model.EntityProductSKU, []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bsku[:\s#]*([A-Z0-9]{4,12})\b`),
		regexp.MustCompile(`(?i)\bitem[:\s#]*([A-Z0-9]{4,12})\b`),
	}},
	{model.EntitySize, []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bsize[:\s]*(XXS|XS|S|M|L|XL|XXL|XXXL|\d{1,2})\b`),
		regexp.MustCompile(`(?i)\b(small|medium|large|extra\s*large)\b`),
	}},
	{model.EntityColor, []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(red|blue|green|yellow|black|white|pink|purple|orange|brown|gray|grey|navy|beige|tan|gold|silver)\b`),
	}},
	{model.EntityQuantity, []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(\d{1,3})\s*(?:items?|pieces?|units?|qty)\b`),
		regexp.MustCompile(`(?i)\bqty[:\s]*(\d{1,3})\b`),
	}},
	{model.EntityEmail, []*regexp.Regexp{
		regexp.MustCompile(`\b([a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,})\b`),
	}},
	{model.EntityPhone, []*regexp.Regexp{
		regexp.MustCompile(`\b(\+?1?[-.\s]?\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4})\b`),
	}},
}

var deadlinePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bby\s+(friday|saturday|sunday|monday|tuesday|wednesday|thursday)\b`),
	regexp.MustCompile(`(?i)\bwithin\s+(\d+)\s*(?:days?|hours?|weeks?)\b`),
	regexp.MustCompile(`(?i)\bbefore\s+(\w+\s+\d{1,2}(?:st|nd|rd|th)?(?:\s*,?\s*\d{4})?)\b`),
	regexp.MustCompile(`(?i)\bneed(?:ed)?\s+(?:it\s+)?by\s+(\w+)\b`),
	regexp.MustCompile(`(?i)\b(urgent|asap|immediately|rush)\b`),
}

var reasonPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(damaged|broken|defective|wrong|incorrect|missing|late)\b`),
	regexp.MustCompile(`(?i)\b(doesn't fit|too small|too large|wrong size|wrong color)\b`),
	regexp.MustCompile(`(?i)\b(changed my mind|no longer need|found cheaper|duplicate order)\b`),
	regexp.MustCompile(`(?i)\b(not as described|fake|counterfeit|poor quality)\b`),
}

// Extractor pulls entities from text. Stateless; safe for concurrent use.
type Extractor struct{}

// New creates an extractor.
func New() *Extractor {
	return &Extractor{}
}

// Extract returns all entities found in the text, deduplicated per
// (type, value) keeping the highest-confidence occurrence. Output order
// follows the pattern tables, so identical input gives identical output.
func (e *Extractor) Extract(text string) []model.Entity {
	var entities []model.Entity

	for _, tp := range patternTable {
		for _, p := range tp.patterns {
			entities = append(entities, findAll(text, p, tp.entityType, regexConfidence, false)...)
		}
	}
	for _, p := range deadlinePatterns {
		entities = append(entities, findAll(text, p, model.EntityDeadline, deadlineConfidence, false)...)
	}
	for _, p := range reasonPatterns {
		entities = append(entities, findAll(text, p, model.EntityReason, reasonConfidence, true)...)
	}

	return deduplicate(entities)
}

// OrderIDs returns just the order identifiers in the text.
func (e *Extractor) OrderIDs(text string) []string {
	var ids []string
	for _, ent := range e.Extract(text) {
		if ent.Type == model.EntityOrderID {
			ids = append(ids, ent.Value)
		}
	}
	return ids
}

func findAll(text string, p *regexp.Regexp, t model.EntityType, confidence float64, lowerValue bool) []model.Entity {
	var out []model.Entity
	for _, idx := range p.FindAllStringSubmatchIndex(text, -1) {
		// Prefer the first capturing group; fall back to the whole match.
		start, end := idx[0], idx[1]
		vs, ve := start, end
		if len(idx) >= 4 && idx[2] >= 0 {
			vs, ve = idx[2], idx[3]
		}
		value := strings.TrimSpace(text[vs:ve])
		if lowerValue {
			value = strings.ToLower(value)
		}
		out = append(out, model.Entity{
			Type:       t,
			Value:      value,
			RawSpan:    text[start:end],
			StartPos:   start,
			EndPos:     end,
			Confidence: confidence,
		})
	}
	return out
}

// deduplicate keeps one entity per (type, lowercased value), preferring
// higher confidence and preserving first-seen order.
func deduplicate(entities []model.Entity) []model.Entity {
	type dedupKey struct {
		t model.EntityType
		v string
	}
	index := make(map[dedupKey]int)
	var out []model.Entity

	for _, ent := range entities {
		k := dedupKey{ent.Type, strings.ToLower(ent.Value)}
		if i, ok := index[k]; ok {
			if ent.Confidence > out[i].Confidence {
				out[i] = ent
			}
			continue
		}
		index[k] = len(out)
		out = append(out, ent)
	}
	return out
}
