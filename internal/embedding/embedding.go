// Package embedding provides vector embedding generation for the intent
// example index and incoming messages.
//
// Defines a Provider interface with an Ollama implementation and a
// deterministic noop for development and tests. The pipeline core never
// embeds; providers run at the service boundary only.
package embedding

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
)

// Provider generates vector embeddings from text.
type Provider interface {
	// Embed generates a single embedding vector from text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector dimensionality.
	Dimensions() int
}

// New selects a provider by name. Supported: "ollama", "noop".
func New(provider, ollamaURL, ollamaModel string, dims int) (Provider, error) {
	switch provider {
	case "ollama":
		return NewOllamaProvider(ollamaURL, ollamaModel, dims), nil
	case "noop":
		return NewNoopProvider(dims), nil
	default:
		return nil, fmt.Errorf("embedding: unknown provider %q", provider)
	}
}

// NoopProvider derives a deterministic unit vector from a hash of the
// text. Unlike a zero vector it gives distinct texts distinct directions,
// so search and seeding behave sensibly in development without a model.
type NoopProvider struct {
	dims int
}

// NewNoopProvider creates a provider that hashes text into unit vectors.
func NewNoopProvider(dims int) *NoopProvider {
	return &NoopProvider{dims: dims}
}

// Dimensions returns the embedding vector size.
func (p *NoopProvider) Dimensions() int {
	return p.dims
}

// Embed returns a deterministic unit vector for the text.
func (p *NoopProvider) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, p.dims)
	h := fnv.New64a()
	_, _ = h.Write([]byte(text))
	state := h.Sum64()

	var norm float64
	for i := range vec {
		// xorshift64 walk seeded by the text hash.
		state ^= state << 13
		state ^= state >> 7
		state ^= state << 17
		v := float64(int64(state)) / float64(math.MaxInt64)
		vec[i] = float32(v)
		norm += v * v
	}
	if norm > 0 {
		scale := float32(1 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= scale
		}
	}
	return vec, nil
}

// EmbedBatch returns deterministic unit vectors for the texts.
func (p *NoopProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vecs := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := p.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		vecs[i] = vec
	}
	return vecs, nil
}
