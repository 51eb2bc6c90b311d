package miwake

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/miwake-ai/miwake/internal/embedding"
	"github.com/miwake-ai/miwake/internal/engine"
	"github.com/miwake-ai/miwake/internal/model"
	"github.com/miwake-ai/miwake/internal/testutil"
)

type stubSearcher struct{}

func (stubSearcher) Search(context.Context, []float32, int) ([]Match, error) {
	return []Match{{IntentCode: "ORDER_STATUS.WISMO", Similarity: 0.9, ExampleText: "where is my order"}}, nil
}

func (stubSearcher) Healthy(context.Context) error { return nil }

func TestNewWithCustomSearcher(t *testing.T) {
	app, err := New(
		WithLogger(testutil.TestLogger()),
		WithVersion("test"),
		WithSearcher(stubSearcher{}),
		WithEmbeddingProvider(embedding.NewNoopProvider(8)),
		WithPolicyDir(t.TempDir()),
	)
	require.NoError(t, err)
	defer app.close()

	// A custom searcher replaces the Qdrant index and owns its data.
	assert.Nil(t, app.index)
	assert.True(t, app.seeded)
	assert.NotNil(t, app.srv)
}

func TestSearcherAdapterClampsScores(t *testing.T) {
	raw := func(sim float64) searcherAdapter {
		return searcherAdapter{searcherFunc(func() []Match {
			return []Match{{IntentCode: "A.B", Similarity: sim}}
		})}
	}

	matches, err := raw(-0.3).Search(context.Background(), nil, 5)
	require.NoError(t, err)
	assert.Equal(t, 0.0, matches[0].Similarity)

	matches, err = raw(1.7).Search(context.Background(), nil, 5)
	require.NoError(t, err)
	assert.Equal(t, 1.0, matches[0].Similarity)
}

// searcherFunc adapts a closure to the Searcher interface for tests.
type searcherFunc func() []Match

func (f searcherFunc) Search(context.Context, []float32, int) ([]Match, error) {
	return f(), nil
}

func (f searcherFunc) Healthy(context.Context) error { return nil }

func TestDecomposerAdapter(t *testing.T) {
	d := decomposerAdapter{decomposerFunc(func(in DecomposeInput) (*Decomposition, error) {
		if len(in.Hints) != 1 || in.Hints[0].IntentCode != "ORDER_STATUS.WISMO" {
			t.Errorf("hints not converted: %+v", in.Hints)
		}
		return &Decomposition{
			Intents: []IntentResolution{
				{IntentCode: "RETURN_EXCHANGE.RETURN_INITIATE", Confidence: 0.8, Evidence: []string{"send it back"}},
			},
			IsCompound: true,
			Trace:      []string{"split into one intent"},
		}, nil
	})}

	out, err := d.Decompose(context.Background(), engine.DecomposeInput{
		Text: "I want to send this back",
		Hints: []model.IntentMatch{
			{IntentCode: "ORDER_STATUS.WISMO", Similarity: 0.9, ExampleText: "where is my order"},
		},
	})
	require.NoError(t, err)
	require.Len(t, out.Intents, 1)
	assert.Equal(t, "RETURN_EXCHANGE.RETURN_INITIATE", out.Intents[0].IntentCode())
	assert.Equal(t, 0.8, out.Intents[0].Confidence)
	assert.True(t, out.IsCompound)
}

// decomposerFunc adapts a closure to the Decomposer interface for tests.
type decomposerFunc func(DecomposeInput) (*Decomposition, error)

func (f decomposerFunc) Decompose(_ context.Context, in DecomposeInput) (*Decomposition, error) {
	return f(in)
}
