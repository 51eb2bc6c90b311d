package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/miwake-ai/miwake/internal/model"
	"github.com/miwake-ai/miwake/internal/policy"
)

type stubSearcher struct {
	matches []model.IntentMatch
	err     error
}

func (s stubSearcher) Search(context.Context, []float32, int) ([]model.IntentMatch, error) {
	return s.matches, s.err
}

type stubDecomposer struct {
	dec *Decomposition
	err error
}

func (s stubDecomposer) Decompose(context.Context, DecomposeInput) (*Decomposition, error) {
	return s.dec, s.err
}

type panickingDecomposer struct{}

func (panickingDecomposer) Decompose(context.Context, DecomposeInput) (*Decomposition, error) {
	panic("decomposer exploded")
}

type stubContexts struct {
	enriched *model.EnrichedContext
	err      error
}

func (s stubContexts) Enrich(context.Context, string, []string) (*model.EnrichedContext, error) {
	return s.enriched, s.err
}

type stubPolicies struct {
	doc *policy.Document
	err error
}

func (s stubPolicies) Document(string) (*policy.Document, error) {
	return s.doc, s.err
}

func request(text string) model.Request {
	return model.Request{
		RequestID: "req-1",
		TenantID:  "default",
		Text:      text,
		Embedding: []float32{0.1, 0.2, 0.3},
	}
}

func TestResolveFastPath(t *testing.T) {
	searcher := stubSearcher{matches: []model.IntentMatch{
		{IntentCode: "ORDER_STATUS.WISMO", Similarity: 0.92, ExampleText: "Where is my order?"},
		{IntentCode: "ORDER_STATUS.DELIVERY_ISSUE", Similarity: 0.40, ExampleText: "My package is lost"},
	}}
	e := New(searcher, nil, nil, nil, Config{}, nil)

	res, err := e.Resolve(context.Background(), request("Where is my order #12345?"))

	require.NoError(t, err)
	assert.Equal(t, model.PathFastPath, res.PathTaken)
	require.Len(t, res.ResolvedIntents, 1)
	assert.Equal(t, "ORDER_STATUS.WISMO", res.ResolvedIntents[0].IntentCode())
	assert.GreaterOrEqual(t, res.ConfidenceSummary, 0.92)
	assert.False(t, res.RequiresHuman)
	assert.Contains(t, res.ReasoningTrace, "Decision: FAST PATH")
	assert.Equal(t, "req-1", res.RequestID)
	assert.NotEmpty(t, res.Entities)
}

func TestResolveFallbackWhenNoDecomposer(t *testing.T) {
	searcher := stubSearcher{matches: []model.IntentMatch{
		{IntentCode: "RETURN_EXCHANGE.RETURN_INITIATE", Similarity: 0.70, ExampleText: "I want to send this back"},
		{IntentCode: "ORDER_STATUS.WISMO", Similarity: 0.40, ExampleText: "Where is my order?"},
	}}
	e := New(searcher, nil, nil, nil, Config{}, nil)

	res, err := e.Resolve(context.Background(), request("I want to send my shirt back"))

	require.NoError(t, err)
	assert.Equal(t, model.PathFastPathFallback, res.PathTaken)
	require.Len(t, res.ResolvedIntents, 1)
	assert.Equal(t, "RETURN_EXCHANGE.RETURN_INITIATE", res.ResolvedIntents[0].IntentCode())
	assert.True(t, res.RequiresHuman)
	assert.Equal(t, "Decomposition not available - low confidence match", res.HumanHandoffReason)
	assert.Equal(t, []string{"Best match (fallback): I want to send this back..."}, res.ResolvedIntents[0].Evidence)
	assert.InDelta(t, 0.70, res.ConfidenceSummary, 1e-9)
}

func TestResolveNoMatch(t *testing.T) {
	e := New(stubSearcher{}, nil, nil, nil, Config{}, nil)

	res, err := e.Resolve(context.Background(), request("zzzzz"))

	require.NoError(t, err)
	assert.Equal(t, model.PathNoMatch, res.PathTaken)
	assert.Empty(t, res.ResolvedIntents)
	assert.True(t, res.RequiresHuman)
	assert.Equal(t, "No matching intent found and decomposition not available", res.HumanHandoffReason)
	assert.Zero(t, res.ConfidenceSummary)
}

func TestResolveSearchErrorPropagates(t *testing.T) {
	e := New(stubSearcher{err: errors.New("qdrant unreachable")}, nil, nil, nil, Config{}, nil)

	_, err := e.Resolve(context.Background(), request("Where is my order?"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "vector search")
}

func TestResolveRequiresEmbedding(t *testing.T) {
	e := New(stubSearcher{}, nil, nil, nil, Config{}, nil)

	_, err := e.Resolve(context.Background(), model.Request{RequestID: "req-1", Text: "hello"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no embedding")
}

func TestResolveReasoningPathResolvesConflict(t *testing.T) {
	searcher := stubSearcher{matches: []model.IntentMatch{
		{IntentCode: "RETURN_EXCHANGE.RETURN_INITIATE", Similarity: 0.90, ExampleText: "I want to return this"},
		{IntentCode: "ORDER_MODIFY.CANCEL_ORDER", Similarity: 0.85, ExampleText: "Cancel my order"},
	}}
	decomposer := stubDecomposer{dec: &Decomposition{
		Intents: []model.ResolvedIntent{
			model.NewResolvedIntent("RETURN_EXCHANGE.RETURN_INITIATE", 0.90),
			model.NewResolvedIntent("RETURN_EXCHANGE.EXCHANGE_REQUEST", 0.80),
		},
		IsCompound: true,
		Trace:      []string{"Decomposed into 2 intents"},
	}}
	e := New(searcher, decomposer, nil, nil, Config{}, nil)

	res, err := e.Resolve(context.Background(), request("I'd like an exchange, not refund"))

	require.NoError(t, err)
	assert.Equal(t, model.PathReasoningPath, res.PathTaken)
	require.Len(t, res.ResolvedIntents, 1)
	assert.Equal(t, "RETURN_EXCHANGE.EXCHANGE_REQUEST", res.ResolvedIntents[0].IntentCode())
	require.NotNil(t, res.Conflict)
	assert.Equal(t, model.StrategyPreference, res.Conflict.ResolutionStrategy)
	assert.InDelta(t, 0.80, res.ConfidenceSummary, 1e-9)
	assert.True(t, res.IsCompound)
	assert.Contains(t, res.ReasoningTrace, "Decomposed into 2 intents")
}

func TestResolveDecomposerErrorFallsBack(t *testing.T) {
	searcher := stubSearcher{matches: []model.IntentMatch{
		{IntentCode: "RETURN_EXCHANGE.RETURN_INITIATE", Similarity: 0.70, ExampleText: "I want to send this back"},
	}}
	e := New(searcher, stubDecomposer{err: errors.New("model timeout")}, nil, nil, Config{}, nil)

	res, err := e.Resolve(context.Background(), request("I want to send my shirt back"))

	require.NoError(t, err)
	assert.Equal(t, model.PathFastPathFallback, res.PathTaken)
	assert.True(t, res.RequiresHuman)
}

func TestResolveClarificationFromDecomposer(t *testing.T) {
	searcher := stubSearcher{matches: []model.IntentMatch{
		{IntentCode: "RETURN_EXCHANGE.RETURN_INITIATE", Similarity: 0.70, ExampleText: "I want to send this back"},
	}}
	decomposer := stubDecomposer{dec: &Decomposition{
		Intents: []model.ResolvedIntent{
			model.NewResolvedIntent("RETURN_EXCHANGE.RETURN_INITIATE", 0.65),
		},
		RequiresClarification: true,
		ClarificationQuestion: "Which order would you like to return?",
	}}
	e := New(searcher, decomposer, nil, nil, Config{}, nil)

	res, err := e.Resolve(context.Background(), request("I want to send something back"))

	require.NoError(t, err)
	assert.Equal(t, model.PathReasoningPath, res.PathTaken)
	assert.True(t, res.RequiresClarification)
	assert.True(t, res.RequiresHuman)
	assert.Equal(t, "Which order would you like to return?", res.HumanHandoffReason)
}

func TestResolvePolicyEscalationForcesHandoff(t *testing.T) {
	searcher := stubSearcher{matches: []model.IntentMatch{
		{IntentCode: "ORDER_STATUS.WISMO", Similarity: 0.92, ExampleText: "Where is my order?"},
	}}
	contexts := stubContexts{enriched: &model.EnrichedContext{
		Customer: &model.CustomerProfile{Tier: model.TierVIP, Complaints90d: 5},
	}}
	policies := stubPolicies{doc: policy.DefaultDocument()}
	e := New(searcher, nil, contexts, policies, Config{}, nil)

	req := request("Where is my order?")
	req.CustomerEmail = "vip@example.com"
	res, err := e.Resolve(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, model.PathFastPath, res.PathTaken)
	require.Len(t, res.PolicyDecisions, 1)
	assert.True(t, res.PolicyDecisions[0].EscalationRequired)
	assert.True(t, res.RequiresHuman)
	assert.Contains(t, res.HumanHandoffReason, "Escalation required")
}

func TestResolveContextFailureDegrades(t *testing.T) {
	searcher := stubSearcher{matches: []model.IntentMatch{
		{IntentCode: "ORDER_STATUS.WISMO", Similarity: 0.92, ExampleText: "Where is my order?"},
	}}
	contexts := stubContexts{err: errors.New("connector down")}
	e := New(searcher, nil, contexts, nil, Config{}, nil)

	req := request("Where is my order?")
	req.CustomerEmail = "jane@example.com"
	res, err := e.Resolve(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, model.PathFastPath, res.PathTaken)
	assert.Contains(t, res.ReasoningTrace, "  Context enrichment failed: connector down")
}

func TestResolvePanicBecomesNoMatch(t *testing.T) {
	searcher := stubSearcher{matches: []model.IntentMatch{
		{IntentCode: "RETURN_EXCHANGE.RETURN_INITIATE", Similarity: 0.70, ExampleText: "I want to send this back"},
	}}
	e := New(searcher, panickingDecomposer{}, nil, nil, Config{}, nil)

	res, err := e.Resolve(context.Background(), request("I want to send my shirt back"))

	require.NoError(t, err)
	assert.Equal(t, model.PathNoMatch, res.PathTaken)
	assert.True(t, res.RequiresHuman)
	assert.Equal(t, "Internal error during resolution", res.HumanHandoffReason)
}

func TestResolveCancelledContext(t *testing.T) {
	searcher := stubSearcher{matches: []model.IntentMatch{
		{IntentCode: "ORDER_STATUS.WISMO", Similarity: 0.92, ExampleText: "Where is my order?"},
	}}
	e := New(searcher, nil, nil, nil, Config{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := e.Resolve(ctx, request("Where is my order?"))

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
