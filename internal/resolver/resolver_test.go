package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/miwake-ai/miwake/internal/model"
)

func ri(code string, confidence float64) model.ResolvedIntent {
	return model.NewResolvedIntent(code, confidence)
}

func TestResolveSingleIntentNoConflict(t *testing.T) {
	out := New(nil).Resolve(Input{Intents: []model.ResolvedIntent{ri("ORDER_STATUS.WISMO", 0.9)}})

	assert.False(t, out.HasConflict)
	assert.Len(t, out.FinalIntents, 1)
	assert.Contains(t, out.ReasoningTrace, "Single intent - no conflict possible")
}

func TestResolveNonConflictingPair(t *testing.T) {
	out := New(nil).Resolve(Input{Intents: []model.ResolvedIntent{
		ri("ORDER_STATUS.WISMO", 0.9),
		ri("ORDER_STATUS.DELIVERY_ESTIMATE", 0.8),
	}})

	assert.False(t, out.HasConflict)
	assert.Len(t, out.FinalIntents, 2)
}

func TestResolveExplicitPreference(t *testing.T) {
	out := New(nil).Resolve(Input{
		Intents: []model.ResolvedIntent{
			ri("RETURN_EXCHANGE.RETURN_INITIATE", 0.8),
			ri("RETURN_EXCHANGE.EXCHANGE_REQUEST", 0.8),
		},
		Text: "I'd like an exchange, not refund",
	})

	require.True(t, out.HasConflict)
	assert.Equal(t, model.StrategyPreference, out.ResolutionStrategy)
	require.Len(t, out.FinalIntents, 1)
	assert.Equal(t, "RETURN_EXCHANGE.EXCHANGE_REQUEST", out.FinalIntents[0].IntentCode())
	assert.False(t, out.RequiresClarification)
}

func TestResolveVIPKeepsBoth(t *testing.T) {
	out := New(nil).Resolve(Input{
		Intents: []model.ResolvedIntent{
			ri("RETURN_EXCHANGE.RETURN_INITIATE", 0.8),
			ri("RETURN_EXCHANGE.EXCHANGE_REQUEST", 0.8),
		},
		CustomerTier: model.TierVIP,
	})

	require.True(t, out.HasConflict)
	assert.Equal(t, model.StrategyPriority, out.ResolutionStrategy)
	assert.Len(t, out.FinalIntents, 2)
}

func TestResolveVIPCannotKeepHardContradiction(t *testing.T) {
	out := New(nil).Resolve(Input{
		Intents: []model.ResolvedIntent{
			ri("ORDER_MODIFY.CANCEL_ORDER", 0.8),
			ri("ORDER_MODIFY.EXPEDITE", 0.8),
		},
		CustomerTier: model.TierVIP,
	})

	require.True(t, out.HasConflict)
	assert.Equal(t, model.ConflictContradictoryPolicy, out.ConflictType)
	// Falls through to business priority: EXPEDITE (2) beats CANCEL_ORDER (1).
	require.Len(t, out.FinalIntents, 1)
	assert.Equal(t, "ORDER_MODIFY.EXPEDITE", out.FinalIntents[0].IntentCode())
}

func TestResolveHighFrustrationFavorsCustomer(t *testing.T) {
	out := New(nil).Resolve(Input{
		Intents: []model.ResolvedIntent{
			ri("RETURN_EXCHANGE.RETURN_INITIATE", 0.8),
			ri("RETURN_EXCHANGE.EXCHANGE_REQUEST", 0.8),
		},
		FrustrationScore: 0.85,
	})

	require.True(t, out.HasConflict)
	assert.Equal(t, model.StrategyPriority, out.ResolutionStrategy)
	require.Len(t, out.FinalIntents, 1)
	// Customer-favorable table ranks RETURN_INITIATE above EXCHANGE_REQUEST.
	assert.Equal(t, "RETURN_EXCHANGE.RETURN_INITIATE", out.FinalIntents[0].IntentCode())
}

func TestResolveBusinessPriority(t *testing.T) {
	out := New(nil).Resolve(Input{
		Intents: []model.ResolvedIntent{
			ri("RETURN_EXCHANGE.RETURN_INITIATE", 0.8),
			ri("RETURN_EXCHANGE.EXCHANGE_REQUEST", 0.8),
		},
	})

	require.True(t, out.HasConflict)
	assert.Equal(t, model.StrategyPriority, out.ResolutionStrategy)
	require.Len(t, out.FinalIntents, 1)
	// Business table prefers the exchange: it keeps the sale.
	assert.Equal(t, "RETURN_EXCHANGE.EXCHANGE_REQUEST", out.FinalIntents[0].IntentCode())
}

func TestGenerateClarification(t *testing.T) {
	question, options := generateClarification(
		ri("ORDER_MODIFY.CANCEL_ORDER", 0.8),
		ri("ORDER_MODIFY.CHANGE_ADDRESS", 0.8),
	)

	assert.Contains(t, question, "cancel your order")
	assert.Contains(t, question, "change the shipping address")
	assert.Contains(t, question, "Which would you prefer?")
	require.Len(t, options, 3)
	assert.Equal(t, "I'd like to cancel your order", options[0])
	assert.Equal(t, "I need help deciding", options[2])
}

func TestGenerateClarificationFallbackDescription(t *testing.T) {
	question, _ := generateClarification(
		ri("ORDER_MODIFY.DELAY_SHIPMENT", 0.8),
		ri("ORDER_MODIFY.EXPEDITE", 0.8),
	)
	assert.Contains(t, question, "delay shipment")
	assert.Contains(t, question, "expedite shipping")
}

func TestResolveDifferentItemsNoConflict(t *testing.T) {
	out := New(nil).Resolve(Input{
		Intents: []model.ResolvedIntent{
			ri("RETURN_EXCHANGE.RETURN_INITIATE", 0.8),
			ri("RETURN_EXCHANGE.EXCHANGE_REQUEST", 0.8),
		},
		Entities: []model.Entity{
			{Type: model.EntityProductSKU, Value: "SKU-111"},
			{Type: model.EntityProductSKU, Value: "SKU-222"},
		},
	})

	assert.False(t, out.HasConflict)
	assert.Len(t, out.FinalIntents, 2)
	assert.Contains(t, out.ReasoningTrace, "Intents apply to different items - no conflict")
}

func TestClassifyConflictPolicyViolation(t *testing.T) {
	out := New(nil).Resolve(Input{
		Intents: []model.ResolvedIntent{
			ri("RETURN_EXCHANGE.RETURN_INITIATE", 0.8),
			ri("RETURN_EXCHANGE.EXCHANGE_REQUEST", 0.8),
		},
		Context: &model.EnrichedContext{
			Order: &model.OrderContext{OrderID: "A1", ReturnWindowExpired: true},
		},
	})

	require.True(t, out.HasConflict)
	assert.Equal(t, model.ConflictPolicyViolation, out.ConflictType)
}

func TestExtractPreference(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"I prefer to exchange it", "exchange"},
		{"just want a refund", "refund"},
		{"exchange, not refund", "exchange"},
		{"refund, not exchange", "refund"},
		{"I want it faster", ""},
		{"where is my order", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, extractPreference(tt.text), "text: %s", tt.text)
	}
}

func TestResolveIsDeterministic(t *testing.T) {
	in := Input{
		Intents: []model.ResolvedIntent{
			ri("RETURN_EXCHANGE.RETURN_INITIATE", 0.8),
			ri("RETURN_EXCHANGE.EXCHANGE_REQUEST", 0.8),
		},
		Text: "exchange, not return",
	}
	r := New(nil)
	assert.Equal(t, r.Resolve(in), r.Resolve(in))
}
