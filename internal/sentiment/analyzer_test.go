package sentiment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnalyzeNeutralMessage(t *testing.T) {
	res := New().Analyze("Where is my order?")

	assert.Zero(t, res.Frustration)
	assert.Zero(t, res.Urgency)
	assert.False(t, res.PriorityFlag)
}

func TestAnalyzeUrgency(t *testing.T) {
	res := New().Analyze("I need this shipped ASAP, it's urgent")

	assert.Equal(t, 0.9, res.Urgency)
	assert.NotEmpty(t, res.Signals)
}

func TestAnalyzeStrongFrustrationSetsPriority(t *testing.T) {
	res := New().Analyze("This is unacceptable, worst service ever, I am never ordering here again!!")

	assert.Greater(t, res.Frustration, PriorityThreshold)
	assert.True(t, res.PriorityFlag)
	assert.Contains(t, res.Signals, "priority_flag")
	assert.Negative(t, res.Sentiment)
}

func TestAnalyzeMildFrustration(t *testing.T) {
	res := New().Analyze("I'm a bit confused about my order")

	assert.Greater(t, res.Frustration, 0.0)
	assert.False(t, res.PriorityFlag)
}

func TestAnalyzeCapsBoost(t *testing.T) {
	calm := New().Analyze("where is my order, it is late and i am upset")
	shouting := New().Analyze("WHERE IS MY ORDER, IT IS LATE AND I AM UPSET")

	assert.Greater(t, shouting.Frustration, calm.Frustration)
	assert.Contains(t, shouting.Signals, "excessive_caps")
}

func TestAnalyzePolitenessReducesFrustration(t *testing.T) {
	blunt := New().Analyze("I'm very disappointed with this order")
	polite := New().Analyze("I'm very disappointed with this order, but thanks for your help, I appreciate it")

	assert.Less(t, polite.Frustration, blunt.Frustration)
}

func TestAnalyzeSarcasmFlipsSentiment(t *testing.T) {
	res := New().Analyze("Oh great, thanks a lot for nothing")

	assert.Negative(t, res.Sentiment)
	var flipped bool
	for _, s := range res.Signals {
		if len(s) > 17 && s[:18] == "sentiment_flipped:" {
			flipped = true
		}
	}
	assert.True(t, flipped)
}

func TestAnalyzeContradictionReadsAsSarcasm(t *testing.T) {
	res := New().Analyze("Oh great, the item arrived broken again")

	assert.Contains(t, res.Signals, "contradiction:great+broken")
	assert.Greater(t, res.Frustration, 0.0)
}

func TestAnalyzeEscalationRaisesFrustration(t *testing.T) {
	plain := New().Analyze("My package is late")
	escalating := New().Analyze("My package is late, let me speak to a manager")

	assert.Greater(t, escalating.Frustration, plain.Frustration)
}

func TestAnalyzeScoresAreClamped(t *testing.T) {
	res := New().Analyze("This is unacceptable!! Absolutely the worst service, total scam, I am furious, never buying again, speak to your manager, oh great it's broken AGAIN")

	assert.LessOrEqual(t, res.Frustration, 1.0)
	assert.GreaterOrEqual(t, res.Frustration, 0.0)
	assert.LessOrEqual(t, res.Urgency, 1.0)
}

func TestAnalyzeIsDeterministic(t *testing.T) {
	a := New()
	text := "Oh great, still waiting for my refund. This is the 3rd time I've emailed."
	assert.Equal(t, a.Analyze(text), a.Analyze(text))
}
