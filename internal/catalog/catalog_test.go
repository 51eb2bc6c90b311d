package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/miwake-ai/miwake/internal/model"
)

func TestDefaultCatalogIsWellFormed(t *testing.T) {
	c := Default()
	require.NotZero(t, c.Len())

	for _, in := range c.All() {
		category, name := model.SplitIntentCode(in.Code)
		assert.Equal(t, in.Category, category)
		assert.Equal(t, in.Intent, name)
		// Split and rejoin must reproduce the original code.
		assert.Equal(t, in.Code, model.JoinIntentCode(category, name))
		assert.NotEmpty(t, in.Description, "intent %s has no description", in.Code)
		assert.NotEmpty(t, in.Examples, "intent %s has no examples", in.Code)
	}
}

func TestNewRejectsBadInput(t *testing.T) {
	_, err := New([]Intent{{Code: "NODOTS"}})
	require.Error(t, err)

	_, err = New([]Intent{
		intent("ORDER_STATUS.WISMO", "a"),
		intent("ORDER_STATUS.WISMO", "b"),
	})
	require.Error(t, err)
}

func TestByCode(t *testing.T) {
	c := Default()

	in, ok := c.ByCode("ORDER_STATUS.WISMO")
	require.True(t, ok)
	assert.Equal(t, "ORDER_STATUS", in.Category)
	assert.Equal(t, "WISMO", in.Intent)

	_, ok = c.ByCode("NO_SUCH.INTENT")
	assert.False(t, ok)
}

func TestCategoriesPreserveOrder(t *testing.T) {
	c := Default()
	cats := c.Categories()
	require.NotEmpty(t, cats)
	assert.Equal(t, "ORDER_STATUS", cats[0])
	assert.Contains(t, cats, "RETURN_EXCHANGE")
	assert.Contains(t, cats, "META")

	for _, cat := range cats {
		assert.NotEmpty(t, c.ByCategory(cat))
	}
}

func TestExpectedEntitiesReferenceKnownIntents(t *testing.T) {
	c := Default()
	for code := range expectedEntities {
		_, ok := c.ByCode(code)
		assert.True(t, ok, "expected-entity table references unknown intent %s", code)
	}
	assert.Contains(t, ExpectedEntities("ORDER_STATUS.WISMO"), model.EntityOrderID)
	assert.Nil(t, ExpectedEntities("META.GREETING"))
}
