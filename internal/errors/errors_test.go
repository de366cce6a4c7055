package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilderMetadata(t *testing.T) {
	base := fmt.Errorf("connection refused")
	err := New(base).
		Component("iracing").
		Category(CategoryNetwork).
		Context("url", "https://example.com").
		Build()

	assert.Equal(t, "connection refused", err.Error())
	assert.Equal(t, "iracing", err.Component)
	assert.Equal(t, CategoryNetwork, err.Category)
	assert.Equal(t, "https://example.com", err.GetContext()["url"])
	assert.True(t, Is(err, base))
}

func TestBuilderDefaults(t *testing.T) {
	err := Newf("boom").Build()
	assert.Equal(t, ComponentUnknown, err.Component)
	assert.Equal(t, CategoryGeneric, err.Category)
	assert.False(t, err.Timestamp.IsZero())
}

func TestGetCategory(t *testing.T) {
	inner := New(fmt.Errorf("nope")).Category(CategoryRateLimit).Build()
	wrapped := fmt.Errorf("fetch failed: %w", inner)

	assert.Equal(t, CategoryRateLimit, GetCategory(wrapped))
	assert.Equal(t, CategoryGeneric, GetCategory(fmt.Errorf("plain")))
}

func TestEnhancedErrorIsMatchesByCategory(t *testing.T) {
	a := Newf("a").Category(CategoryAuth).Build()
	b := Newf("b").Category(CategoryAuth).Build()
	c := Newf("c").Category(CategoryDatabase).Build()

	require.True(t, Is(a, b))
	assert.False(t, Is(a, c))
}
