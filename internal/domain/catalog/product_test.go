package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/money"
)

func TestNewProduct(t *testing.T) {
	_, err := NewProduct("p1", "   ", money.MustParse("1", "USD"))
	assert.ErrorIs(t, err, ErrInvalidName)

	_, err = NewProduct("p1", "Mug", money.Money{})
	assert.ErrorIs(t, err, ErrInvalidPrice)

	p, err := NewProduct("p1", " Mug ", money.MustParse("9.99", "USD"))
	require.NoError(t, err)
	assert.Equal(t, "Mug", p.Name)
	assert.Equal(t, "catalog:product:p1", ProductKey(p.ID))
}
