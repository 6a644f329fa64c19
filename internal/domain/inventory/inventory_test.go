package inventory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertInvariant(t *testing.T, i *Item) {
	t.Helper()
	assert.GreaterOrEqual(t, i.ReservedQuantity, 0)
	assert.LessOrEqual(t, i.ReservedQuantity, i.Quantity)
}

func TestCreate(t *testing.T) {
	_, err := Create("", 1)
	assert.ErrorIs(t, err, ErrInvalidProductID)

	_, err = Create("p1", 0)
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	item, err := Create("p1", 5)
	require.NoError(t, err)
	assert.Equal(t, 0, item.ReservedQuantity)
	assert.Equal(t, 5, item.AvailableQuantity())
	assert.False(t, item.LastUpdated.IsZero())
}

func TestRemoveStockLeavesQuantityOnFailure(t *testing.T) {
	item, err := Create("p1", 5)
	require.NoError(t, err)

	require.ErrorIs(t, item.RemoveStock(6), ErrInsufficientStock)
	assert.Equal(t, 5, item.Quantity)

	require.NoError(t, item.RemoveStock(5))
	assert.Equal(t, 0, item.Quantity)
	assertInvariant(t, item)
}

func TestRemoveStockNeverSellsReservedUnits(t *testing.T) {
	item, err := Create("p1", 5)
	require.NoError(t, err)
	require.NoError(t, item.Reserve(3))

	assert.ErrorIs(t, item.RemoveStock(3), ErrInsufficientStock)
	require.NoError(t, item.RemoveStock(2))
	assert.Equal(t, 3, item.Quantity)
	assertInvariant(t, item)
}

func TestReserveAndRelease(t *testing.T) {
	item, err := Create("p1", 4)
	require.NoError(t, err)

	steps := []struct {
		name string
		op   func() error
		want error
	}{
		{"reserve too much", func() error { return item.Reserve(5) }, ErrInsufficientStock},
		{"reserve", func() error { return item.Reserve(4) }, nil},
		{"release too much", func() error { return item.Release(5) }, ErrReleaseExceedsHeld},
		{"release", func() error { return item.Release(1) }, nil},
		{"add stock", func() error { return item.AddStock(2) }, nil},
		{"add zero", func() error { return item.AddStock(0) }, ErrInvalidQuantity},
	}
	for _, s := range steps {
		t.Run(s.name, func(t *testing.T) {
			err := s.op()
			if s.want == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, s.want)
			}
			assertInvariant(t, item)
		})
	}
	assert.Equal(t, 6, item.Quantity)
	assert.Equal(t, 3, item.ReservedQuantity)
}

func TestIsLow(t *testing.T) {
	item, err := Create("p1", 3)
	require.NoError(t, err)
	assert.True(t, item.IsLow(3))
	assert.False(t, item.IsLow(2))
	assert.False(t, item.IsLow(0))
}
