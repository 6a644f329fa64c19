package cart

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/money"
)

func newCart(t *testing.T) *Cart {
	t.Helper()
	c, err := New("u1")
	require.NoError(t, err)
	return c
}

func sumLines(c *Cart) money.Money {
	var total money.Money
	for _, it := range c.Items {
		total, _ = total.Add(it.UnitPrice.Mul(it.Quantity))
	}
	return total
}

func TestNewRequiresUser(t *testing.T) {
	_, err := New("")
	assert.ErrorIs(t, err, ErrInvalidUser)
}

func TestAddSameProductAccumulates(t *testing.T) {
	c := newCart(t)
	price := money.MustParse("10.00", "USD")

	require.NoError(t, c.AddItem("p1", price, 2))
	require.NoError(t, c.AddItem("p1", money.MustParse("12.00", "USD"), 3))

	require.Len(t, c.Items, 1)
	assert.Equal(t, 5, c.Items[0].Quantity)
	assert.True(t, c.Items[0].UnitPrice.Equal(price), "price snapshot is kept from first add")
}

func TestAddRejectsInvalidQuantityAndCurrency(t *testing.T) {
	c := newCart(t)
	assert.ErrorIs(t, c.AddItem("p1", money.MustParse("1", "USD"), 0), ErrInvalidQuantity)

	require.NoError(t, c.AddItem("p1", money.MustParse("1", "USD"), 1))
	assert.ErrorIs(t, c.AddItem("p2", money.MustParse("1", "EUR"), 1), money.ErrCurrencyMismatch)
	assert.Len(t, c.Items, 1)
}

func TestChangeItemQuantity(t *testing.T) {
	c := newCart(t)
	require.NoError(t, c.AddItem("p1", money.MustParse("1", "USD"), 1))
	before := c.Clone()

	assert.ErrorIs(t, c.ChangeItemQuantity("missing", 3), ErrItemNotFound)
	assert.Equal(t, before.Items, c.Items)

	assert.ErrorIs(t, c.ChangeItemQuantity("p1", 0), ErrInvalidQuantity)
	assert.Equal(t, before.Items, c.Items)

	require.NoError(t, c.ChangeItemQuantity("p1", 7))
	assert.Equal(t, 7, c.Items[0].Quantity)
}

func TestRemoveAndClear(t *testing.T) {
	c := newCart(t)
	require.NoError(t, c.AddItem("p1", money.MustParse("1", "USD"), 1))
	require.NoError(t, c.AddItem("p2", money.MustParse("2", "USD"), 1))

	assert.ErrorIs(t, c.RemoveItem("p3"), ErrItemNotFound)
	require.NoError(t, c.RemoveItem("p1"))
	assert.Equal(t, []string{"p2"}, c.ProductIDs())

	c.Clear()
	c.Clear()
	assert.True(t, c.IsEmpty())
}

func TestConsumeTakesOnlyWhatWasOrdered(t *testing.T) {
	c := newCart(t)
	price := money.MustParse("10.00", "USD")
	require.NoError(t, c.AddItem("p1", price, 3))
	require.NoError(t, c.AddItem("p2", price, 1))

	c.Consume("p1", 2)
	it, ok := c.Item("p1")
	require.True(t, ok)
	assert.Equal(t, 1, it.Quantity)

	c.Consume("p2", 5)
	_, ok = c.Item("p2")
	assert.False(t, ok)

	c.Consume("missing", 1)
	c.Consume("p1", 0)
	require.Len(t, c.Items, 1)
	assert.Equal(t, 1, c.Items[0].Quantity)
}

func TestTotalRecomputesAfterEveryMutation(t *testing.T) {
	c := newCart(t)
	ops := []func() error{
		func() error { return c.AddItem("p1", money.MustParse("10.00", "USD"), 2) },
		func() error { return c.AddItem("p2", money.MustParse("0.99", "USD"), 3) },
		func() error { return c.AddItem("p1", money.MustParse("10.00", "USD"), 1) },
		func() error { return c.ChangeItemQuantity("p2", 1) },
		func() error { return c.RemoveItem("p1") },
		func() error { c.Clear(); return nil },
	}
	for _, op := range ops {
		require.NoError(t, op())
		got, err := c.Total()
		require.NoError(t, err)
		assert.True(t, got.Equal(sumLines(c)), "total %s", got)

		again, err := c.Total()
		require.NoError(t, err)
		assert.True(t, got.Equal(again))
	}
}
