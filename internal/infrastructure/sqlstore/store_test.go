package sqlstore

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/address"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/cart"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/catalog"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/inventory"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/money"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/order"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/placement"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/store"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(DriverSQLite, filepath.Join(t.TempDir(), "storefront.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func seed(t *testing.T, s *Store, id, name string, qty int) {
	t.Helper()
	require.NoError(t, s.Within(context.Background(), func(ctx context.Context, tx store.Tx) error {
		p, err := catalog.NewProduct(id, name, money.MustParse("12.50", "USD"))
		if err != nil {
			return err
		}
		item, err := inventory.Create(id, qty)
		if err != nil {
			return err
		}
		if err := tx.Products().Create(ctx, p); err != nil {
			return err
		}
		return tx.Inventory().Create(ctx, item)
	}))
}

func quantity(t *testing.T, s *Store, id string) int {
	t.Helper()
	var n int
	require.NoError(t, s.Within(context.Background(), func(ctx context.Context, tx store.Tx) error {
		item, err := tx.Inventory().Get(ctx, id)
		if err != nil {
			return err
		}
		n = item.Quantity
		return nil
	}))
	return n
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open("postgres", "whatever")
	require.Error(t, err)
}

func TestProductRoundTripAndNameUniqueness(t *testing.T) {
	s := newTestStore(t)
	seed(t, s, "p1", "Teapot", 3)

	err := s.Within(context.Background(), func(ctx context.Context, tx store.Tx) error {
		p, err := catalog.NewProduct("p2", "teapot", money.MustParse("1.00", "USD"))
		require.NoError(t, err)
		return tx.Products().Create(ctx, p)
	})
	require.ErrorIs(t, err, catalog.ErrNameTaken)

	require.NoError(t, s.Within(context.Background(), func(ctx context.Context, tx store.Tx) error {
		p, err := tx.Products().Get(ctx, "p1")
		require.NoError(t, err)
		assert.Equal(t, "Teapot", p.Name)
		assert.True(t, p.Price.Equal(money.MustParse("12.50", "USD")))

		many, err := tx.Products().GetMany(ctx, []string{"p1", "missing"})
		require.NoError(t, err)
		assert.Len(t, many, 1)

		_, err = tx.Products().Get(ctx, "missing")
		assert.ErrorIs(t, err, catalog.ErrNotFound)
		return nil
	}))
}

func TestRemoveStock(t *testing.T) {
	s := newTestStore(t)
	seed(t, s, "p1", "Teapot", 3)

	require.NoError(t, s.Within(context.Background(), func(ctx context.Context, tx store.Tx) error {
		item, err := tx.Inventory().RemoveStock(ctx, "p1", 2)
		require.NoError(t, err)
		assert.Equal(t, 1, item.Quantity)

		_, err = tx.Inventory().RemoveStock(ctx, "p1", 2)
		assert.ErrorIs(t, err, inventory.ErrInsufficientStock)

		_, err = tx.Inventory().RemoveStock(ctx, "missing", 1)
		assert.ErrorIs(t, err, inventory.ErrNotFound)

		_, err = tx.Inventory().RemoveStock(ctx, "p1", 0)
		assert.ErrorIs(t, err, inventory.ErrInvalidQuantity)
		return nil
	}))
	assert.Equal(t, 1, quantity(t, s, "p1"))
}

func TestReserveAndReleaseGuardAvailableStock(t *testing.T) {
	s := newTestStore(t)
	seed(t, s, "p1", "Teapot", 3)

	require.NoError(t, s.Within(context.Background(), func(ctx context.Context, tx store.Tx) error {
		item, err := tx.Inventory().Reserve(ctx, "p1", 2)
		require.NoError(t, err)
		assert.Equal(t, 2, item.ReservedQuantity)
		assert.Equal(t, 1, item.AvailableQuantity())

		_, err = tx.Inventory().Reserve(ctx, "p1", 2)
		assert.ErrorIs(t, err, inventory.ErrInsufficientStock)

		// held units cannot be sold
		_, err = tx.Inventory().RemoveStock(ctx, "p1", 2)
		assert.ErrorIs(t, err, inventory.ErrInsufficientStock)

		_, err = tx.Inventory().Release(ctx, "p1", 3)
		assert.ErrorIs(t, err, inventory.ErrReleaseExceedsHeld)

		item, err = tx.Inventory().Release(ctx, "p1", 2)
		require.NoError(t, err)
		assert.Equal(t, 0, item.ReservedQuantity)

		_, err = tx.Inventory().Reserve(ctx, "missing", 1)
		assert.ErrorIs(t, err, inventory.ErrNotFound)
		_, err = tx.Inventory().Release(ctx, "p1", 0)
		assert.ErrorIs(t, err, inventory.ErrInvalidQuantity)
		return nil
	}))
	assert.Equal(t, 3, quantity(t, s, "p1"))
}

func TestWithinRollsBackOnError(t *testing.T) {
	s := newTestStore(t)
	seed(t, s, "p1", "Teapot", 5)

	boom := errors.New("boom")
	err := s.Within(context.Background(), func(ctx context.Context, tx store.Tx) error {
		if _, err := tx.Inventory().RemoveStock(ctx, "p1", 2); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 5, quantity(t, s, "p1"))
}

func TestRemoveStockNeverOversellsUnderContention(t *testing.T) {
	s := newTestStore(t)
	seed(t, s, "p1", "Teapot", 5)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.Within(context.Background(), func(ctx context.Context, tx store.Tx) error {
				_, err := tx.Inventory().RemoveStock(ctx, "p1", 1)
				return err
			})
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, inventory.ErrInsufficientStock)
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, succeeded)
	assert.Equal(t, 0, quantity(t, s, "p1"))
}

func TestCartSaveReplacesLines(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Within(ctx, func(ctx context.Context, tx store.Tx) error {
		_, err := tx.Carts().Get(ctx, "u1")
		assert.ErrorIs(t, err, cart.ErrNotFound)

		c, err := cart.New("u1")
		require.NoError(t, err)
		require.NoError(t, c.AddItem("p1", money.MustParse("2.00", "EUR"), 2))
		require.NoError(t, c.AddItem("p2", money.MustParse("3.00", "EUR"), 1))
		return tx.Carts().Save(ctx, c)
	}))

	require.NoError(t, s.Within(ctx, func(ctx context.Context, tx store.Tx) error {
		c, err := tx.Carts().Get(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, []string{"p1", "p2"}, c.ProductIDs())
		require.NoError(t, c.RemoveItem("p1"))
		return tx.Carts().Save(ctx, c)
	}))

	require.NoError(t, s.Within(ctx, func(ctx context.Context, tx store.Tx) error {
		c, err := tx.Carts().Get(ctx, "u1")
		require.NoError(t, err)
		require.Len(t, c.Items, 1)
		assert.Equal(t, "p2", c.Items[0].ProductID)
		total, err := c.Total()
		require.NoError(t, err)
		assert.Equal(t, "3.00 EUR", total.String())
		return nil
	}))
}

func TestOrderCreateGetUpdateAndList(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Within(ctx, func(ctx context.Context, tx store.Tx) error {
		a, err := address.New("a1", "u1", address.Details{Line1: "1 Main St", City: "Springfield", PostalCode: "12345", Country: "US"})
		require.NoError(t, err)
		require.NoError(t, tx.Addresses().Create(ctx, a))

		o, err := order.New("o1", "u1", "a1", "a1", "pi_1")
		require.NoError(t, err)
		require.NoError(t, o.AddItem("p1", "Teapot", money.MustParse("12.50", "USD"), 2))
		return tx.Orders().Create(ctx, o)
	}))

	require.NoError(t, s.Within(ctx, func(ctx context.Context, tx store.Tx) error {
		a, err := tx.Addresses().Get(ctx, "a1")
		require.NoError(t, err)
		assert.Equal(t, "Springfield", a.City)

		o, err := tx.Orders().Get(ctx, "o1")
		require.NoError(t, err)
		assert.Equal(t, order.StatusOpen, o.Status)
		require.Len(t, o.Items, 1)
		total, err := o.Total()
		require.NoError(t, err)
		assert.Equal(t, "25.00 USD", total.String())

		require.NoError(t, o.MoveToStatus(order.StatusCancelled))
		return tx.Orders().Update(ctx, o)
	}))

	require.NoError(t, s.Within(ctx, func(ctx context.Context, tx store.Tx) error {
		list, err := tx.Orders().ListByUser(ctx, "u1")
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, order.StatusCancelled, list[0].Status)
		assert.NotNil(t, list[0].CompletedAt)
		assert.Len(t, list[0].Items, 1)

		dup, err := order.New("o1", "u1", "a1", "", "pi_2")
		require.NoError(t, err)
		assert.ErrorIs(t, tx.Orders().Create(ctx, dup), order.ErrConflict)
		return nil
	}))
}

func TestPlacementLogOrdersEntriesByReference(t *testing.T) {
	s := newTestStore(t)
	log := NewPlacementLog(s)
	ctx := context.Background()

	require.NoError(t, log.Append(ctx, placement.Entry{UserID: "u1", PaymentReference: "pi_1", Status: placement.StatusStarted}))
	require.NoError(t, log.Append(ctx, placement.Entry{UserID: "u1", PaymentReference: "pi_2", Status: placement.StatusStarted}))
	require.NoError(t, log.Append(ctx, placement.Entry{
		UserID:           "u1",
		PaymentReference: "pi_1",
		Status:           placement.StatusFailed,
		Step:             "write",
		Amount:           "410.00 USD",
		Errors:           []string{"inventory: insufficient stock"},
		CreatedAt:        time.Now(),
	}))

	entries, err := log.ListByReference(ctx, "pi_1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, placement.StatusStarted, entries[0].Status)
	assert.Empty(t, entries[0].Errors)
	assert.Equal(t, placement.StatusFailed, entries[1].Status)
	assert.Equal(t, []string{"inventory: insufficient stock"}, entries[1].Errors)
	assert.Equal(t, "410.00 USD", entries[1].Amount)
	assert.Less(t, entries[0].ID, entries[1].ID)
}
