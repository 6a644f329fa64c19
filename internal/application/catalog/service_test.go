package catalog

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/Zhima-Mochi/minishop-storefront/internal/domain/catalog"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/inventory"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/money"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/minishop-storefront/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-storefront/internal/infrastructure/id"
	"github.com/Zhima-Mochi/minishop-storefront/internal/infrastructure/memory"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability"
)

// syncBus delivers events inline.
type syncBus struct {
	mu   sync.Mutex
	subs map[string][]domoutbox.Handler
	seen []string
}

func newSyncBus() *syncBus { return &syncBus{subs: map[string][]domoutbox.Handler{}} }

func (b *syncBus) Subscribe(name string, h domoutbox.Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[name] = append(b.subs[name], h)
}

func (b *syncBus) Publish(ctx context.Context, e domoutbox.Event) error {
	b.mu.Lock()
	b.seen = append(b.seen, e.EventName())
	handlers := append([]domoutbox.Handler(nil), b.subs[e.EventName()]...)
	b.mu.Unlock()
	for _, h := range handlers {
		if err := h(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

func newService(t *testing.T) (*Service, *memory.Cache, *syncBus) {
	t.Helper()
	cache := memory.NewCache()
	bus := newSyncBus()
	svc := NewService(memory.NewStore(), id.NewUUIDGenerator(), cache, 0, bus, observability.Nop())
	NewWorker(bus, cache, observability.Nop()).Start()
	return svc, cache, bus
}

func TestCreateAndGetProduct(t *testing.T) {
	svc, cache, _ := newService(t)
	ctx := context.Background()

	created, err := svc.CreateProduct(ctx, CreateProductInput{Name: "Mug", Price: money.MustParse("10", "USD"), InitialQuantity: 5})
	require.NoError(t, err)
	assert.Equal(t, 5, created.Available)

	_, err = svc.CreateProduct(ctx, CreateProductInput{Name: "mug", Price: money.MustParse("1", "USD"), InitialQuantity: 1})
	assert.ErrorIs(t, err, domain.ErrNameTaken)

	_, err = svc.CreateProduct(ctx, CreateProductInput{Name: "Cup", Price: money.MustParse("1", "USD"), InitialQuantity: 0})
	assert.ErrorIs(t, err, inventory.ErrInvalidQuantity)

	got, err := svc.GetProduct(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Mug", got.Name)
	assert.True(t, got.Price.Equal(money.MustParse("10.00", "USD")))

	_, hit, err := cache.Get(ctx, domain.ProductKey(created.ID))
	require.NoError(t, err)
	assert.True(t, hit)

	_, err = svc.GetProduct(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRestockInvalidatesCachedViews(t *testing.T) {
	svc, _, bus := newService(t)
	ctx := context.Background()

	p, err := svc.CreateProduct(ctx, CreateProductInput{Name: "Mug", Price: money.MustParse("10", "USD"), InitialQuantity: 2})
	require.NoError(t, err)
	list, err := svc.ListProducts(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	_, err = svc.GetProduct(ctx, p.ID)
	require.NoError(t, err)

	_, err = svc.Restock(ctx, p.ID, 0)
	assert.ErrorIs(t, err, inventory.ErrInvalidQuantity)

	restocked, err := svc.Restock(ctx, p.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, 5, restocked.Available)
	assert.Contains(t, bus.seen, "inventory.stock_changed")

	got, err := svc.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.Available)

	list, err = svc.ListProducts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, list[0].Available)
}

func TestHoldAndReleaseStockAdjustAvailability(t *testing.T) {
	svc, _, bus := newService(t)
	ctx := context.Background()

	p, err := svc.CreateProduct(ctx, CreateProductInput{Name: "Mug", Price: money.MustParse("10", "USD"), InitialQuantity: 4})
	require.NoError(t, err)
	_, err = svc.GetProduct(ctx, p.ID)
	require.NoError(t, err)

	held, err := svc.HoldStock(ctx, p.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, 1, held.Available)

	got, err := svc.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Available, "cached view is dropped")

	_, err = svc.HoldStock(ctx, p.ID, 2)
	assert.ErrorIs(t, err, inventory.ErrInsufficientStock)
	_, err = svc.ReleaseStock(ctx, p.ID, 4)
	assert.ErrorIs(t, err, inventory.ErrReleaseExceedsHeld)

	released, err := svc.ReleaseStock(ctx, p.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, 4, released.Available)
	assert.NotContains(t, bus.seen, "inventory.stock_changed")
}

func TestOrderPlacedEvictsProductEntries(t *testing.T) {
	_, cache, bus := newService(t)
	ctx := context.Background()
	require.NoError(t, cache.Set(ctx, domain.ProductKey("p1"), []byte("{}"), 0))
	require.NoError(t, cache.Set(ctx, domain.ProductKey("p2"), []byte("{}"), 0))
	require.NoError(t, cache.Set(ctx, domain.ProductListKey, []byte("[]"), 0))

	require.NoError(t, bus.Publish(ctx, order.PlacedEvent{OrderID: "o1", ProductIDs: []string{"p1"}}))

	_, hit, _ := cache.Get(ctx, domain.ProductKey("p1"))
	assert.False(t, hit)
	_, hit, _ = cache.Get(ctx, domain.ProductListKey)
	assert.False(t, hit)
	_, hit, _ = cache.Get(ctx, domain.ProductKey("p2"))
	assert.True(t, hit)
}

func TestRemoveProduct(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()
	p, err := svc.CreateProduct(ctx, CreateProductInput{Name: "Mug", Price: money.MustParse("10", "USD"), InitialQuantity: 1})
	require.NoError(t, err)
	_, err = svc.GetProduct(ctx, p.ID)
	require.NoError(t, err)

	require.NoError(t, svc.RemoveProduct(ctx, p.ID))
	_, err = svc.GetProduct(ctx, p.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, svc.RemoveProduct(ctx, p.ID), domain.ErrNotFound)
}
