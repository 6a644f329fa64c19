package checkout

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/cart"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/catalog"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/inventory"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/money"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/minishop-storefront/internal/domain/outbox"
	domain "github.com/Zhima-Mochi/minishop-storefront/internal/domain/payment"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/placement"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/store"
	"github.com/Zhima-Mochi/minishop-storefront/internal/infrastructure/id"
	"github.com/Zhima-Mochi/minishop-storefront/internal/infrastructure/memory"
	"github.com/Zhima-Mochi/minishop-storefront/internal/infrastructure/payment"
	"github.com/Zhima-Mochi/minishop-storefront/internal/infrastructure/sqlstore"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []domoutbox.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e domoutbox.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) names() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.EventName())
	}
	return out
}

// hookGateway runs beforeConfirm ahead of the real confirmation.
type hookGateway struct {
	*payment.Simulator
	beforeConfirm func(ctx context.Context)
}

func (g *hookGateway) ConfirmPayment(ctx context.Context, reference string) (domain.Result, error) {
	if g.beforeConfirm != nil {
		g.beforeConfirm(ctx)
	}
	return g.Simulator.ConfirmPayment(ctx, reference)
}

type fixture struct {
	t       *testing.T
	store   store.UnitOfWork
	gateway *hookGateway
	log     placement.Log
	events  *recordingPublisher
	uc      *PlaceOrderUseCase
	intents *CreatePaymentIntentUseCase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureOn(t, memory.NewStore(), memory.NewPlacementLog())
}

// newSQLiteFixture runs placement against a file-backed sqlite store.
func newSQLiteFixture(t *testing.T) *fixture {
	t.Helper()
	s, err := sqlstore.Open(sqlstore.DriverSQLite, filepath.Join(t.TempDir(), "checkout.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return newFixtureOn(t, s, sqlstore.NewPlacementLog(s))
}

func newFixtureOn(t *testing.T, uow store.UnitOfWork, log placement.Log) *fixture {
	t.Helper()
	f := &fixture{
		t:       t,
		store:   uow,
		gateway: &hookGateway{Simulator: payment.NewSimulator()},
		log:     log,
		events:  &recordingPublisher{},
	}
	tel := observability.Nop()
	f.uc = NewPlaceOrderUseCase(f.store, f.gateway, id.NewUUIDGenerator(), f.events, f.log, tel,
		Options{LowStockThreshold: 3})
	f.intents = NewCreatePaymentIntentUseCase(f.store, f.gateway, f.log, tel)
	return f
}

func (f *fixture) within(fn func(ctx context.Context, tx store.Tx) error) {
	f.t.Helper()
	require.NoError(f.t, f.store.Within(context.Background(), fn))
}

func (f *fixture) addProduct(productID, price string, qty int) {
	f.t.Helper()
	f.within(func(ctx context.Context, tx store.Tx) error {
		p, err := catalog.NewProduct(productID, "name-"+productID, money.MustParse(price, "USD"))
		if err != nil {
			return err
		}
		item, err := inventory.Create(productID, qty)
		if err != nil {
			return err
		}
		if err := tx.Products().Create(ctx, p); err != nil {
			return err
		}
		return tx.Inventory().Create(ctx, item)
	})
}

// putInCart writes cart lines directly, bypassing the availability check.
func (f *fixture) putInCart(userID, productID, price string, qty int) {
	f.t.Helper()
	f.within(func(ctx context.Context, tx store.Tx) error {
		c, err := tx.Carts().Get(ctx, userID)
		if err != nil {
			if c, err = cart.New(userID); err != nil {
				return err
			}
		}
		if err := c.AddItem(productID, money.MustParse(price, "USD"), qty); err != nil {
			return err
		}
		return tx.Carts().Save(ctx, c)
	})
}

func (f *fixture) intent(userID string) string {
	f.t.Helper()
	res, err := f.intents.Execute(context.Background(), CreatePaymentIntentCommand{UserID: userID, CustomerEmail: userID + "@example.com"})
	require.NoError(f.t, err)
	return res.Reference
}

func (f *fixture) stock(productID string) int {
	f.t.Helper()
	var qty int
	f.within(func(ctx context.Context, tx store.Tx) error {
		item, err := tx.Inventory().Get(ctx, productID)
		if err != nil {
			return err
		}
		qty = item.Quantity
		return nil
	})
	return qty
}

func (f *fixture) cart(userID string) *cart.Cart {
	f.t.Helper()
	var c *cart.Cart
	f.within(func(ctx context.Context, tx store.Tx) error {
		var err error
		c, err = tx.Carts().Get(ctx, userID)
		return err
	})
	return c
}

func (f *fixture) orders(userID string) []*order.Order {
	f.t.Helper()
	var out []*order.Order
	f.within(func(ctx context.Context, tx store.Tx) error {
		var err error
		out, err = tx.Orders().ListByUser(ctx, userID)
		return err
	})
	return out
}
