package memory

import (
	"context"
	"maps"
	"sync"

	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/address"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/cart"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/catalog"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/inventory"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/order"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/store"
)

// Store is an in-memory unit of work. Units run one at a time against a
// staged copy of the state, which replaces the committed state only when the
// unit succeeds and its context is still live.
type Store struct {
	mu    sync.Mutex
	state *state
}

var _ store.UnitOfWork = (*Store)(nil)

func NewStore() *Store {
	return &Store{state: newState()}
}

// Within must not be nested: the store lock is held for the duration of fn.
func (s *Store) Within(ctx context.Context, fn func(ctx context.Context, tx store.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	staged := s.state.clone()
	if err := fn(ctx, &tx{st: staged}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.state = staged
	return nil
}

// Stored values are never mutated in place, so a shallow copy of each map
// isolates a unit of work from the committed state.
type state struct {
	products  map[string]*catalog.Product
	inventory map[string]*inventory.Item
	carts     map[string]*cart.Cart
	orders    map[string]*order.Order
	addresses map[string]*address.Address
}

func newState() *state {
	return &state{
		products:  make(map[string]*catalog.Product),
		inventory: make(map[string]*inventory.Item),
		carts:     make(map[string]*cart.Cart),
		orders:    make(map[string]*order.Order),
		addresses: make(map[string]*address.Address),
	}
}

func (s *state) clone() *state {
	return &state{
		products:  maps.Clone(s.products),
		inventory: maps.Clone(s.inventory),
		carts:     maps.Clone(s.carts),
		orders:    maps.Clone(s.orders),
		addresses: maps.Clone(s.addresses),
	}
}

type tx struct{ st *state }

func (t *tx) Carts() cart.Repository          { return cartRepository{t.st} }
func (t *tx) Inventory() inventory.Repository { return inventoryRepository{t.st} }
func (t *tx) Orders() order.Repository        { return orderRepository{t.st} }
func (t *tx) Addresses() address.Repository   { return addressRepository{t.st} }
func (t *tx) Products() catalog.Repository    { return productRepository{t.st} }
