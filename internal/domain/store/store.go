package store

import (
	"context"
	"errors"

	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/address"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/cart"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/catalog"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/inventory"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/order"
)

// ErrRepository wraps failures of the persistence layer itself.
var ErrRepository = errors.New("store: repository failure")

// Tx exposes the per-aggregate repositories bound to one unit of work.
type Tx interface {
	Carts() cart.Repository
	Inventory() inventory.Repository
	Orders() order.Repository
	Addresses() address.Repository
	Products() catalog.Repository
}

// UnitOfWork runs fn atomically: every write made through tx is committed
// when fn returns nil and discarded otherwise. A cancelled ctx before commit
// discards all writes.
type UnitOfWork interface {
	Within(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}
