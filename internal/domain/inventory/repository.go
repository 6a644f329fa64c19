package inventory

import (
	"context"
)

type Repository interface {
	Create(ctx context.Context, item *Item) error
	Get(ctx context.Context, productID string) (*Item, error)
	// GetMany returns the items that exist; missing ids are simply absent from the map.
	GetMany(ctx context.Context, productIDs []string) (map[string]*Item, error)
	// RemoveStock atomically decrements quantity by n only when at least n units
	// are available. It returns ErrInsufficientStock without changing anything otherwise.
	RemoveStock(ctx context.Context, productID string, n int) (*Item, error)
	AddStock(ctx context.Context, productID string, n int) (*Item, error)
	// Reserve holds n available units back from sale; Release returns them.
	Reserve(ctx context.Context, productID string, n int) (*Item, error)
	Release(ctx context.Context, productID string, n int) (*Item, error)
	Delete(ctx context.Context, productID string) error
}
