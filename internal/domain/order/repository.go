package order

import "context"

type Repository interface {
	Create(ctx context.Context, order *Order) error
	Get(ctx context.Context, id string) (*Order, error)
	ListByUser(ctx context.Context, userID string) ([]*Order, error)
	// Update persists status and timestamps of an existing order.
	Update(ctx context.Context, order *Order) error
}
