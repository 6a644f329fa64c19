package cart

import "context"

type Repository interface {
	// Get returns ErrNotFound when the user has never persisted a cart.
	Get(ctx context.Context, userID string) (*Cart, error)
	// Save replaces the stored lines for c.UserID with c.Items.
	Save(ctx context.Context, c *Cart) error
}
