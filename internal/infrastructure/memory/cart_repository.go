package memory

import (
	"context"
	"fmt"

	domain "github.com/Zhima-Mochi/minishop-storefront/internal/domain/cart"
)

type cartRepository struct{ st *state }

func (r cartRepository) Get(ctx context.Context, userID string) (*domain.Cart, error) {
	_ = ctx
	c, ok := r.st.carts[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return c.Clone(), nil
}

func (r cartRepository) Save(ctx context.Context, c *domain.Cart) error {
	_ = ctx
	if c == nil || c.UserID == "" {
		return fmt.Errorf("cart repository: user id is required")
	}
	r.st.carts[c.UserID] = c.Clone()
	return nil
}
