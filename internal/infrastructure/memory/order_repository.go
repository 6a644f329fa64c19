package memory

import (
	"context"
	"fmt"
	"sort"

	domain "github.com/Zhima-Mochi/minishop-storefront/internal/domain/order"
)

type orderRepository struct{ st *state }

func (r orderRepository) Create(ctx context.Context, o *domain.Order) error {
	_ = ctx
	if o == nil || o.ID == "" {
		return fmt.Errorf("order repository: id is required")
	}
	if _, exists := r.st.orders[o.ID]; exists {
		return domain.ErrConflict
	}
	r.st.orders[o.ID] = o.Clone()
	return nil
}

func (r orderRepository) Get(ctx context.Context, id string) (*domain.Order, error) {
	_ = ctx
	o, ok := r.st.orders[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return o.Clone(), nil
}

func (r orderRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Order, error) {
	_ = ctx
	var out []*domain.Order
	for _, o := range r.st.orders {
		if o.UserID == userID {
			out = append(out, o.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r orderRepository) Update(ctx context.Context, o *domain.Order) error {
	_ = ctx
	if o == nil || o.ID == "" {
		return fmt.Errorf("order repository: id is required")
	}
	if _, exists := r.st.orders[o.ID]; !exists {
		return domain.ErrNotFound
	}
	r.st.orders[o.ID] = o.Clone()
	return nil
}
