package memory

import (
	"context"
	"fmt"

	domain "github.com/Zhima-Mochi/minishop-storefront/internal/domain/inventory"
)

type inventoryRepository struct{ st *state }

func (r inventoryRepository) Create(ctx context.Context, item *domain.Item) error {
	_ = ctx
	if item == nil || item.ProductID == "" {
		return fmt.Errorf("inventory repository: product id is required")
	}
	r.st.inventory[item.ProductID] = item.Clone()
	return nil
}

func (r inventoryRepository) Get(ctx context.Context, productID string) (*domain.Item, error) {
	_ = ctx
	item, ok := r.st.inventory[productID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return item.Clone(), nil
}

func (r inventoryRepository) GetMany(ctx context.Context, productIDs []string) (map[string]*domain.Item, error) {
	_ = ctx
	out := make(map[string]*domain.Item, len(productIDs))
	for _, id := range productIDs {
		if item, ok := r.st.inventory[id]; ok {
			out[id] = item.Clone()
		}
	}
	return out, nil
}

func (r inventoryRepository) RemoveStock(ctx context.Context, productID string, n int) (*domain.Item, error) {
	return r.apply(ctx, productID, func(i *domain.Item) error { return i.RemoveStock(n) })
}

func (r inventoryRepository) AddStock(ctx context.Context, productID string, n int) (*domain.Item, error) {
	return r.apply(ctx, productID, func(i *domain.Item) error { return i.AddStock(n) })
}

func (r inventoryRepository) Reserve(ctx context.Context, productID string, n int) (*domain.Item, error) {
	return r.apply(ctx, productID, func(i *domain.Item) error { return i.Reserve(n) })
}

func (r inventoryRepository) Release(ctx context.Context, productID string, n int) (*domain.Item, error) {
	return r.apply(ctx, productID, func(i *domain.Item) error { return i.Release(n) })
}

func (r inventoryRepository) Delete(ctx context.Context, productID string) error {
	_ = ctx
	if _, ok := r.st.inventory[productID]; !ok {
		return domain.ErrNotFound
	}
	delete(r.st.inventory, productID)
	return nil
}

// apply mutates a copy and stores it only on success.
func (r inventoryRepository) apply(ctx context.Context, productID string, fn func(*domain.Item) error) (*domain.Item, error) {
	_ = ctx
	current, ok := r.st.inventory[productID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	next := current.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}
	r.st.inventory[productID] = next
	return next.Clone(), nil
}
