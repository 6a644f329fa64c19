package catalog

import "context"

type Repository interface {
	// Create fails with ErrNameTaken when another product already uses the name.
	Create(ctx context.Context, p *Product) error
	Get(ctx context.Context, id string) (*Product, error)
	GetMany(ctx context.Context, ids []string) (map[string]*Product, error)
	List(ctx context.Context) ([]*Product, error)
	Delete(ctx context.Context, id string) error
}
