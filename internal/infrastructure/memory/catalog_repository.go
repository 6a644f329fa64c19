package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/address"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/catalog"
)

type productRepository struct{ st *state }

func (r productRepository) Create(ctx context.Context, p *catalog.Product) error {
	_ = ctx
	if p == nil || p.ID == "" {
		return fmt.Errorf("product repository: id is required")
	}
	for _, existing := range r.st.products {
		if strings.EqualFold(existing.Name, p.Name) {
			return catalog.ErrNameTaken
		}
	}
	r.st.products[p.ID] = p.Clone()
	return nil
}

func (r productRepository) Get(ctx context.Context, id string) (*catalog.Product, error) {
	_ = ctx
	p, ok := r.st.products[id]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	return p.Clone(), nil
}

func (r productRepository) GetMany(ctx context.Context, ids []string) (map[string]*catalog.Product, error) {
	_ = ctx
	out := make(map[string]*catalog.Product, len(ids))
	for _, id := range ids {
		if p, ok := r.st.products[id]; ok {
			out[id] = p.Clone()
		}
	}
	return out, nil
}

func (r productRepository) List(ctx context.Context) ([]*catalog.Product, error) {
	_ = ctx
	out := make([]*catalog.Product, 0, len(r.st.products))
	for _, p := range r.st.products {
		out = append(out, p.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r productRepository) Delete(ctx context.Context, id string) error {
	_ = ctx
	if _, ok := r.st.products[id]; !ok {
		return catalog.ErrNotFound
	}
	delete(r.st.products, id)
	return nil
}

type addressRepository struct{ st *state }

func (r addressRepository) Create(ctx context.Context, a *address.Address) error {
	_ = ctx
	if a == nil || a.ID == "" {
		return fmt.Errorf("address repository: id is required")
	}
	cp := *a
	r.st.addresses[a.ID] = &cp
	return nil
}

func (r addressRepository) Get(ctx context.Context, id string) (*address.Address, error) {
	_ = ctx
	a, ok := r.st.addresses[id]
	if !ok {
		return nil, address.ErrNotFound
	}
	cp := *a
	return &cp, nil
}
