package catalog

import (
	"errors"
	"strings"
	"time"

	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/money"
)

var (
	ErrNotFound     = errors.New("catalog: product not found")
	ErrNameTaken    = errors.New("catalog: product name already taken")
	ErrInvalidName  = errors.New("catalog: product name is required")
	ErrInvalidPrice = errors.New("catalog: product price must carry a currency")
)

type Product struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Price     money.Money `json:"price"`
	CreatedAt time.Time   `json:"created_at"`
}

func NewProduct(id, name string, price money.Money) (*Product, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidName
	}
	if price.IsEmpty() {
		return nil, ErrInvalidPrice
	}
	return &Product{
		ID:        id,
		Name:      name,
		Price:     price,
		CreatedAt: time.Now().UTC(),
	}, nil
}

func (p *Product) Clone() *Product {
	if p == nil {
		return nil
	}
	cp := *p
	return &cp
}
