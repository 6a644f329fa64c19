package inventory

import (
	"errors"
	"time"
)

var (
	ErrNotFound           = errors.New("inventory: product not found")
	ErrInvalidProductID   = errors.New("inventory: product id is required")
	ErrInvalidQuantity    = errors.New("inventory: quantity must be greater than zero")
	ErrInsufficientStock  = errors.New("inventory: insufficient stock")
	ErrReleaseExceedsHeld = errors.New("inventory: release exceeds reserved quantity")
)

// Item is the stock ledger for one product.
// Every method keeps 0 <= ReservedQuantity <= Quantity.
type Item struct {
	ProductID        string
	Quantity         int
	ReservedQuantity int
	LastUpdated      time.Time
}

func Create(productID string, initialQuantity int) (*Item, error) {
	if productID == "" {
		return nil, ErrInvalidProductID
	}
	if initialQuantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	return &Item{
		ProductID:   productID,
		Quantity:    initialQuantity,
		LastUpdated: time.Now().UTC(),
	}, nil
}

func (i *Item) AvailableQuantity() int {
	return i.Quantity - i.ReservedQuantity
}

// RemoveStock takes units out of the available (unreserved) stock.
func (i *Item) RemoveStock(amount int) error {
	if amount <= 0 {
		return ErrInvalidQuantity
	}
	if amount > i.AvailableQuantity() {
		return ErrInsufficientStock
	}
	i.Quantity -= amount
	i.touch()
	return nil
}

func (i *Item) AddStock(amount int) error {
	if amount <= 0 {
		return ErrInvalidQuantity
	}
	i.Quantity += amount
	i.touch()
	return nil
}

func (i *Item) Reserve(amount int) error {
	if amount <= 0 {
		return ErrInvalidQuantity
	}
	if amount > i.AvailableQuantity() {
		return ErrInsufficientStock
	}
	i.ReservedQuantity += amount
	i.touch()
	return nil
}

func (i *Item) Release(amount int) error {
	if amount <= 0 {
		return ErrInvalidQuantity
	}
	if amount > i.ReservedQuantity {
		return ErrReleaseExceedsHeld
	}
	i.ReservedQuantity -= amount
	i.touch()
	return nil
}

// IsLow reports whether available stock is at or below threshold.
// A non-positive threshold disables the check.
func (i *Item) IsLow(threshold int) bool {
	return threshold > 0 && i.AvailableQuantity() <= threshold
}

func (i *Item) Clone() *Item {
	if i == nil {
		return nil
	}
	cp := *i
	return &cp
}

func (i *Item) touch() {
	i.LastUpdated = time.Now().UTC()
}
