package cart

import (
	"errors"
	"fmt"
	"time"

	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/money"
)

var (
	ErrNotFound        = errors.New("cart: not found")
	ErrItemNotFound    = errors.New("cart: item not found")
	ErrInvalidQuantity = errors.New("cart: quantity must be greater than zero")
	ErrInvalidUser     = errors.New("cart: user id is required")
)

// Item is one cart line. A cart holds at most one line per product.
type Item struct {
	ProductID string      `json:"product_id"`
	Quantity  int         `json:"quantity"`
	UnitPrice money.Money `json:"unit_price"`
}

func (i Item) TotalPrice() money.Money {
	return i.UnitPrice.Mul(i.Quantity)
}

// Cart belongs to exactly one authenticated user. Items keep insertion order.
type Cart struct {
	UserID    string
	Items     []Item
	UpdatedAt time.Time
}

func New(userID string) (*Cart, error) {
	if userID == "" {
		return nil, ErrInvalidUser
	}
	return &Cart{UserID: userID, UpdatedAt: time.Now().UTC()}, nil
}

// AddItem inserts a line with the given price snapshot, or grows the existing
// line for productID. All lines must share one currency.
func (c *Cart) AddItem(productID string, unitPrice money.Money, quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	if idx := c.indexOf(productID); idx >= 0 {
		c.Items[idx].Quantity += quantity
		c.touch()
		return nil
	}
	if len(c.Items) > 0 && c.Items[0].UnitPrice.Currency() != unitPrice.Currency() {
		return fmt.Errorf("%w: cart is priced in %s", money.ErrCurrencyMismatch, c.Items[0].UnitPrice.Currency())
	}
	c.Items = append(c.Items, Item{ProductID: productID, Quantity: quantity, UnitPrice: unitPrice})
	c.touch()
	return nil
}

// ChangeItemQuantity sets an existing line's quantity. A non-positive quantity
// is rejected rather than treated as removal.
func (c *Cart) ChangeItemQuantity(productID string, quantity int) error {
	idx := c.indexOf(productID)
	if idx < 0 {
		return ErrItemNotFound
	}
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	c.Items[idx].Quantity = quantity
	c.touch()
	return nil
}

func (c *Cart) RemoveItem(productID string) error {
	idx := c.indexOf(productID)
	if idx < 0 {
		return ErrItemNotFound
	}
	c.Items = append(c.Items[:idx], c.Items[idx+1:]...)
	c.touch()
	return nil
}

func (c *Cart) Clear() {
	if len(c.Items) == 0 {
		return
	}
	c.Items = nil
	c.touch()
}

// Consume takes quantity units of productID out of the cart, dropping the
// line once nothing is left. A missing line is ignored.
func (c *Cart) Consume(productID string, quantity int) {
	idx := c.indexOf(productID)
	if idx < 0 || quantity <= 0 {
		return
	}
	if c.Items[idx].Quantity <= quantity {
		c.Items = append(c.Items[:idx], c.Items[idx+1:]...)
	} else {
		c.Items[idx].Quantity -= quantity
	}
	c.touch()
}

func (c *Cart) Item(productID string) (Item, bool) {
	if idx := c.indexOf(productID); idx >= 0 {
		return c.Items[idx], true
	}
	return Item{}, false
}

func (c *Cart) IsEmpty() bool { return len(c.Items) == 0 }

// Total recomputes the sum of line totals on every call.
func (c *Cart) Total() (money.Money, error) {
	totals := make([]money.Money, 0, len(c.Items))
	for _, it := range c.Items {
		totals = append(totals, it.TotalPrice())
	}
	return money.Sum(totals...)
}

func (c *Cart) ProductIDs() []string {
	ids := make([]string, 0, len(c.Items))
	for _, it := range c.Items {
		ids = append(ids, it.ProductID)
	}
	return ids
}

func (c *Cart) Clone() *Cart {
	if c == nil {
		return nil
	}
	cp := *c
	cp.Items = append([]Item(nil), c.Items...)
	return &cp
}

func (c *Cart) indexOf(productID string) int {
	for i, it := range c.Items {
		if it.ProductID == productID {
			return i
		}
	}
	return -1
}

func (c *Cart) touch() {
	c.UpdatedAt = time.Now().UTC()
}
