package order

import (
	"errors"
	"fmt"
	"time"

	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/money"
)

var (
	ErrNotFound          = errors.New("order: not found")
	ErrConflict          = errors.New("order: already exists")
	ErrInvalidQuantity   = errors.New("order: quantity must be greater than zero")
	ErrOrderNotOpen      = errors.New("order: order is not open")
	ErrAlreadyFinished   = errors.New("order: order already finished")
	ErrInvalidTransition = errors.New("order: invalid status transition")
	ErrInvalidStatus     = errors.New("order: unknown status")
	ErrMissingOwner      = errors.New("order: user id is required")
	ErrMissingAddress    = errors.New("order: shipping address is required")
)

// Item is a line of a placed order. Name and price are copied at placement time.
type Item struct {
	ProductID   string      `json:"product_id"`
	ProductName string      `json:"product_name"`
	UnitPrice   money.Money `json:"unit_price"`
	Quantity    int         `json:"quantity"`
}

func (i Item) TotalPrice() money.Money {
	return i.UnitPrice.Mul(i.Quantity)
}

type Order struct {
	ID                string
	UserID            string
	Status            Status
	ShippingAddressID string
	BillingAddressID  string
	PaymentReference  string
	Items             []Item
	CreatedAt         time.Time
	ModifiedAt        time.Time
	CompletedAt       *time.Time
}

// New returns an Open order with no items.
func New(id, userID, shippingAddressID, billingAddressID, paymentReference string) (*Order, error) {
	if userID == "" {
		return nil, ErrMissingOwner
	}
	if shippingAddressID == "" {
		return nil, ErrMissingAddress
	}
	now := time.Now().UTC()
	return &Order{
		ID:                id,
		UserID:            userID,
		Status:            StatusOpen,
		ShippingAddressID: shippingAddressID,
		BillingAddressID:  billingAddressID,
		PaymentReference:  paymentReference,
		CreatedAt:         now,
		ModifiedAt:        now,
	}, nil
}

// AddItem appends a line, or grows the line already holding productID.
// Contents can only change while the order is Open.
func (o *Order) AddItem(productID, productName string, unitPrice money.Money, quantity int) error {
	if o.Status != StatusOpen {
		return ErrOrderNotOpen
	}
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	for i := range o.Items {
		if o.Items[i].ProductID == productID {
			o.Items[i].Quantity += quantity
			o.touch()
			return nil
		}
	}
	if len(o.Items) > 0 && o.Items[0].UnitPrice.Currency() != unitPrice.Currency() {
		return fmt.Errorf("%w: order is priced in %s", money.ErrCurrencyMismatch, o.Items[0].UnitPrice.Currency())
	}
	o.Items = append(o.Items, Item{
		ProductID:   productID,
		ProductName: productName,
		UnitPrice:   unitPrice,
		Quantity:    quantity,
	})
	o.touch()
	return nil
}

func (o *Order) Total() (money.Money, error) {
	totals := make([]money.Money, 0, len(o.Items))
	for _, it := range o.Items {
		totals = append(totals, it.TotalPrice())
	}
	return money.Sum(totals...)
}

// MoveToStatus applies a lifecycle transition. On failure the order is left untouched.
func (o *Order) MoveToStatus(to Status) error {
	current, err := stateOf(o.Status)
	if err != nil {
		return err
	}
	if err := current.moveTo(to); err != nil {
		return err
	}
	now := time.Now().UTC()
	o.Status = to
	o.ModifiedAt = now
	if to.IsTerminal() {
		o.CompletedAt = &now
	}
	return nil
}

func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	cp := *o
	cp.Items = append([]Item(nil), o.Items...)
	if o.CompletedAt != nil {
		t := *o.CompletedAt
		cp.CompletedAt = &t
	}
	return &cp
}

func (o *Order) touch() {
	o.ModifiedAt = time.Now().UTC()
}
