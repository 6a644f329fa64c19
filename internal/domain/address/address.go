package address

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	ErrNotFound = errors.New("address: not found")
	ErrInvalid  = errors.New("address: line1, city, postal code and country are required")
)

// Details is a mailing address payload as supplied by a buyer.
type Details struct {
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

func (d Details) Validate() error {
	for _, v := range []string{d.Line1, d.City, d.PostalCode, d.Country} {
		if strings.TrimSpace(v) == "" {
			return ErrInvalid
		}
	}
	return nil
}

// Address is an append-only mailing address owned by one user.
type Address struct {
	ID     string
	UserID string
	Details
	CreatedAt time.Time
}

func New(id, userID string, d Details) (*Address, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &Address{ID: id, UserID: userID, Details: d, CreatedAt: time.Now().UTC()}, nil
}

type Repository interface {
	Create(ctx context.Context, a *Address) error
	Get(ctx context.Context, id string) (*Address, error)
}
