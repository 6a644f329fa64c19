package money

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrCurrencyMismatch = errors.New("money: currency mismatch")
	ErrInvalidCurrency  = errors.New("money: currency must be a 3-letter code")
	ErrInvalidAmount    = errors.New("money: invalid amount")
	ErrNegativeAmount   = errors.New("money: amount must not be negative")
)

// Money is an immutable amount in a single currency.
// The zero value is an empty amount with no currency; adding to it adopts
// the other operand's currency.
type Money struct {
	amount   decimal.Decimal
	currency string
}

func New(amount decimal.Decimal, currency string) (Money, error) {
	cur, err := normalizeCurrency(currency)
	if err != nil {
		return Money{}, err
	}
	if amount.IsNegative() {
		return Money{}, ErrNegativeAmount
	}
	return Money{amount: amount, currency: cur}, nil
}

// Parse builds Money from a decimal string such as "10.00".
func Parse(amount, currency string) (Money, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil {
		return Money{}, fmt.Errorf("%w: %q", ErrInvalidAmount, amount)
	}
	return New(d, currency)
}

// MustParse is like Parse but panics on invalid input.
func MustParse(amount, currency string) Money {
	m, err := Parse(amount, currency)
	if err != nil {
		panic(err)
	}
	return m
}

func Zero(currency string) Money {
	return Money{amount: decimal.Zero, currency: strings.ToUpper(currency)}
}

func (m Money) Amount() decimal.Decimal { return m.amount }
func (m Money) Currency() string        { return m.currency }

// IsEmpty reports whether m is the zero value (no currency assigned).
func (m Money) IsEmpty() bool { return m.currency == "" }

func (m Money) IsZero() bool { return m.amount.IsZero() }

func (m Money) Add(other Money) (Money, error) {
	switch {
	case m.IsEmpty():
		return other, nil
	case other.IsEmpty():
		return m, nil
	case m.currency != other.currency:
		return Money{}, fmt.Errorf("%w: %s + %s", ErrCurrencyMismatch, m.currency, other.currency)
	}
	return Money{amount: m.amount.Add(other.amount), currency: m.currency}, nil
}

// Mul scales the amount by a quantity, e.g. unit price times units.
func (m Money) Mul(quantity int) Money {
	return Money{amount: m.amount.Mul(decimal.NewFromInt(int64(quantity))), currency: m.currency}
}

func (m Money) Equal(other Money) bool {
	return m.currency == other.currency && m.amount.Equal(other.amount)
}

func (m Money) String() string {
	if m.IsEmpty() {
		return m.amount.StringFixed(2)
	}
	return m.amount.StringFixed(2) + " " + m.currency
}

// Sum adds all values, failing on the first currency mismatch.
func Sum(values ...Money) (Money, error) {
	var total Money
	for _, v := range values {
		next, err := total.Add(v)
		if err != nil {
			return Money{}, err
		}
		total = next
	}
	return total, nil
}

type wire struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(wire{Amount: m.amount.StringFixed(2), Currency: m.currency})
}

func (m *Money) UnmarshalJSON(data []byte) error {
	var w wire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if w.Amount == "" && w.Currency == "" {
		*m = Money{}
		return nil
	}
	parsed, err := Parse(w.Amount, w.Currency)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

func normalizeCurrency(c string) (string, error) {
	c = strings.ToUpper(strings.TrimSpace(c))
	if len(c) != 3 {
		return "", ErrInvalidCurrency
	}
	for _, r := range c {
		if r < 'A' || r > 'Z' {
			return "", ErrInvalidCurrency
		}
	}
	return c, nil
}
