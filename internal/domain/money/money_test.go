package money

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddRejectsCurrencyMismatch(t *testing.T) {
	_, err := MustParse("1.00", "USD").Add(MustParse("1.00", "EUR"))
	require.ErrorIs(t, err, ErrCurrencyMismatch)
}

func TestAddToEmptyAdoptsCurrency(t *testing.T) {
	got, err := Money{}.Add(MustParse("2.50", "usd"))
	require.NoError(t, err)
	assert.True(t, got.Equal(MustParse("2.50", "USD")))
}

func TestMulAndSum(t *testing.T) {
	unit := MustParse("10.00", "USD")
	total, err := Sum(unit.Mul(2), MustParse("0.10", "USD"), MustParse("0.20", "USD"))
	require.NoError(t, err)
	assert.Equal(t, "20.30 USD", total.String())

	empty, err := Sum()
	require.NoError(t, err)
	assert.True(t, empty.IsEmpty())
}

func TestParseValidation(t *testing.T) {
	cases := []struct {
		name     string
		amount   string
		currency string
		want     error
	}{
		{"bad currency", "1", "US", ErrInvalidCurrency},
		{"digits in currency", "1", "U5D", ErrInvalidCurrency},
		{"bad amount", "ten", "USD", ErrInvalidAmount},
		{"negative", "-1", "USD", ErrNegativeAmount},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(tc.amount, tc.currency)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestJSONRoundTrip(t *testing.T) {
	raw, err := json.Marshal(MustParse("3.5", "EUR"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount":"3.50","currency":"EUR"}`, string(raw))

	var back Money
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.True(t, back.Equal(MustParse("3.50", "EUR")))
}
