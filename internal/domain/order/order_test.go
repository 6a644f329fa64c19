package order

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/money"
)

var allStatuses = []Status{
	StatusOpen, StatusConfirmed, StatusShipped, StatusArrived,
	StatusCollected, StatusCompleted, StatusReturning, StatusCancelled,
}

var allowed = map[Status][]Status{
	StatusOpen:      {StatusConfirmed, StatusReturning, StatusCancelled},
	StatusConfirmed: {StatusShipped, StatusReturning, StatusCancelled},
	StatusShipped:   {StatusArrived, StatusReturning, StatusCancelled},
	StatusArrived:   {StatusCollected, StatusReturning, StatusCancelled},
	StatusCollected: {StatusCompleted, StatusReturning, StatusCancelled},
	StatusReturning: {StatusCancelled},
}

func newOrder(t *testing.T) *Order {
	t.Helper()
	o, err := New("o1", "u1", "a1", "", "ref-1")
	require.NoError(t, err)
	return o
}

func TestNewValidatesOwnerAndAddress(t *testing.T) {
	_, err := New("o1", "", "a1", "", "")
	assert.ErrorIs(t, err, ErrMissingOwner)
	_, err = New("o1", "u1", "", "", "")
	assert.ErrorIs(t, err, ErrMissingAddress)

	o := newOrder(t)
	assert.Equal(t, StatusOpen, o.Status)
	assert.Nil(t, o.CompletedAt)
}

func TestTransitionTable(t *testing.T) {
	for _, from := range allStatuses {
		for _, to := range allStatuses {
			t.Run(string(from)+"->"+string(to), func(t *testing.T) {
				o := newOrder(t)
				o.Status = from
				stamp := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
				o.ModifiedAt = stamp

				err := o.MoveToStatus(to)
				if contains(allowed[from], to) {
					require.NoError(t, err)
					assert.Equal(t, to, o.Status)
					assert.True(t, o.ModifiedAt.After(stamp))
					assert.Equal(t, to.IsTerminal(), o.CompletedAt != nil)
					return
				}

				require.Error(t, err)
				if from.IsTerminal() {
					assert.ErrorIs(t, err, ErrAlreadyFinished)
				} else {
					assert.ErrorIs(t, err, ErrInvalidTransition)
				}
				assert.Equal(t, from, o.Status)
				assert.Equal(t, stamp, o.ModifiedAt)
				assert.Nil(t, o.CompletedAt)
			})
		}
	}
}

func TestAddItemOnlyWhileOpen(t *testing.T) {
	o := newOrder(t)
	price := money.MustParse("10.00", "USD")
	require.NoError(t, o.AddItem("p1", "Mug", price, 2))
	assert.ErrorIs(t, o.AddItem("p2", "Cup", price, 0), ErrInvalidQuantity)

	total, err := o.Total()
	require.NoError(t, err)
	assert.Equal(t, "20.00 USD", total.String())

	require.NoError(t, o.MoveToStatus(StatusConfirmed))
	assert.ErrorIs(t, o.AddItem("p2", "Cup", price, 1), ErrOrderNotOpen)
	assert.Len(t, o.Items, 1)
}

func TestParseStatus(t *testing.T) {
	st, err := ParseStatus("shipped")
	require.NoError(t, err)
	assert.Equal(t, StatusShipped, st)

	_, err = ParseStatus("lost")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func contains(list []Status, s Status) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
