package placement

import (
	"context"
	"time"
)

type Status string

const (
	// StatusIntentCreated precedes any placement attempt; Amount holds what the intent will charge.
	StatusIntentCreated     Status = "INTENT_CREATED"
	StatusStarted           Status = "STARTED"
	StatusValidated         Status = "VALIDATED"
	StatusPaymentConfirmed  Status = "PAYMENT_CONFIRMED"
	StatusCommitted         Status = "COMMITTED"
	StatusFailed            Status = "FAILED"
	StatusCapturedNotPlaced Status = "CAPTURED_NOT_PLACED"
)

// Entry is one audit record of a placement attempt.
type Entry struct {
	ID               int64
	UserID           string
	PaymentReference string
	OrderID          string
	Status           Status
	Step             string
	// Amount is the money figure the step worked with, in Money.String form.
	Amount    string
	Errors    []string
	TraceID   string
	SpanID    string
	CreatedAt time.Time
}

// Log is an append-only record of placement attempts.
type Log interface {
	Append(ctx context.Context, e Entry) error
	ListByReference(ctx context.Context, reference string) ([]Entry, error)
}
