package order

import "fmt"

type Status string

const (
	StatusOpen      Status = "open"
	StatusConfirmed Status = "confirmed"
	StatusShipped   Status = "shipped"
	StatusArrived   Status = "arrived"
	StatusCollected Status = "collected"
	StatusCompleted Status = "completed"
	StatusReturning Status = "returning"
	StatusCancelled Status = "cancelled"
)

func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if _, err := stateOf(st); err != nil {
		return "", err
	}
	return st, nil
}

func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// orderState implements the state pattern for order lifecycle transitions.
type orderState interface {
	Status() Status
	moveTo(to Status) error
}

// forwardState is a step on the happy path: it may advance to next,
// divert to Returning, or be cancelled.
type forwardState struct {
	status Status
	next   Status
}

func (s forwardState) Status() Status { return s.status }

func (s forwardState) moveTo(to Status) error {
	switch to {
	case s.next, StatusReturning, StatusCancelled:
		return nil
	default:
		return invalidTransition(s.status, to)
	}
}

type returningState struct{}

func (returningState) Status() Status { return StatusReturning }

func (returningState) moveTo(to Status) error {
	if to == StatusCancelled {
		return nil
	}
	return invalidTransition(StatusReturning, to)
}

type finishedState struct{ status Status }

func (s finishedState) Status() Status { return s.status }

func (finishedState) moveTo(Status) error { return ErrAlreadyFinished }

var states = map[Status]orderState{
	StatusOpen:      forwardState{status: StatusOpen, next: StatusConfirmed},
	StatusConfirmed: forwardState{status: StatusConfirmed, next: StatusShipped},
	StatusShipped:   forwardState{status: StatusShipped, next: StatusArrived},
	StatusArrived:   forwardState{status: StatusArrived, next: StatusCollected},
	StatusCollected: forwardState{status: StatusCollected, next: StatusCompleted},
	StatusReturning: returningState{},
	StatusCompleted: finishedState{status: StatusCompleted},
	StatusCancelled: finishedState{status: StatusCancelled},
}

func stateOf(s Status) (orderState, error) {
	st, ok := states[s]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, string(s))
	}
	return st, nil
}

func invalidTransition(from, to Status) error {
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
}
