// Package outbox defines the in-process event contract. Events are published
// only after the unit of work that produced them has committed.
package outbox

import (
	"context"
	"errors"
)

// ErrClosed is returned when publishing to a stopped bus.
var ErrClosed = errors.New("outbox: bus closed")

// Event is a committed domain fact identified by a dotted name such as
// "order.placed".
type Event interface {
	EventName() string
}

// Keyed events name the aggregate they describe. Consumers that need per
// aggregate ordering partition on AggregateID.
type Keyed interface {
	Event
	AggregateID() string
}

// Handler reacts to one delivery. A returned error is logged by the bus and
// never retried.
type Handler func(ctx context.Context, e Event) error

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

type Subscriber interface {
	Subscribe(eventName string, h Handler)
}

// SubscribeAll registers h for every name.
func SubscribeAll(sub Subscriber, h Handler, names ...string) {
	for _, name := range names {
		sub.Subscribe(name, h)
	}
}
