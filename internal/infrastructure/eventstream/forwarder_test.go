package eventstream

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/inventory"
	domoutbox "github.com/Zhima-Mochi/minishop-storefront/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability"
)

type fakeWriter struct {
	mu   sync.Mutex
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

type mapSubscriber map[string]domoutbox.Handler

func (s mapSubscriber) Subscribe(name string, h domoutbox.Handler) { s[name] = h }

func TestForwardWritesKeyedEnvelope(t *testing.T) {
	w := &fakeWriter{}
	f := NewForwarder(w, observability.Nop())
	sub := mapSubscriber{}
	f.Subscribe(sub, "inventory.stock_changed", "inventory.low_stock")
	require.Len(t, sub, 2)

	evt := inventory.StockChangedEvent{ProductID: "p1", Delta: -2, Quantity: 3, Available: 3, OccurredAt: time.Now().UTC()}
	require.NoError(t, sub["inventory.stock_changed"](context.Background(), evt))

	require.Len(t, w.msgs, 1)
	msg := w.msgs[0]
	assert.Equal(t, "p1", string(msg.Key))

	var env Envelope
	require.NoError(t, json.Unmarshal(msg.Value, &env))
	assert.Equal(t, "inventory.stock_changed", env.Event)
	assert.Equal(t, "p1", env.Key)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(env.Payload, &payload))
	assert.Equal(t, "p1", payload["product_id"])
	assert.EqualValues(t, -2, payload["delta"])
}

func TestForwardSurfacesWriterError(t *testing.T) {
	boom := errors.New("broker down")
	f := NewForwarder(&fakeWriter{err: boom}, observability.Nop())

	err := f.Forward(context.Background(), inventory.LowStockEvent{ProductID: "p1"})
	require.ErrorIs(t, err, boom)
}

func TestNewWriterSplitsBrokers(t *testing.T) {
	w := NewWriter("a:9092, b:9092,,", "storefront.events")
	assert.Equal(t, "storefront.events", w.Topic)
	assert.Equal(t, "a:9092,b:9092", w.Addr.String())
}
