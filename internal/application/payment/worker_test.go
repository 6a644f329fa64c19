package payment

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domorder "github.com/Zhima-Mochi/minishop-storefront/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/minishop-storefront/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability"
)

type entry struct {
	level, msg string
}

type recordingLogger struct {
	mu      *sync.Mutex
	entries *[]entry
}

func newRecordingLogger() recordingLogger {
	return recordingLogger{mu: &sync.Mutex{}, entries: &[]entry{}}
}

func (l recordingLogger) With(...observability.Field) observability.Logger { return l }
func (l recordingLogger) Debug(msg string, _ ...observability.Field)       { l.add("debug", msg) }
func (l recordingLogger) Info(msg string, _ ...observability.Field)        { l.add("info", msg) }
func (l recordingLogger) Warn(msg string, _ ...observability.Field)        { l.add("warn", msg) }
func (l recordingLogger) Error(msg string, _ ...observability.Field)       { l.add("error", msg) }

func (l recordingLogger) add(level, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	*l.entries = append(*l.entries, entry{level, msg})
}

type testObservability struct{ log observability.Logger }

func (o testObservability) Tracer() observability.Tracer   { return observability.NopTracer() }
func (o testObservability) Logger() observability.Logger   { return o.log }
func (o testObservability) Metrics() observability.Metrics { return observability.NopMetrics() }

type capturingSubscriber struct {
	handlers map[string]domoutbox.Handler
}

func (s *capturingSubscriber) Subscribe(name string, h domoutbox.Handler) {
	s.handlers[name] = h
}

func TestWorkerReportsCapturedNotPlaced(t *testing.T) {
	logger := newRecordingLogger()
	sub := &capturingSubscriber{handlers: map[string]domoutbox.Handler{}}
	NewWorker(sub, testObservability{log: logger}).Start()

	h, ok := sub.handlers["order.payment_captured_not_placed"]
	require.True(t, ok)
	require.NoError(t, h(context.Background(), domorder.NewPaymentCapturedNotPlacedEvent("u1", "pi_1", "insufficient stock")))

	assert.Contains(t, *logger.entries, entry{"error", "refund_required"})
	assert.Contains(t, *logger.entries, entry{"info", "use_case_done"})
}
