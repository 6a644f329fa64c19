package workerpresentation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"

	"github.com/Zhima-Mochi/minishop-storefront/internal/observability"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability/logctx"
)

type fieldLogger struct {
	observability.Logger
	fields map[string]any
}

func (l fieldLogger) With(fields ...observability.Field) observability.Logger {
	next := fieldLogger{Logger: l.Logger, fields: make(map[string]any, len(l.fields)+len(fields))}
	for k, v := range l.fields {
		next.fields[k] = v
	}
	for _, f := range fields {
		next.fields[f.Key] = f.Value
	}
	return next
}

func TestWithEventContextAddsIdentifiers(t *testing.T) {
	traceID, err := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	require.NoError(t, err)
	spanID, err := trace.SpanIDFromHex("00f067aa0ba902b7")
	require.NoError(t, err)
	span := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID})

	base := fieldLogger{Logger: observability.NopLogger()}
	ctx := WithEventContext(context.Background(), base, span, map[string]string{
		"event":    "order.placed",
		"event_id": "evt-1",
		"empty":    "",
	})

	got, ok := logctx.From(ctx).(fieldLogger)
	require.True(t, ok)
	assert.Equal(t, map[string]any{
		"event_id": "evt-1",
		"trace_id": traceID.String(),
		"span_id":  spanID.String(),
		"event":    "order.placed",
	}, got.fields)
}

func TestWithEventContextGeneratesEventID(t *testing.T) {
	base := fieldLogger{Logger: observability.NopLogger()}
	ctx := WithEventContext(context.Background(), base, trace.SpanContext{}, nil)

	got := logctx.From(ctx).(fieldLogger)
	assert.NotEmpty(t, got.fields["event_id"])
	assert.NotContains(t, got.fields, "trace_id")
}

func TestEventContextDecoratorUsesContextLogger(t *testing.T) {
	base := fieldLogger{Logger: observability.NopLogger(), fields: map[string]any{"component": "outbox"}}
	ctx := logctx.With(context.Background(), base)

	ctx = EventContextDecorator(observability.Nop())(ctx, trace.SpanContext{}, "inventory.low_stock")

	got := logctx.From(ctx).(fieldLogger)
	assert.Equal(t, "outbox", got.fields["component"])
	assert.Equal(t, "inventory.low_stock", got.fields["event"])
}
