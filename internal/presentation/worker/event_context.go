// Package workerpresentation shapes the context that background event
// handlers run under.
package workerpresentation

import (
	"context"

	"github.com/Zhima-Mochi/minishop-storefront/internal/observability"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability/logctx"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

// WithEventContext stores a delivery-scoped logger on ctx. It carries an
// event_id (generated when attrs has none), the trace identifiers when valid
// and the remaining low-cardinality attrs.
func WithEventContext(
	ctx context.Context,
	base observability.Logger,
	span trace.SpanContext,
	attrs map[string]string,
) context.Context {
	if base == nil {
		base = observability.NopLogger()
	}

	evtID := attrs["event_id"]
	if evtID == "" {
		evtID = uuid.NewString()
	}
	fields := append([]observability.Field{observability.F("event_id", evtID)}, logctx.TraceFields(span)...)
	for k, v := range attrs {
		if k == "event_id" || v == "" {
			continue
		}
		fields = append(fields, observability.F(k, v))
	}

	return logctx.With(ctx, base.With(fields...))
}

// EventContextDecorator adapts WithEventContext to the event bus hook.
func EventContextDecorator(tel observability.Observability) func(context.Context, trace.SpanContext, string) context.Context {
	return func(ctx context.Context, span trace.SpanContext, eventName string) context.Context {
		return WithEventContext(ctx, logctx.FromOr(ctx, tel.Logger()), span, map[string]string{
			"event": eventName,
		})
	}
}
