// Package logctx carries the request- or event-scoped logger on a context.
package logctx

import (
	"context"

	"github.com/Zhima-Mochi/minishop-storefront/internal/observability"

	"go.opentelemetry.io/otel/trace"
)

type loggerKey struct{}

func With(ctx context.Context, logger observability.Logger) context.Context {
	if ctx == nil || logger == nil {
		return ctx
	}
	return context.WithValue(ctx, loggerKey{}, logger)
}

// WithFields enriches the context logger (or fallback) with fields and stores it back.
func WithFields(ctx context.Context, fallback observability.Logger, fields ...observability.Field) context.Context {
	return With(ctx, FromOr(ctx, fallback).With(fields...))
}

// WithTrace is WithFields plus the trace_id and span_id of the span active on ctx.
func WithTrace(ctx context.Context, fallback observability.Logger, fields ...observability.Field) context.Context {
	fields = append(fields, TraceFields(trace.SpanContextFromContext(ctx))...)
	return WithFields(ctx, fallback, fields...)
}

// TraceFields renders the valid parts of sc as log fields.
func TraceFields(sc trace.SpanContext) []observability.Field {
	var out []observability.Field
	if sc.TraceID().IsValid() {
		out = append(out, observability.F("trace_id", sc.TraceID().String()))
	}
	if sc.SpanID().IsValid() {
		out = append(out, observability.F("span_id", sc.SpanID().String()))
	}
	return out
}

// From returns the logger stored on ctx, or nil.
func From(ctx context.Context) observability.Logger {
	if ctx == nil {
		return nil
	}
	logger, _ := ctx.Value(loggerKey{}).(observability.Logger)
	return logger
}

// FromOr never returns nil: the context logger, else fallback, else a no-op.
func FromOr(ctx context.Context, fallback observability.Logger) observability.Logger {
	if logger := From(ctx); logger != nil {
		return logger
	}
	if fallback == nil {
		return observability.NopLogger()
	}
	return fallback
}
