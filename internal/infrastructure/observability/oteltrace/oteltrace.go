package oteltrace

import (
	"context"
	"strings"

	"github.com/Zhima-Mochi/minishop-storefront/internal/observability"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Span name prefixes that pick a non-internal span kind.
var kindByPrefix = []struct {
	prefix string
	kind   trace.SpanKind
}{
	{"Kafka.", trace.SpanKindProducer},
	{"Payment.", trace.SpanKindClient},
	{"HTTP.", trace.SpanKindServer},
}

type tracer struct {
	t     trace.Tracer
	fixed []attribute.KeyValue
}

// New returns a tracer from tp, or from the global provider when tp is nil.
// Every span carries the fixed attributes.
func New(tp trace.TracerProvider, name string, fixed ...attribute.KeyValue) observability.Tracer {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	if name == "" {
		name = "minishop-storefront"
	}
	return &tracer{t: tp.Tracer(name), fixed: fixed}
}

func (t *tracer) Start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return t.t.Start(ctx, name,
		trace.WithSpanKind(spanKind(name)),
		trace.WithAttributes(t.fixed...),
		trace.WithAttributes(attrs...),
	)
}

func spanKind(name string) trace.SpanKind {
	for _, k := range kindByPrefix {
		if strings.HasPrefix(name, k.prefix) {
			return k.kind
		}
	}
	return trace.SpanKindInternal
}
