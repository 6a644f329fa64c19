package application

import (
	"context"
	"errors"
	"time"

	"github.com/Zhima-Mochi/minishop-storefront/internal/observability"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability/logctx"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const SpanPrefix = "UC."

var (
	ErrUnauthenticated          = errors.New("authentication required")
	ErrProductNotFound          = errors.New("product not found")
	ErrEmptyCart                = errors.New("cart is empty")
	ErrPaymentCapturedNotPlaced = errors.New("payment captured but order not placed")
)

type UseCase[C any, R any] interface {
	Execute(ctx context.Context, cmd C) (R, error)
}

type IDGenerator interface {
	NewID() string
}

// Instrument carries the RED instruments and base logger shared by use cases.
// Instruments are resolved once at construction; nothing is created per call.
type Instrument struct {
	tracer       observability.Tracer
	log          observability.Logger
	reqCounter   observability.Counter   // usecase_requests_total{use_case,outcome}
	durHistogram observability.Histogram // usecase_duration_seconds{use_case}
}

func NewInstrument(tel observability.Observability, service string) Instrument {
	if tel == nil {
		tel = observability.Nop()
	}
	m := tel.Metrics()
	return Instrument{
		tracer:       tel.Tracer(),
		log:          tel.Logger().With(observability.F("service", service)),
		reqCounter:   m.Counter(observability.MUsecaseRequests),
		durHistogram: m.Histogram(observability.MUsecaseDuration),
	}
}

func (in Instrument) Logger() observability.Logger { return in.log }

// Call tracks one use-case execution. Handlers set Status (and Fail on errors)
// while running; End records the span status, metrics and the use_case_done line.
type Call struct {
	in      Instrument
	useCase string
	span    trace.Span
	start   time.Time
	logger  observability.Logger
	fields  []observability.Field

	Outcome string
	Status  string
}

// Begin starts the span UC.<spanName> and stores an enriched logger on ctx.
func (in Instrument) Begin(ctx context.Context, useCase, spanName string, attrs ...attribute.KeyValue) (context.Context, *Call) {
	attrs = append([]attribute.KeyValue{attribute.String("use_case", useCase)}, attrs...)
	ctx, span := in.tracer.Start(ctx, SpanPrefix+spanName, attrs...)

	ctx = logctx.WithTrace(ctx, in.log, observability.F("use_case", useCase))
	logger := logctx.FromOr(ctx, in.log)

	return ctx, &Call{
		in:      in,
		useCase: useCase,
		span:    span,
		start:   time.Now(),
		logger:  logger,
		Outcome: "success",
		Status:  "OK",
	}
}

func (c *Call) Span() trace.Span             { return c.span }
func (c *Call) Logger() observability.Logger { return c.logger }

// Fail marks the call as failed with a machine-readable status.
func (c *Call) Fail(status string) {
	c.Outcome, c.Status = "error", status
}

// With adds fields to the final use_case_done line.
func (c *Call) With(fields ...observability.Field) {
	c.fields = append(c.fields, fields...)
}

func (c *Call) End(err error) {
	lat := time.Since(c.start).Seconds()
	if err != nil && c.Outcome == "success" {
		c.Outcome = "error"
		if c.Status == "OK" {
			c.Status = "FAILED"
		}
	}

	if c.span != nil {
		if err != nil {
			c.span.RecordError(err)
			c.span.SetStatus(codes.Error, c.Status)
		} else {
			c.span.SetStatus(codes.Ok, c.Status)
		}
		c.span.End()
	}

	if c.in.reqCounter != nil {
		c.in.reqCounter.Add(1,
			observability.L("use_case", c.useCase),
			observability.L("outcome", c.Outcome),
		)
	}
	if c.in.durHistogram != nil {
		c.in.durHistogram.Observe(lat, observability.L("use_case", c.useCase))
	}

	fields := append([]observability.Field{
		observability.F("outcome", c.Outcome),
		observability.F("status", c.Status),
		observability.F("latency_seconds", lat),
	}, c.fields...)
	if err != nil {
		fields = append(fields, observability.F("error", err.Error()))
	}
	c.logger.Info("use_case_done", fields...)
}

// External records calls to collaborators outside the process
// (external_requests_total / external_request_duration_seconds).
type External struct {
	tracer    observability.Tracer
	counter   observability.Counter
	histogram observability.Histogram
}

func NewExternal(tel observability.Observability) External {
	if tel == nil {
		tel = observability.Nop()
	}
	m := tel.Metrics()
	return External{
		tracer:    tel.Tracer(),
		counter:   m.Counter(observability.MExternalRequests),
		histogram: m.Histogram(observability.MExternalRequestDuration),
	}
}

// Span opens a client span named "<Peer>.<Call>" around one collaborator call.
func (e External) Span(ctx context.Context, name, peer string) (context.Context, trace.Span) {
	if e.tracer == nil {
		return ctx, noop.Span{}
	}
	return e.tracer.Start(ctx, name, attribute.String("peer.service", peer))
}

func (e External) Observe(peer, endpoint, outcome string, start time.Time) {
	if e.counter != nil {
		e.counter.Add(1,
			observability.L("peer", peer),
			observability.L("endpoint", endpoint),
			observability.L("outcome", outcome),
		)
	}
	if e.histogram != nil {
		e.histogram.Observe(time.Since(start).Seconds(),
			observability.L("peer", peer),
			observability.L("endpoint", endpoint),
		)
	}
}

// LoggerFrom returns the request-scoped logger on ctx, or the instrument's base logger.
func LoggerFrom(ctx context.Context, in Instrument) observability.Logger {
	return logctx.FromOr(ctx, in.log)
}
