// Package eventstream forwards committed domain events from the in-process
// bus to a Kafka topic for consumers outside the storefront.
package eventstream

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"

	domoutbox "github.com/Zhima-Mochi/minishop-storefront/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability/logctx"
)

const peerKafka = "kafka"

// MessageWriter is the subset of *kafka.Writer the forwarder needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// NewWriter builds a writer for a comma separated broker list.
func NewWriter(brokers, topic string) *kafka.Writer {
	addrs := make([]string, 0)
	for _, b := range strings.Split(brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			addrs = append(addrs, b)
		}
	}
	return &kafka.Writer{
		Addr:                   kafka.TCP(addrs...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
		BatchTimeout:           50 * time.Millisecond,
	}
}

// Envelope is the wire shape of a forwarded event.
type Envelope struct {
	Event   string          `json:"event"`
	Key     string          `json:"key,omitempty"`
	SentAt  time.Time       `json:"sent_at"`
	Payload json.RawMessage `json:"payload"`
}

type Forwarder struct {
	writer     MessageWriter
	tel        observability.Observability
	log        observability.Logger
	requests   observability.Counter
	latency    observability.Histogram
	propagator propagation.TextMapPropagator
}

func NewForwarder(writer MessageWriter, tel observability.Observability) *Forwarder {
	if tel == nil {
		tel = observability.Nop()
	}
	m := tel.Metrics()
	return &Forwarder{
		writer:     writer,
		tel:        tel,
		log:        tel.Logger().With(observability.F("component", "eventstream")),
		requests:   m.Counter(observability.MExternalRequests),
		latency:    m.Histogram(observability.MExternalRequestDuration),
		propagator: propagation.TraceContext{},
	}
}

// Subscribe forwards every event published under names.
func (f *Forwarder) Subscribe(sub domoutbox.Subscriber, names ...string) {
	domoutbox.SubscribeAll(sub, f.Forward, names...)
}

func (f *Forwarder) Forward(ctx context.Context, e domoutbox.Event) (err error) {
	name := e.EventName()
	ctx, span := f.tel.Tracer().Start(ctx, "Kafka.Publish",
		attribute.String("messaging.system", peerKafka),
		attribute.String("event", name),
	)
	start := time.Now()
	defer func() {
		outcome := "success"
		if err != nil {
			outcome = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		labels := []observability.Label{observability.L("peer", peerKafka), observability.L("endpoint", name)}
		f.requests.Add(1, append(labels, observability.L("outcome", outcome))...)
		f.latency.Observe(time.Since(start).Seconds(), labels...)
		span.End()
	}()

	msg, err := f.message(ctx, e)
	if err != nil {
		return err
	}
	if err := f.writer.WriteMessages(ctx, msg); err != nil {
		logctx.FromOr(ctx, f.log).Warn("event_forward_failed",
			observability.F("event", name),
			observability.F("error", err),
		)
		return fmt.Errorf("eventstream: write %s: %w", name, err)
	}
	logctx.FromOr(ctx, f.log).Debug("event_forwarded", observability.F("event", name))
	return nil
}

func (f *Forwarder) message(ctx context.Context, e domoutbox.Event) (kafka.Message, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("eventstream: encode %s: %w", e.EventName(), err)
	}
	env := Envelope{Event: e.EventName(), SentAt: time.Now().UTC(), Payload: payload}
	if k, ok := e.(domoutbox.Keyed); ok {
		env.Key = k.AggregateID()
	}
	value, err := json.Marshal(env)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("eventstream: encode envelope: %w", err)
	}

	carrier := propagation.MapCarrier{}
	f.propagator.Inject(ctx, carrier)
	headers := []kafka.Header{{Key: "event", Value: []byte(env.Event)}}
	for k, v := range carrier {
		headers = append(headers, kafka.Header{Key: k, Value: []byte(v)})
	}

	msg := kafka.Message{Value: value, Headers: headers}
	if env.Key != "" {
		msg.Key = []byte(env.Key)
	}
	return msg, nil
}

func (f *Forwarder) Close() error {
	return f.writer.Close()
}
