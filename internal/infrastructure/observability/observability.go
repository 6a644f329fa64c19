package observability

import (
	"github.com/Zhima-Mochi/minishop-storefront/internal/infrastructure/observability/prometrics"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability"
)

// Latency buckets in seconds. Use cases run in-process against the store;
// collaborator calls include network round trips.
var (
	useCaseBuckets  = []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 2.5}
	externalBuckets = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
)

type instrument struct {
	key observability.MetricKey
	fam prometrics.Family
}

func family(key observability.MetricKey, help string, buckets []float64, labels ...string) instrument {
	return instrument{key: key, fam: prometrics.Family{Name: string(key), Help: help, Labels: labels, Buckets: buckets}}
}

var (
	counterSet = []instrument{
		family(observability.MUsecaseRequests, "Use case invocations by outcome.", nil, "use_case", "outcome"),
		family(observability.MHTTPRequests, "HTTP requests by route and status.", nil, "method", "route", "status"),
		family(observability.MExternalRequests, "Calls to the payment gateway, the event stream and the bus.", nil, "peer", "endpoint", "outcome"),
		family(observability.MPaymentCapturedNotPlaced, "Confirmed payments whose order could not be committed.", nil, "reason"),
	}
	histogramSet = []instrument{
		family(observability.MUsecaseDuration, "Use case latency in seconds.", useCaseBuckets, "use_case"),
		family(observability.MHTTPRequestDuration, "HTTP request latency in seconds.", nil, "method", "route", "status"),
		family(observability.MExternalRequestDuration, "Collaborator call latency in seconds.", externalBuckets, "peer", "endpoint"),
	}
)

type provider struct {
	tracer  observability.Tracer
	logger  observability.Logger
	metrics observability.Metrics
}

// instruments resolves metric keys to registered instruments. Unknown keys
// get no-ops so a missing registration never breaks a request.
type instruments struct {
	counters   map[observability.MetricKey]observability.Counter
	histograms map[observability.MetricKey]observability.Histogram
}

func (m instruments) Counter(name observability.MetricKey) observability.Counter {
	if c, ok := m.counters[name]; ok {
		return c
	}
	return observability.NopCounter()
}

func (m instruments) Histogram(name observability.MetricKey) observability.Histogram {
	if h, ok := m.histograms[name]; ok {
		return h
	}
	return observability.NopHistogram()
}

// NewStandard registers every storefront instrument on reg and bundles them
// with tracer and logger. A nil reg yields no-op metrics.
func NewStandard(reg prometrics.Registry, tracer observability.Tracer, logger observability.Logger) observability.Observability {
	if tracer == nil {
		tracer = observability.NopTracer()
	}
	if logger == nil {
		logger = observability.NopLogger()
	}
	p := &provider{tracer: tracer, logger: logger, metrics: observability.NopMetrics()}
	if reg == nil {
		return p
	}

	m := instruments{
		counters:   make(map[observability.MetricKey]observability.Counter, len(counterSet)),
		histograms: make(map[observability.MetricKey]observability.Histogram, len(histogramSet)),
	}
	for _, in := range counterSet {
		m.counters[in.key] = reg.Counter(in.fam)
	}
	for _, in := range histogramSet {
		m.histograms[in.key] = reg.Histogram(in.fam)
	}
	p.metrics = m
	return p
}

func (p *provider) Tracer() observability.Tracer   { return p.tracer }
func (p *provider) Logger() observability.Logger   { return p.logger }
func (p *provider) Metrics() observability.Metrics { return p.metrics }
