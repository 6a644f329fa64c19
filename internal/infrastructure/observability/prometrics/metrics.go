package prometrics

import (
	"errors"
	"sync"

	"github.com/Zhima-Mochi/minishop-storefront/internal/observability"
	"github.com/prometheus/client_golang/prometheus"
)

// Family declares one metric family.
type Family struct {
	Name   string
	Help   string
	Labels []string
	// Buckets applies to histograms; nil means prometheus.DefBuckets.
	Buckets []float64
}

// Registry hands out observability instruments backed by Prometheus vectors.
type Registry interface {
	Counter(fam Family) observability.Counter
	Histogram(fam Family) observability.Histogram
}

type registry struct {
	mu         sync.Mutex
	counters   map[string]*counter
	histograms map[string]*histogram
	reg        prometheus.Registerer
	namespace  string
	subsystem  string
}

// New builds a registry that registers its vectors on reg (prometheus.DefaultRegisterer when nil).
func New(reg prometheus.Registerer, namespace, subsystem string) Registry {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	return &registry{
		counters:   make(map[string]*counter),
		histograms: make(map[string]*histogram),
		reg:        reg,
		namespace:  namespace,
		subsystem:  subsystem,
	}
}

func (r *registry) Counter(fam Family) observability.Counter {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.counters[fam.Name]; ok {
		return c
	}
	cv := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: r.namespace, Subsystem: r.subsystem, Name: fam.Name, Help: fam.Help,
	}, fam.Labels)
	cv = register(r.reg, cv)
	c := &counter{v: cv, keys: fam.Labels}
	r.counters[fam.Name] = c
	return c
}

func (r *registry) Histogram(fam Family) observability.Histogram {
	r.mu.Lock()
	defer r.mu.Unlock()
	if h, ok := r.histograms[fam.Name]; ok {
		return h
	}
	buckets := fam.Buckets
	if buckets == nil {
		buckets = prometheus.DefBuckets
	}
	hv := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: r.namespace, Subsystem: r.subsystem, Name: fam.Name, Help: fam.Help, Buckets: buckets,
	}, fam.Labels)
	hv = register(r.reg, hv)
	h := &histogram{v: hv, keys: fam.Labels}
	r.histograms[fam.Name] = h
	return h
}

// register adopts the collector already on reg when an identical one was
// registered earlier, so two registries may share one Prometheus registerer.
func register[T prometheus.Collector](reg prometheus.Registerer, c T) T {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}

type counter struct {
	v    *prometheus.CounterVec
	keys []string
}

func (c *counter) Add(d float64, labels ...observability.Label) {
	c.v.WithLabelValues(values(c.keys, labels)...).Add(d)
}

func (c *counter) Bind(labels ...observability.Label) observability.BoundCounter {
	return boundCounter{c: c.v.WithLabelValues(values(c.keys, labels)...)}
}

type boundCounter struct{ c prometheus.Counter }

func (b boundCounter) Add(d float64) { b.c.Add(d) }

type histogram struct {
	v    *prometheus.HistogramVec
	keys []string
}

func (h *histogram) Observe(v float64, labels ...observability.Label) {
	h.v.WithLabelValues(values(h.keys, labels)...).Observe(v)
}

func (h *histogram) Bind(labels ...observability.Label) observability.BoundHistogram {
	return boundHistogram{o: h.v.WithLabelValues(values(h.keys, labels)...)}
}

type boundHistogram struct{ o prometheus.Observer }

func (b boundHistogram) Observe(v float64) { b.o.Observe(v) }

// values orders labels by the declared keys. Missing keys read "unknown";
// undeclared labels are dropped.
func values(keys []string, labels []observability.Label) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = "unknown"
		for _, l := range labels {
			if l.Key == k {
				out[i] = l.Value
				break
			}
		}
	}
	return out
}
