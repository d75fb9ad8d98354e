// Package prom exports cache metrics to Prometheus.
//
// Keys carry high cardinality, so the collectors label by operation and by
// the key's namespace (the segment before the first ':'), never by full key.
package prom

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/unkn0wn-root/cachekit"
)

var _ cachekit.Metrics = (*Sink)(nil)

// Sink implements cachekit.Metrics on top of prometheus collectors.
type Sink struct {
	ops      *prometheus.CounterVec
	errors   *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// Config controls collector naming. Zero value is usable.
type Config struct {
	// Namespace is the prometheus metric namespace, e.g. "myapp".
	Namespace string

	// Buckets for the duration histogram; nil uses sub-millisecond-friendly
	// defaults suited to cache operations.
	Buckets []float64
}

// New builds a Sink and registers its collectors with reg. Pass
// prometheus.DefaultRegisterer for the default registry.
func New(reg prometheus.Registerer, cfg Config) (*Sink, error) {
	buckets := cfg.Buckets
	if buckets == nil {
		buckets = []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1, 5}
	}

	s := &Sink{
		ops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: "cache",
			Name:      "operations_total",
			Help:      "Cache operations by result and key namespace.",
		}, []string{"op", "entity"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: "cache",
			Name:      "errors_total",
			Help:      "Failed cache operations by key namespace.",
		}, []string{"entity"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Subsystem: "cache",
			Name:      "operation_duration_seconds",
			Help:      "Cache operation latency by result and key namespace.",
			Buckets:   buckets,
		}, []string{"op", "entity"}),
	}

	for _, c := range []prometheus.Collector{s.ops, s.errors, s.duration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// MustNew is New, panicking on registration failure.
func MustNew(reg prometheus.Registerer, cfg Config) *Sink {
	s, err := New(reg, cfg)
	if err != nil {
		panic(err)
	}
	return s
}

func (s *Sink) RecordHit(key string, elapsed time.Duration) { s.observe("hit", key, elapsed) }

func (s *Sink) RecordMiss(key string, elapsed time.Duration) { s.observe("miss", key, elapsed) }

func (s *Sink) RecordSet(key string, elapsed time.Duration) { s.observe("set", key, elapsed) }

func (s *Sink) RecordDelete(key string, elapsed time.Duration) { s.observe("delete", key, elapsed) }

func (s *Sink) RecordError(key string, _ string) {
	s.errors.WithLabelValues(entityOf(key)).Inc()
}

func (s *Sink) observe(op, key string, elapsed time.Duration) {
	entity := entityOf(key)
	s.ops.WithLabelValues(op, entity).Inc()
	s.duration.WithLabelValues(op, entity).Observe(elapsed.Seconds())
}

func entityOf(key string) string {
	if ns, _, ok := strings.Cut(key, ":"); ok && ns != "" {
		return ns
	}
	return "unknown"
}
