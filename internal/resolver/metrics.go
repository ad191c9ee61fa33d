package resolver

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/specialistvlad/ruleforge/internal/attr"
	"github.com/specialistvlad/ruleforge/internal/compose"
)

// Metrics holds the resolver's Prometheus collectors. A nil *Metrics
// records nothing.
type Metrics struct {
	compositions *prometheus.CounterVec
	cacheHits    prometheus.Counter
	waits        prometheus.Counter
	failures     *prometheus.CounterVec
	duration     *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg. A nil reg
// returns nil metrics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		return nil
	}

	m := &Metrics{
		compositions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ruleforge",
			Subsystem: "resolver",
			Name:      "compositions_total",
			Help:      "Rule instances composed, one per distinct configuration",
		}, []string{"rule"}),

		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ruleforge",
			Subsystem: "resolver",
			Name:      "cache_hits_total",
			Help:      "Requests answered from an already published instance or error",
		}),

		waits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ruleforge",
			Subsystem: "resolver",
			Name:      "waits_total",
			Help:      "Requests that waited for a composition already in flight",
		}),

		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ruleforge",
			Subsystem: "resolver",
			Name:      "failures_total",
			Help:      "Failed compositions by rule and error kind",
		}, []string{"rule", "kind"}),

		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "ruleforge",
			Subsystem: "resolver",
			Name:      "composition_duration_seconds",
			Help:      "Time spent composing one instance, dependencies included",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, []string{"rule"}),
	}

	reg.MustRegister(m.compositions, m.cacheHits, m.waits, m.failures, m.duration)
	return m
}

func (m *Metrics) cacheHit() {
	if m != nil {
		m.cacheHits.Inc()
	}
}

func (m *Metrics) wait() {
	if m != nil {
		m.waits.Inc()
	}
}

func (m *Metrics) composed(rule string, took time.Duration, err error) {
	if m == nil {
		return
	}
	m.compositions.WithLabelValues(rule).Inc()
	m.duration.WithLabelValues(rule).Observe(took.Seconds())
	if err != nil {
		m.failures.WithLabelValues(rule, errorKind(err)).Inc()
	}
}

// errorKind buckets errors into a small label set.
func errorKind(err error) string {
	var (
		cycle    *CycleError
		missing  *MissingProviderError
		schema   *attr.SchemaError
		contract *compose.ContractViolationError
		impl     *compose.ImplementationError
	)
	switch {
	case errors.As(err, &cycle):
		return "cycle"
	case errors.As(err, &missing):
		return "missing_provider"
	case errors.As(err, &schema):
		return "schema"
	case errors.As(err, &contract):
		return "contract"
	case errors.As(err, &impl):
		return "implementation"
	}
	return "other"
}
