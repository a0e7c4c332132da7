package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics for the validation pipeline. A nil *Metrics is a no-op.
type Metrics struct {
	Validations   *prometheus.CounterVec
	CacheRequests *prometheus.CounterVec
	Duration      prometheus.Histogram
	Collapsed     prometheus.Counter
}

func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry registers the collectors on reg. Tests pass a fresh
// registry so several instances can coexist.
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Validations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "rfcheck_validations_total",
			Help: "Completed validations by outcome and source",
		}, []string{"outcome", "source"}),
		CacheRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "rfcheck_cache_requests_total",
			Help: "Verdict cache lookups by result",
		}, []string{"result"}),
		Duration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "rfcheck_validation_duration_seconds",
			Help:    "End to end validation latency",
			Buckets: prometheus.DefBuckets,
		}),
		Collapsed: factory.NewCounter(prometheus.CounterOpts{
			Name: "rfcheck_validation_collapsed_total",
			Help: "Live lookups that shared an in-flight registry call",
		}),
	}
}

func (m *Metrics) IncrementValidation(outcome, source string) {
	if m == nil {
		return
	}
	m.Validations.WithLabelValues(outcome, source).Inc()
}

func (m *Metrics) IncrementCacheHit() {
	if m == nil {
		return
	}
	m.CacheRequests.WithLabelValues("hit").Inc()
}

func (m *Metrics) IncrementCacheMiss() {
	if m == nil {
		return
	}
	m.CacheRequests.WithLabelValues("miss").Inc()
}

func (m *Metrics) ObserveDuration(seconds float64) {
	if m == nil {
		return
	}
	m.Duration.Observe(seconds)
}

func (m *Metrics) IncrementCollapsed() {
	if m == nil {
		return
	}
	m.Collapsed.Inc()
}
