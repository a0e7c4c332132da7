package kv

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics exposes shared-store health. A degraded value of 1 means this
// instance is serving from its local store and limits are not global.
type Metrics struct {
	Degraded        prometheus.Gauge
	PrimaryFailures prometheus.Counter
	FallbackOps     *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	return &Metrics{
		Degraded: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "rfcheck_kv_degraded",
			Help: "1 when the shared store is bypassed and the in-process fallback is serving",
		}),
		PrimaryFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "rfcheck_kv_primary_failures_total",
			Help: "Shared store operations that failed and were served by the fallback",
		}),
		FallbackOps: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "rfcheck_kv_fallback_operations_total",
			Help: "Operations served by the in-process fallback store",
		}, []string{"op"}),
	}
}

func (m *Metrics) setDegraded(degraded bool) {
	if m == nil {
		return
	}
	if degraded {
		m.Degraded.Set(1)
		return
	}
	m.Degraded.Set(0)
}

func (m *Metrics) recordPrimaryFailure() {
	if m == nil {
		return
	}
	m.PrimaryFailures.Inc()
}

func (m *Metrics) recordFallback(op string) {
	if m == nil {
		return
	}
	m.FallbackOps.WithLabelValues(op).Inc()
}
