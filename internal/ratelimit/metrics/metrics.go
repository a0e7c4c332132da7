package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Decisions   *prometheus.CounterVec
	Bypassed    *prometheus.CounterVec
	CheckErrors prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		Decisions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "rfcheck_ratelimit_decisions_total",
			Help: "Rate limit decisions by caller kind, operation and decision",
		}, []string{"kind", "operation", "decision"}),
		Bypassed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "rfcheck_ratelimit_allowlist_bypass_total",
			Help: "Requests that skipped rate limiting through the allowlist",
		}, []string{"kind"}),
		CheckErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "rfcheck_ratelimit_check_errors_total",
			Help: "Rate limit checks that failed and were let through",
		}),
	}
}

func (m *Metrics) RecordDecision(kind, operation string, allowed bool) {
	if m == nil {
		return
	}
	decision := "allowed"
	if !allowed {
		decision = "denied"
	}
	m.Decisions.WithLabelValues(kind, operation, decision).Inc()
}

func (m *Metrics) RecordBypass(kind string) {
	if m == nil {
		return
	}
	m.Bypassed.WithLabelValues(kind).Inc()
}

func (m *Metrics) IncrementCheckErrors() {
	if m == nil {
		return
	}
	m.CheckErrors.Inc()
}
