package registry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Duration prometheus.Histogram
	Errors   *prometheus.CounterVec
	Outcomes *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	return &Metrics{
		Duration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "rfcheck_upstream_duration_seconds",
			Help:    "Registry call latency including parsing",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10},
		}),
		Errors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "rfcheck_upstream_errors_total",
			Help: "Registry calls that failed, by error category",
		}, []string{"category"}),
		Outcomes: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "rfcheck_upstream_outcomes_total",
			Help: "Classified registry answers, by outcome",
		}, []string{"outcome"}),
	}
}

func (m *Metrics) observe(d time.Duration, res *Result, err error) {
	if m == nil {
		return
	}
	m.Duration.Observe(d.Seconds())
	if err != nil {
		m.Errors.WithLabelValues(string(GetCategory(err))).Inc()
		return
	}
	m.Outcomes.WithLabelValues(string(res.Outcome)).Inc()
}
