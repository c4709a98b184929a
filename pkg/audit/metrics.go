package audit

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "rulewatch"

// Metrics counts checks by status and records how long they take.
type Metrics struct {
	Checks   *prometheus.CounterVec
	Duration prometheus.Histogram
}

// NewMetrics creates the check metrics and registers them on reg. A nil reg
// leaves them unregistered, which is what tests want.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Checks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "checks_total",
				Help:      "Document checks by outcome status",
			},
			[]string{"status"},
		),
		Duration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Name:      "check_duration_seconds",
				Help:      "Duration of one document check in seconds",
				Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
		),
	}
	if reg != nil {
		reg.MustRegister(m.Checks, m.Duration)
	}
	return m
}

func (m *Metrics) observe(status Status, d time.Duration) {
	if m == nil {
		return
	}
	m.Checks.WithLabelValues(string(status)).Inc()
	m.Duration.Observe(d.Seconds())
}
