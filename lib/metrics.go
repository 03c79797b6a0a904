package lib

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the prometheus collectors describing reconciliation
// passes
type Metrics struct {
	passes       *prometheus.CounterVec
	passDuration prometheus.Histogram
	lastPass     *prometheus.GaugeVec
	firstSeen    prometheus.Gauge
}

// NewMetrics creates and registers the pass collectors
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		passes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "reddalert",
			Subsystem: "non_chef",
			Name:      "passes_total",
			Help:      "Reconciliation passes by result",
		}, []string{"result"}),
		passDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "reddalert",
			Subsystem: "non_chef",
			Name:      "pass_duration_seconds",
			Help:      "Wall time of successful reconciliation passes",
			Buckets:   prometheus.DefBuckets,
		}),
		lastPass: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "reddalert",
			Subsystem: "non_chef",
			Name:      "last_pass_instances",
			Help:      "Instance counts of the last successful pass by outcome",
		}, []string{"outcome"}),
		firstSeen: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "reddalert",
			Subsystem: "non_chef",
			Name:      "first_seen_entries",
			Help:      "Entries held in the first-seen cache",
		}),
	}

	reg.MustRegister(m.passes, m.passDuration, m.lastPass, m.firstSeen)
	return m
}

// ObservePass records a successful pass
func (m *Metrics) ObservePass(stats PassStats, took time.Duration, firstSeen int) {
	m.passes.WithLabelValues("ok").Inc()
	m.passDuration.Observe(took.Seconds())

	m.lastPass.WithLabelValues("total").Set(float64(stats.Instances))
	m.lastPass.WithLabelValues("malformed").Set(float64(stats.Malformed))
	m.lastPass.WithLabelValues("registered").Set(float64(stats.Registered))
	m.lastPass.WithLabelValues("excluded").Set(float64(stats.Excluded))
	m.lastPass.WithLabelValues("deferred").Set(float64(stats.Deferred))
	m.lastPass.WithLabelValues("reported").Set(float64(stats.Reported))
	m.firstSeen.Set(float64(firstSeen))
}

// ObserveFailure records a failed pass
func (m *Metrics) ObserveFailure() {
	m.passes.WithLabelValues("error").Inc()
}
