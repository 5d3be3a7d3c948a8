package resolver

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	resultOK        = "ok"
	resultError     = "error"
	resultEmpty     = "empty"
	resultMalformed = "malformed"
)

type metrics struct {
	fetches  *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func newMetrics() *metrics {
	const namespace = "flagd"
	const subsystem = "resolver"

	return &metrics{
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "fetch_total",
			Help:      "Number of remote flag fetches by source and result.",
		}, []string{"source", "result"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "fetch_duration_seconds",
			Help:      "Time spent fetching the remote flag document.",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}, []string{"source"}),
	}
}

func (m *metrics) fetched(source, result string) {
	m.fetches.WithLabelValues(source, result).Inc()
}

func (m *metrics) observe(source string, d time.Duration) {
	m.duration.WithLabelValues(source).Observe(d.Seconds())
}

// PrometheusCollectors returns the resolver's metric collectors.
func (s *Service) PrometheusCollectors() []prometheus.Collector {
	return []prometheus.Collector{
		s.metrics.fetches,
		s.metrics.duration,
	}
}
