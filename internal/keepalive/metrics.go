package keepalive

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts keepalive queries.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	queries   *prometheus.CounterVec
	duration  prometheus.Histogram
	lastQuery prometheus.Gauge
}

// NewMetrics creates keepalive metrics registered on reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		queries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gpu_keepalive_queries_total",
				Help: "Total GPU status queries run by the keepalive loop",
			},
			[]string{"result"}, // "success", "failure"
		),
		duration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "gpu_keepalive_query_duration_seconds",
				Help:    "Wall-clock duration of each GPU status query",
				Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
			},
		),
		lastQuery: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "gpu_keepalive_last_query_timestamp_seconds",
				Help: "Unix time at which the last GPU status query returned",
			},
		),
	}

	reg.MustRegister(m.queries, m.duration, m.lastQuery)

	return m
}

func (m *Metrics) observe(err error, took time.Duration, at time.Time) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "failure"
	}
	m.queries.WithLabelValues(result).Inc()
	m.duration.Observe(took.Seconds())
	m.lastQuery.Set(float64(at.Unix()))
}
