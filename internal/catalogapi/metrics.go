package catalogapi

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics for outbound search API calls. A nil *Metrics records nothing.
type Metrics struct {
	Requests       *prometheus.CounterVec
	Latency        prometheus.Histogram
	RecordsDecoded prometheus.Counter
	RecordsSkipped prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalog_search_requests_total",
				Help: "Search API calls by outcome.",
			},
			[]string{"outcome"},
		),
		Latency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "catalog_search_duration_seconds",
				Help:    "Search API call latency.",
				Buckets: prometheus.DefBuckets,
			},
		),
		RecordsDecoded: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "catalog_search_records_total",
				Help: "Product records decoded from search responses.",
			},
		),
		RecordsSkipped: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "catalog_search_records_skipped_total",
				Help: "Malformed product records dropped from search responses.",
			},
		),
	}

	reg.MustRegister(m.Requests, m.Latency, m.RecordsDecoded, m.RecordsSkipped)
	return m
}

func (m *Metrics) observe(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(outcome).Inc()
	m.Latency.Observe(d.Seconds())
}

func (m *Metrics) records(decoded, skipped int) {
	if m == nil {
		return
	}
	m.RecordsDecoded.Add(float64(decoded))
	m.RecordsSkipped.Add(float64(skipped))
}
