package search

import (
	"github.com/prometheus/client_golang/prometheus"

	"PriceScout/internal/product"
)

type Metrics struct {
	Searches *prometheus.CounterVec
	Stale    prometheus.Counter
	Sorts    *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Searches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "search_requests_total",
				Help: "Searches settled by the controller, by outcome.",
			},
			[]string{"outcome"},
		),
		Stale: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "search_stale_responses_total",
				Help: "Responses dropped because a newer search had started.",
			},
		),
		Sorts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "search_sorts_total",
				Help: "Sort changes applied to a result set, by key.",
			},
			[]string{"key"},
		),
	}

	reg.MustRegister(m.Searches, m.Stale, m.Sorts)
	return m
}

func (m *Metrics) search(outcome string) {
	if m == nil {
		return
	}
	m.Searches.WithLabelValues(outcome).Inc()
}

func (m *Metrics) stale() {
	if m == nil {
		return
	}
	m.Stale.Inc()
}

func (m *Metrics) sorted(key product.SortKey) {
	if m == nil {
		return
	}
	m.Sorts.WithLabelValues(key.String()).Inc()
}
