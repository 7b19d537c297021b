// Package metrics holds the Prometheus collectors for the client core.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	CacheLookupsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "marquee",
		Name:      "cache_lookups_total",
		Help:      "Request cache lookups by channel and result (hit, miss, expired).",
	}, []string{"channel", "result"})

	RequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "marquee",
		Name:      "requests_total",
		Help:      "Coordinated requests by channel and outcome (applied, empty, superseded, cancelled, failed).",
	}, []string{"channel", "outcome"})

	RequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "marquee",
		Name:      "request_duration_seconds",
		Help:      "Backend request duration in seconds.",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 20},
	}, []string{"channel"})

	DebounceFiresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "marquee",
		Name:      "debounce_fires_total",
		Help:      "Debounced actions that reached their deadline.",
	}, []string{"pipeline"})

	TMDBRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "marquee",
		Name:      "tmdb_requests_total",
		Help:      "Requests to the metadata service by endpoint and status.",
	}, []string{"endpoint", "status"})
)

// Register adds all collectors to reg.
func Register(reg prometheus.Registerer) {
	reg.MustRegister(
		CacheLookupsTotal,
		RequestsTotal,
		RequestDuration,
		DebounceFiresTotal,
		TMDBRequestsTotal,
	)
}
