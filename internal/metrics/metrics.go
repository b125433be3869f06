package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dextrack_http_requests_total",
			Help: "Total number of HTTP requests by route and status",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dextrack_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"method", "route"},
	)

	// BatchItemsTotal counts batch items by outcome (applied|failed).
	BatchItemsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dextrack_batch_items_total",
			Help: "Tracker batch items by family and outcome",
		},
		[]string{"family", "outcome"},
	)

	// IdentityCacheTotal counts identity cache lookups (hit|miss|expired|error).
	IdentityCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dextrack_identity_cache_total",
			Help: "Identity cache lookups by result",
		},
		[]string{"result"},
	)
)

func Handler() http.Handler {
	return promhttp.Handler()
}
