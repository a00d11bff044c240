package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Upstream gateway metrics
	UpstreamRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketgw_upstream_requests_total",
			Help: "Total number of upstream API requests",
		},
		[]string{"path", "status"}, // status: 2xx/404/5xx/error
	)

	UpstreamRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "marketgw_upstream_request_duration_seconds",
			Help:    "Duration of upstream API requests",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"path"},
	)

	// Inbound API metrics
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketgw_http_requests_total",
			Help: "Total number of inbound HTTP requests",
		},
		[]string{"route", "code"},
	)

	// Normalization metrics
	PayloadsNormalized = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketgw_payloads_normalized_total",
			Help: "Total number of upstream payloads normalized, by detected shape",
		},
		[]string{"shape"}, // events/results/markets/unknown
	)

	OddsDegraded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "marketgw_odds_degraded_total",
			Help: "Total number of markets whose outcome/price pair was unusable",
		},
	)
)
