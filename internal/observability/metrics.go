package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// Session lifecycle metrics
	SessionsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sessions_created_total",
			Help: "Total number of sessions created",
		},
	)

	SessionsExpired = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sessions_expired_total",
			Help: "Total number of session reads that found an expired row",
		},
	)

	SessionBootstraps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "session_bootstraps_total",
			Help: "Total number of session bootstrap resolutions by outcome",
		},
		[]string{"outcome"}, // reused, created, repaired
	)

	// Session store metrics
	StoreOpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "session_store_op_duration_seconds",
			Help:    "Session store operation latency in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5},
		},
		[]string{"operation", "table"},
	)

	// OIDC metrics
	OIDCDiscoveryDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "oidc_discovery_duration_seconds",
			Help:    "CIS2 OIDC discovery latency in seconds",
			Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
	)

	AuthorizationURLsBuilt = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "authorization_urls_built_total",
			Help: "Total number of CIS2 authorization URLs built",
		},
	)
)
