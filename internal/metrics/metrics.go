// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	// Registry is the dedicated Prometheus registry for the API
	Registry = prometheus.NewRegistry()
	// HTTPRequests counts requests by method, route, and status
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests."},
		[]string{"method", "route", "status"},
	)
	// HTTPDuration records request durations in seconds
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "http_request_duration_seconds", Help: "HTTP request duration in seconds.", Buckets: prometheus.DefBuckets},
		[]string{"method", "route", "status"},
	)
	// AuthFailures counts rejected bearer tokens by error code
	AuthFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "auth_failures_total", Help: "Rejected authorization attempts by code."},
		[]string{"code"},
	)
	// DrinkMutations counts create/update/delete outcomes
	DrinkMutations = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "drink_mutations_total", Help: "Drink mutations by operation and outcome."},
		[]string{"operation", "outcome"},
	)
	// JWKSRefreshes counts signing key set fetches by result
	JWKSRefreshes = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "jwks_refreshes_total", Help: "Signing key set fetches by result."},
		[]string{"result"},
	)
)

var regOnce sync.Once

// RegisterDefault registers the collectors on Registry. Safe to call more than once.
func RegisterDefault() {
	regOnce.Do(func() {
		Registry.MustRegister(HTTPRequests)
		Registry.MustRegister(HTTPDuration)
		Registry.MustRegister(AuthFailures)
		Registry.MustRegister(DrinkMutations)
		Registry.MustRegister(JWKSRefreshes)
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}
