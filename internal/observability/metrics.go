package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce           sync.Once
	apiRequestsTotal       *prometheus.CounterVec
	apiLatencySeconds      *prometheus.HistogramVec
	apiErrorsTotal         *prometheus.CounterVec
	overviewBuildsTotal    *prometheus.CounterVec
	overviewBuildSeconds   *prometheus.HistogramVec
	overviewItemsTotal     *prometheus.CounterVec
	unreadCacheTotal       *prometheus.CounterVec
	unreadInvalidatedTotal *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used by the API and the overview services.
func RegisterMetrics() {
	registerOnce.Do(func() {
		apiRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "overview_api_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		apiLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "overview_api_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		apiErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "overview_api_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		overviewBuildsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "overview_builds_total",
			Help: "Activity overviews computed, by module type, viewer role and outcome.",
		}, []string{"module", "role", "outcome"})

		overviewBuildSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "overview_build_seconds",
			Help:    "Time spent computing one activity overview.",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5},
		}, []string{"module"})

		overviewItemsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "overview_items_total",
			Help: "Overview items returned, by module type and item key.",
		}, []string{"module", "key"})

		unreadCacheTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "forum_unread_cache_total",
			Help: "Unread post count lookups by cache tier and result.",
		}, []string{"tier", "result"})

		unreadInvalidatedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "forum_unread_invalidations_total",
			Help: "Unread post cache invalidations by scope and origin.",
		}, []string{"scope", "origin"})

		prometheus.MustRegister(
			apiRequestsTotal,
			apiLatencySeconds,
			apiErrorsTotal,
			overviewBuildsTotal,
			overviewBuildSeconds,
			overviewItemsTotal,
			unreadCacheTotal,
			unreadInvalidatedTotal,
		)
	})
}

// APIRequests exposes the counter for API requests.
func APIRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return apiRequestsTotal
}

// APILatency exposes the latency histogram for API requests.
func APILatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return apiLatencySeconds
}

// APIErrors exposes the counter for API error responses.
func APIErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return apiErrorsTotal
}

// OverviewBuilds counts computed overviews.
func OverviewBuilds() *prometheus.CounterVec {
	RegisterMetrics()
	return overviewBuildsTotal
}

// OverviewBuildLatency observes overview computation time.
func OverviewBuildLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return overviewBuildSeconds
}

// OverviewItems counts returned overview items.
func OverviewItems() *prometheus.CounterVec {
	RegisterMetrics()
	return overviewItemsTotal
}

// UnreadCache counts unread-count cache lookups.
func UnreadCache() *prometheus.CounterVec {
	RegisterMetrics()
	return unreadCacheTotal
}

// UnreadInvalidations counts unread-count cache invalidations.
func UnreadInvalidations() *prometheus.CounterVec {
	RegisterMetrics()
	return unreadInvalidatedTotal
}
