package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Resolution metrics
var (
	// ResolutionsTotal tracks permission resolutions by outcome:
	// memory_hit, redis_hit, computed, unavailable.
	ResolutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "access_resolutions_total",
			Help: "Total number of permission resolutions by outcome",
		},
		[]string{"outcome"},
	)

	// ResolutionDuration tracks end-to-end resolution duration.
	ResolutionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "access_resolution_duration_seconds",
			Help:    "Permission resolution duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
	)

	// LayerFetchDuration tracks per-layer fetch duration during a
	// cache-miss resolution.
	LayerFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "access_layer_fetch_duration_seconds",
			Help:    "Resolution layer fetch duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"layer"},
	)
)

// Cache metrics
var (
	// CacheHitsTotal tracks cache hits by cache tier (memory, redis).
	CacheHitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "access_cache_hits_total",
			Help: "Total number of cache hits by tier",
		},
		[]string{"cache"},
	)

	// CacheMissesTotal tracks cache misses by cache tier.
	CacheMissesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "access_cache_misses_total",
			Help: "Total number of cache misses by tier",
		},
		[]string{"cache"},
	)

	// InvalidationsTotal tracks cache invalidations by scope:
	// user, dealership, all.
	InvalidationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "access_cache_invalidations_total",
			Help: "Total number of cache invalidations by scope",
		},
		[]string{"scope"},
	)
)

// HTTP metrics
var (
	// HTTPRequestsTotal tracks HTTP requests by method, path, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "access_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration tracks HTTP request duration.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "access_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "path"},
	)
)
