package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Pipeline metrics
var (
	PreviewsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "raw_preview_pipeline_runs_total",
			Help: "Total number of pipeline runs",
		},
		[]string{"path", "status"}, // path: raw|jpeg|raster, status: ok|<error kind>
	)

	PreviewDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "raw_preview_pipeline_duration_seconds",
			Help:    "Pipeline run duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"path"},
	)

	PreviewOutputBytes = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "raw_preview_output_bytes",
			Help:    "Size of produced JPEG previews in bytes",
			Buckets: prometheus.ExponentialBuckets(4096, 4, 8),
		},
		[]string{"path"},
	)
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "raw_preview_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "raw_preview_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "raw_preview_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Cache metrics
var (
	CacheHitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "raw_preview_cache_hits_total",
			Help: "Total number of preview cache hits",
		},
	)

	CacheMissesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "raw_preview_cache_misses_total",
			Help: "Total number of preview cache misses",
		},
	)

	CacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "raw_preview_cache_entries",
			Help: "Number of entries currently in the preview cache",
		},
	)
)

// Filesystem retry metrics. Labels: operation is stat|read, volume is the
// mount label resolved from the configured data directories.
var (
	FilesystemStaleErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "raw_preview_fs_stale_errors_total",
			Help: "Total number of NFS stale file handle errors encountered",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "raw_preview_fs_retry_attempts_total",
			Help: "Total number of filesystem operation retries",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetrySuccess = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "raw_preview_fs_retry_success_total",
			Help: "Total number of filesystem operations that succeeded after retry",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "raw_preview_fs_retry_failures_total",
			Help: "Total number of filesystem operations that failed after all retries",
		},
		[]string{"operation", "volume"},
	)
)
