package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Cache metrics
var (
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_pipeline_cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"tier"}, // "originals" or "thumbnails"
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_pipeline_cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"tier"},
	)

	CacheEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_pipeline_cache_evictions_total",
			Help: "Total number of entries evicted to stay within budget",
		},
		[]string{"tier"},
	)

	CacheResidentBytes = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "photo_pipeline_cache_resident_bytes",
			Help: "Current resident byte cost of cached pixel buffers",
		},
		[]string{"tier"},
	)

	CacheResidentEntries = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "photo_pipeline_cache_resident_entries",
			Help: "Current number of cached pixel buffers",
		},
		[]string{"tier"},
	)

	CacheClears = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photo_pipeline_cache_clears_total",
			Help: "Total number of full cache clears (explicit or memory pressure)",
		},
	)
)

// Resample metrics
var (
	ResampleOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_pipeline_resample_operations_total",
			Help: "Total number of resample operations by path and outcome",
		},
		[]string{"path", "outcome"}, // path: "gpu"/"cpu", outcome: "success"/"fallback"/"error"
	)

	GPUProcessingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "photo_pipeline_gpu_processing_duration_seconds",
			Help:    "GPU resample duration in seconds, including readback",
			Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		},
	)
)

// Loader metrics
var (
	LoadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_pipeline_loads_total",
			Help: "Total number of seamless load requests by outcome",
		},
		[]string{"outcome"}, // "cache_hit", "loaded", "failed", "cancelled"
	)

	DecodeFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photo_pipeline_decode_failures_total",
			Help: "Total number of image decode failures",
		},
	)

	LoadDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "photo_pipeline_load_duration_seconds",
			Help:    "Duration of a full original load (read, decode, cache)",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
	)
)

// Preload metrics
var (
	PreloadScheduled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_pipeline_preload_scheduled_total",
			Help: "Total number of preload tasks scheduled by priority",
		},
		[]string{"priority"}, // "high" or "background"
	)

	PreloadInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_pipeline_preload_in_flight",
			Help: "Number of preload tasks currently in flight",
		},
	)
)

// Memory metrics
var (
	MemoryPressureEvents = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photo_pipeline_memory_pressure_events_total",
			Help: "Total number of memory pressure signals handled",
		},
	)

	MemoryUsageRatio = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_pipeline_memory_usage_ratio",
			Help: "Current heap usage as a fraction of the configured limit",
		},
	)
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_pipeline_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "photo_pipeline_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_pipeline_http_requests_in_flight",
			Help: "Number of HTTP requests currently being served",
		},
	)
)

// Application info metric
var (
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "photo_pipeline_app_info",
			Help: "Application information",
		},
		[]string{"version", "go_version"},
	)
)

// SetAppInfo sets the application info metric.
func SetAppInfo(version, goVersion string) {
	AppInfo.WithLabelValues(version, goVersion).Set(1)
}
