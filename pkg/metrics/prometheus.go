// Package metrics provides Prometheus metrics for the duelrank rating service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector the service exposes.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	registry         prometheus.Registerer

	// Rating engine metrics
	matchesRecorded *prometheus.CounterVec // by outcome: win, draw
	ratingDelta     prometheus.Histogram
	matchErrors     prometheus.Counter

	// Matchmaking metrics
	pairRequests *prometheus.CounterVec // by mode: smart, random
	pairMisses   prometheus.Counter     // fewer than two items registered

	// Verdict pipeline metrics
	verdictsAccepted  prometheus.Counter
	verdictsDuplicate prometheus.Counter

	// Catalog metrics
	catalogSize   prometheus.Gauge
	historyLength prometheus.Gauge

	// Queue metrics
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueUtilization   prometheus.Gauge
	queueEnqueues      prometheus.Counter
	queueDequeues      prometheus.Counter
	queueEnqueueErrors prometheus.Counter

	// Worker metrics
	workerCount             prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	// Persistence metrics
	persistDuration *prometheus.HistogramVec // by op: save, load, export
	persistErrors   *prometheus.CounterVec

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpErrors          *prometheus.CounterVec

	// System metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry keeps default Go runtime collectors out of scrapes.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // singleton registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "duelrank",
		subsystem:        "rating",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.matchesRecorded = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "matches_recorded_total",
			Help:      "Total number of matches applied to the catalog, by outcome",
		},
		[]string{"outcome"},
	)

	m.ratingDelta = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "rating_delta",
		Help:      "Absolute rating movement of the primary item per match",
		Buckets:   []float64{0.5, 1, 2, 4, 8, 16, 32},
	})

	m.matchErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "match_errors_total",
		Help:      "Total number of match submissions rejected by the catalog",
	})

	m.pairRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "pair_requests_total",
			Help:      "Total number of pair requests, by matchmaking mode",
		},
		[]string{"mode"},
	)

	m.pairMisses = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "pair_misses_total",
		Help:      "Pair requests that could not be served (fewer than two items)",
	})

	m.verdictsAccepted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "verdicts_accepted_total",
		Help:      "Total number of verdicts accepted into the pipeline",
	})

	m.verdictsDuplicate = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "verdicts_duplicate_total",
		Help:      "Total number of duplicate verdict submissions detected",
	})

	m.catalogSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "catalog_size",
		Help:      "Current number of rated items in the catalog",
	})

	m.historyLength = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "history_length",
		Help:      "Current number of retained match log entries",
	})

	m.queueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_size",
		Help:      "Current size of the verdict queue",
	})

	m.queueCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_capacity",
		Help:      "Configured capacity of the verdict queue",
	})

	m.queueUtilization = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_utilization",
		Help:      "Verdict queue utilization ratio (0-1)",
	})

	m.queueEnqueues = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_enqueues_total",
		Help:      "Total number of verdicts enqueued",
	})

	m.queueDequeues = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_dequeues_total",
		Help:      "Total number of verdicts dequeued by workers",
	})

	m.queueEnqueueErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_enqueue_errors_total",
		Help:      "Total number of failed enqueue attempts (backpressure, closed)",
	})

	m.workerCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_count",
		Help:      "Number of verdict workers",
	})

	m.workerProcessingLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_processing_latency_milliseconds",
		Help:      "Time taken to apply one verdict to the catalog",
		Buckets:   m.histogramBuckets,
	})

	m.workerErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_errors_total",
		Help:      "Total number of verdicts that failed to apply",
	})

	m.persistDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "persist_duration_milliseconds",
			Help:      "Duration of persistence operations, by op (save, load, export)",
			Buckets:   m.histogramBuckets,
		},
		[]string{"op"},
	)

	m.persistErrors = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "persist_errors_total",
			Help:      "Total number of failed persistence operations, by op",
		},
		[]string{"op"},
	)

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by endpoint, method and status",
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_request_duration_milliseconds",
			Help:      "HTTP request duration in milliseconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpErrors = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_errors_total",
			Help:      "Total number of HTTP error responses by endpoint and class",
		},
		[]string{"endpoint", "method", "error_type"},
	)

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_memory_bytes",
		Help:      "Current allocated heap bytes",
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_goroutines",
		Help:      "Current number of goroutines",
	})
}

// Rating engine helpers.

// RecordMatchRecorded counts an applied match by outcome ("win" or "draw").
func RecordMatchRecorded(outcome string) {
	globalManager.matchesRecorded.WithLabelValues(outcome).Inc()
}

// RecordRatingDelta observes the absolute rating movement of item A.
func RecordRatingDelta(delta float64) {
	if delta < 0 {
		delta = -delta
	}
	globalManager.ratingDelta.Observe(delta)
}

// RecordMatchError counts a rejected match submission.
func RecordMatchError() {
	globalManager.matchErrors.Inc()
}

// Matchmaking helpers.

// RecordPairRequest counts a pair request by mode.
func RecordPairRequest(mode string) {
	globalManager.pairRequests.WithLabelValues(mode).Inc()
}

// RecordPairMiss counts a pair request that found fewer than two items.
func RecordPairMiss() {
	globalManager.pairMisses.Inc()
}

// Verdict pipeline helpers.

// RecordVerdictAccepted counts a verdict accepted into the pipeline.
func RecordVerdictAccepted() {
	globalManager.verdictsAccepted.Inc()
}

// RecordVerdictDuplicate counts a duplicate verdict submission.
func RecordVerdictDuplicate() {
	globalManager.verdictsDuplicate.Inc()
}

// Catalog helpers.

// UpdateCatalogSize sets the current item count.
func UpdateCatalogSize(n int) {
	globalManager.catalogSize.Set(float64(n))
}

// UpdateHistoryLength sets the current match log length.
func UpdateHistoryLength(n int) {
	globalManager.historyLength.Set(float64(n))
}

// Queue helpers.

// UpdateQueueSize sets the current queue depth.
func UpdateQueueSize(n int) {
	globalManager.queueSize.Set(float64(n))
}

// UpdateQueueCapacity sets the configured queue capacity.
func UpdateQueueCapacity(n int) {
	globalManager.queueCapacity.Set(float64(n))
}

// UpdateQueueUtilization sets the queue utilization ratio.
func UpdateQueueUtilization(u float64) {
	globalManager.queueUtilization.Set(u)
}

// RecordQueueEnqueue counts a successful enqueue.
func RecordQueueEnqueue() {
	globalManager.queueEnqueues.Inc()
}

// RecordQueueDequeue counts a successful dequeue.
func RecordQueueDequeue() {
	globalManager.queueDequeues.Inc()
}

// RecordQueueEnqueueError counts a failed enqueue.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// Worker helpers.

// UpdateWorkerCount sets the number of verdict workers.
func UpdateWorkerCount(n int) {
	globalManager.workerCount.Set(float64(n))
}

// RecordWorkerProcessingLatency observes one verdict's apply latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError counts a verdict that failed to apply.
func RecordWorkerError() {
	globalManager.workerErrors.Inc()
}

// Persistence helpers.

// RecordPersistDuration observes a persistence operation duration.
func RecordPersistDuration(op string, latencyMs float64) {
	globalManager.persistDuration.WithLabelValues(op).Observe(latencyMs)
}

// RecordPersistError counts a failed persistence operation.
func RecordPersistError(op string) {
	globalManager.persistErrors.WithLabelValues(op).Inc()
}

// HTTP helpers.

// RecordHTTPRequest counts an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration observes an HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordHTTPError counts an HTTP error response by class.
func RecordHTTPError(endpoint, method, errorType string) {
	globalManager.httpErrors.WithLabelValues(endpoint, method, errorType).Inc()
}

// System helpers.

// UpdateSystemMemoryUsage sets the allocated heap bytes gauge.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the goroutine count gauge.
func UpdateSystemGoroutineCount(n int) {
	globalManager.systemGoroutineCount.Set(float64(n))
}

// GetRegistry returns the custom registry used for scraping.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
