// Package metrics provides Prometheus metrics for the heatcheck service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	hsiBuckets       []float64
	enabled          bool
	customLabels     map[string]string
	registry         prometheus.Registerer

	// Assessment metrics
	assessments        *prometheus.CounterVec
	assessmentLatency  prometheus.Histogram
	classifications    *prometheus.CounterVec
	hsi                *prometheus.HistogramVec
	sweatRate          *prometheus.HistogramVec
	degenerateResults  *prometheus.CounterVec
	invalidInputs      *prometheus.CounterVec
	archetypeTableSize prometheus.Gauge

	// Persistence metrics
	persistEnqueued   prometheus.Counter
	persistRejected   *prometheus.CounterVec
	persistDuplicates prometheus.Counter
	persistWritten    prometheus.Counter
	persistFailures   prometheus.Counter
	persistLatency    prometheus.Histogram
	storedRecords     prometheus.Gauge

	// Queue metrics
	queueSize        prometheus.Gauge
	queueCapacity    prometheus.Gauge
	queueUtilization prometheus.Gauge

	// Worker metrics
	workerActiveCount       prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Error breakdowns
	errorsByComponent *prometheus.CounterVec
	errorsByType      *prometheus.CounterVec
	errorsByEndpoint  *prometheus.CounterVec

	// System metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// customRegistry keeps the default Go collectors out of /healthz.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "heatcheck",
		subsystem:        "assessment",
		histogramBuckets: prometheus.DefBuckets,
		hsiBuckets:       []float64{50, 100, 135, 150, 180, 200, 225, 250, 300, 400},
		enabled:          true,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.customLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.customLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.customLabels,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.customLabels, Buckets: buckets,
	})
}

func (m *Manager) histogramVec(name, help string, buckets []float64, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.customLabels, Buckets: buckets,
	}, labels)
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	m.assessments = m.counterVec("requests_total",
		"Total number of assessment requests computed, by threshold set", "thresholds")
	m.assessmentLatency = m.histogram("latency_milliseconds",
		"Engine latency per assessment request in milliseconds", m.histogramBuckets)
	m.classifications = m.counterVec("classifications_total",
		"Assessment labels issued per archetype", "player", "assessment")
	m.hsi = m.histogramVec("hsi",
		"Distribution of rounded Heat Strain Index per archetype", m.hsiBuckets, "player")
	m.sweatRate = m.histogramVec("sweat_rate_liters_per_hour",
		"Distribution of predicted sweat rate per archetype", []float64{0.5, 1, 1.5, 2, 2.5, 3, 4}, "player")
	m.degenerateResults = m.counterVec("degenerate_results_total",
		"Results flagged as computationally degenerate per archetype", "player")
	m.invalidInputs = m.counterVec("invalid_inputs_total",
		"Rejected input fields at the request boundary", "field")
	m.archetypeTableSize = m.gauge("archetypes",
		"Number of archetypes in the active table")

	m.persistEnqueued = m.counter("persist_enqueued_total",
		"Result sets handed to the persistence queue")
	m.persistRejected = m.counterVec("persist_rejected_total",
		"Result sets the persistence queue refused", "reason")
	m.persistDuplicates = m.counter("persist_duplicates_total",
		"Result sets skipped because their submission id was already persisted")
	m.persistWritten = m.counter("persist_written_total",
		"Result sets written to the store")
	m.persistFailures = m.counter("persist_failures_total",
		"Result sets the store failed to write")
	m.persistLatency = m.histogram("persist_latency_milliseconds",
		"Store write latency in milliseconds", m.histogramBuckets)
	m.storedRecords = m.gauge("stored_records",
		"Number of result rows currently held by the store")

	m.queueSize = m.gauge("queue_size", "Current size of the persistence queue")
	m.queueCapacity = m.gauge("queue_capacity", "Maximum persistence queue capacity")
	m.queueUtilization = m.gauge("queue_utilization_ratio",
		"Persistence queue utilization ratio (current size / capacity)")

	m.workerActiveCount = m.gauge("worker_active_count", "Number of persistence workers")
	m.workerProcessingLatency = m.histogram("worker_processing_latency_milliseconds",
		"Persistence worker latency per batch in milliseconds", m.histogramBuckets)
	m.workerErrors = m.counter("worker_errors_total", "Total number of persistence worker errors")

	m.httpRequests = m.counterVec("http_requests_total",
		"Total number of HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds",
		"HTTP request duration in milliseconds", m.histogramBuckets, "endpoint", "method", "status_code")

	m.errorsByComponent = m.counterVec("errors_by_component_total",
		"Total number of errors by component", "component", "error_type")
	m.errorsByType = m.counterVec("errors_by_type_total",
		"Total number of errors by type", "error_type", "severity")
	m.errorsByEndpoint = m.counterVec("errors_by_endpoint_total",
		"Total number of errors by endpoint", "endpoint", "method", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "Current heap allocation in bytes")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Current number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_milliseconds",
		"Average GC pause time in milliseconds", m.histogramBuckets)
}

func active() *Manager {
	if globalManager == nil || !globalManager.enabled {
		return nil
	}
	return globalManager
}

// Assessment metrics.

// RecordAssessment counts one engine invocation and its latency.
func RecordAssessment(thresholds string, latencyMs float64) {
	if m := active(); m != nil {
		m.assessments.WithLabelValues(thresholds).Inc()
		m.assessmentLatency.Observe(latencyMs)
	}
}

// RecordClassification counts one label issued for an archetype.
func RecordClassification(player, assessment string) {
	if m := active(); m != nil {
		m.classifications.WithLabelValues(player, assessment).Inc()
	}
}

// ObserveHSI records a rounded HSI for an archetype.
func ObserveHSI(player string, hsi float64) {
	if m := active(); m != nil {
		m.hsi.WithLabelValues(player).Observe(hsi)
	}
}

// ObserveSweatRate records a sweat rate in L/h for an archetype.
func ObserveSweatRate(player string, litersPerHour float64) {
	if m := active(); m != nil {
		m.sweatRate.WithLabelValues(player).Observe(litersPerHour)
	}
}

// RecordDegenerate counts a degenerate result for an archetype.
func RecordDegenerate(player string) {
	if m := active(); m != nil {
		m.degenerateResults.WithLabelValues(player).Inc()
	}
}

// RecordInvalidInput counts a rejected request field.
func RecordInvalidInput(field string) {
	if m := active(); m != nil {
		m.invalidInputs.WithLabelValues(field).Inc()
	}
}

// UpdateArchetypeCount sets the active archetype table size.
func UpdateArchetypeCount(n int) {
	if m := active(); m != nil {
		m.archetypeTableSize.Set(float64(n))
	}
}

// Persistence metrics.

func RecordPersistEnqueued() {
	if m := active(); m != nil {
		m.persistEnqueued.Inc()
	}
}

func RecordPersistRejected(reason string) {
	if m := active(); m != nil {
		m.persistRejected.WithLabelValues(reason).Inc()
	}
}

func RecordPersistDuplicate() {
	if m := active(); m != nil {
		m.persistDuplicates.Inc()
	}
}

func RecordPersistWritten() {
	if m := active(); m != nil {
		m.persistWritten.Inc()
	}
}

func RecordPersistFailure() {
	if m := active(); m != nil {
		m.persistFailures.Inc()
	}
}

func RecordPersistLatency(latencyMs float64) {
	if m := active(); m != nil {
		m.persistLatency.Observe(latencyMs)
	}
}

func UpdateStoredRecords(count int) {
	if m := active(); m != nil {
		m.storedRecords.Set(float64(count))
	}
}

// Queue metrics.

func UpdateQueueSize(size int) {
	if m := active(); m != nil {
		m.queueSize.Set(float64(size))
	}
}

func UpdateQueueCapacity(capacity int) {
	if m := active(); m != nil {
		m.queueCapacity.Set(float64(capacity))
	}
}

func UpdateQueueUtilization(utilization float64) {
	if m := active(); m != nil {
		m.queueUtilization.Set(utilization)
	}
}

// Worker metrics.

func UpdateWorkerActiveCount(count int) {
	if m := active(); m != nil {
		m.workerActiveCount.Set(float64(count))
	}
}

func RecordWorkerProcessingLatency(latencyMs float64) {
	if m := active(); m != nil {
		m.workerProcessingLatency.Observe(latencyMs)
	}
}

func RecordWorkerError() {
	if m := active(); m != nil {
		m.workerErrors.Inc()
	}
}

// HTTP metrics.

func RecordHTTPRequest(endpoint, method, statusCode string) {
	if m := active(); m != nil {
		m.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	}
}

func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	if m := active(); m != nil {
		m.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
	}
}

// Error metrics.

func RecordErrorByComponent(component, errorType string) {
	if m := active(); m != nil {
		m.errorsByComponent.WithLabelValues(component, errorType).Inc()
	}
}

func RecordErrorByType(errorType, severity string) {
	if m := active(); m != nil {
		m.errorsByType.WithLabelValues(errorType, severity).Inc()
	}
}

func RecordErrorByEndpoint(endpoint, method, errorType string) {
	if m := active(); m != nil {
		m.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
	}
}

// System metrics.

func UpdateSystemMemoryUsage(bytes uint64) {
	if m := active(); m != nil {
		m.systemMemoryUsage.Set(float64(bytes))
	}
}

func UpdateSystemGoroutineCount(count int) {
	if m := active(); m != nil {
		m.systemGoroutineCount.Set(float64(count))
	}
}

func RecordSystemGCPauseTime(pauseMs float64) {
	if m := active(); m != nil {
		m.systemGCPauseTime.Observe(pauseMs)
	}
}

// GetRegistry returns the registry served at /healthz.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
