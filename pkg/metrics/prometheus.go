// Package metrics provides Prometheus metrics for the RPE tracker service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Submission metrics
	submissions      *prometheus.CounterVec
	upserts          *prometheus.CounterVec
	athletesTracked  prometheus.Gauge
	sessionsTracked  prometheus.Gauge
	workloadByState  *prometheus.GaugeVec
	reminders        *prometheus.CounterVec
	coachReports     *prometheus.CounterVec
	remindersDeduped prometheus.Gauge

	// Store metrics
	storeFetchLatency  prometheus.Histogram
	storeUpsertLatency prometheus.Histogram
	storeErrors        *prometheus.CounterVec

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Queue metrics
	queueSize              prometheus.Gauge
	queueCapacity          prometheus.Gauge
	queueUtilization       prometheus.Gauge
	queueEnqueueRate       prometheus.Counter
	queueDequeueRate       prometheus.Counter
	queueEnqueueErrors     prometheus.Counter
	queueProcessingLatency prometheus.Histogram

	// Writer metrics
	writerCount             prometheus.Gauge
	writerProcessingLatency prometheus.Histogram
	writerErrors            prometheus.Counter

	// Error metrics
	errorRateByComponent *prometheus.CounterVec
	errorRateByType      *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec
	errorLatency         *prometheus.HistogramVec

	// System metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "rpe",
		subsystem:        "tracker",
		histogramBuckets: prometheus.DefBuckets,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()
	return m
}

func (m *Manager) name(n string) string {
	if m.metricPrefix == "" {
		return n
	}
	return m.metricPrefix + "_" + n
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // one place for all metric definitions
	auto := promauto.With(m.registry)
	labels := prometheus.Labels(m.customLabels)

	counterVec := func(name, help string, lbls ...string) *prometheus.CounterVec {
		return auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help, ConstLabels: labels,
		}, lbls)
	}
	counter := func(name, help string) prometheus.Counter {
		return auto.NewCounter(prometheus.CounterOpts{
			Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help, ConstLabels: labels,
		})
	}
	gauge := func(name, help string) prometheus.Gauge {
		return auto.NewGauge(prometheus.GaugeOpts{
			Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help, ConstLabels: labels,
		})
	}
	histogram := func(name, help string, buckets []float64) prometheus.Histogram {
		return auto.NewHistogram(prometheus.HistogramOpts{
			Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help, ConstLabels: labels, Buckets: buckets,
		})
	}

	m.submissions = counterVec("submissions_total", "Rating submissions by outcome", "outcome")
	m.upserts = counterVec("upserts_total", "Applied upserts by kind (inserted, updated)", "kind")
	m.athletesTracked = gauge("athletes_tracked", "Athletes present in the last fetched table")
	m.sessionsTracked = gauge("sessions_tracked", "Date columns present in the last fetched table")
	m.workloadByState = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name("workload_athletes"),
		Help: "Athletes per workload risk state in the last computation", ConstLabels: labels,
	}, []string{"state"})
	m.reminders = counterVec("reminders_total", "Reminder dispatches by outcome", "outcome")
	m.coachReports = counterVec("coach_reports_total", "Coach report dispatches by outcome", "outcome")
	m.remindersDeduped = gauge("reminder_dedupe_entries", "Entries held by the reminder deduper")

	m.storeFetchLatency = histogram("store_fetch_latency_milliseconds", "Store fetch latency in milliseconds", m.histogramBuckets)
	m.storeUpsertLatency = histogram("store_upsert_latency_milliseconds", "Store upsert latency in milliseconds", m.histogramBuckets)
	m.storeErrors = counterVec("store_errors_total", "Store errors by operation", "operation")

	m.httpRequests = counterVec("http_requests_total", "Total number of HTTP requests by endpoint and method",
		"endpoint", "method", "status_code")
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name("http_request_duration_milliseconds"),
		Help: "HTTP request duration in milliseconds", Buckets: m.histogramBuckets, ConstLabels: labels,
	}, []string{"endpoint", "method", "status_code"})

	m.queueSize = gauge("queue_size", "Current number of pending write jobs")
	m.queueCapacity = gauge("queue_capacity", "Maximum write queue capacity")
	m.queueUtilization = gauge("queue_utilization_ratio", "Queue utilization ratio (current size / capacity)")
	m.queueEnqueueRate = counter("queue_enqueue_total", "Total number of write jobs enqueued")
	m.queueDequeueRate = counter("queue_dequeue_total", "Total number of write jobs dequeued")
	m.queueEnqueueErrors = counter("queue_enqueue_errors_total", "Total number of rejected enqueues")
	m.queueProcessingLatency = histogram("queue_processing_latency_milliseconds", "Enqueue latency in milliseconds", m.histogramBuckets)

	m.writerCount = gauge("writer_count", "Number of store writer workers")
	m.writerProcessingLatency = histogram("writer_processing_latency_milliseconds", "Write job latency in milliseconds", m.histogramBuckets)
	m.writerErrors = counter("writer_errors_total", "Total number of failed write jobs")

	m.errorRateByComponent = counterVec("errors_by_component_total", "Total number of errors by component", "component", "error_type")
	m.errorRateByType = counterVec("errors_by_type_total", "Total number of errors by type", "error_type", "severity")
	m.errorRateByEndpoint = counterVec("errors_by_endpoint_total", "Total number of errors by endpoint", "endpoint", "method", "error_type")
	m.errorLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name("error_latency_milliseconds"),
		Help: "Latency of operations that resulted in errors", Buckets: m.histogramBuckets, ConstLabels: labels,
	}, []string{"component", "error_type"})

	m.systemMemoryUsage = gauge("system_memory_usage_bytes", "System memory usage in bytes")
	m.systemGoroutineCount = gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = histogram("system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000})
}

// Submission metrics.

// RecordSubmission counts a submission with the given outcome (accepted, invalid, rejected, failed).
func RecordSubmission(outcome string) {
	globalManager.submissions.WithLabelValues(outcome).Inc()
}

// RecordUpsert counts an applied upsert; inserted distinguishes new rows from updated cells.
func RecordUpsert(inserted bool) {
	kind := "updated"
	if inserted {
		kind = "inserted"
	}
	globalManager.upserts.WithLabelValues(kind).Inc()
}

// UpdateTableShape records the size of the last fetched table.
func UpdateTableShape(athletes, sessions int) {
	globalManager.athletesTracked.Set(float64(athletes))
	globalManager.sessionsTracked.Set(float64(sessions))
}

// UpdateWorkloadStates sets the per-state athlete counts of the last workload computation.
func UpdateWorkloadStates(counts map[string]int) {
	for state, n := range counts {
		globalManager.workloadByState.WithLabelValues(state).Set(float64(n))
	}
}

// RecordReminder counts a reminder dispatch outcome (sent, failed, skipped).
func RecordReminder(outcome string) {
	globalManager.reminders.WithLabelValues(outcome).Inc()
}

// RecordCoachReport counts a coach report dispatch outcome (sent, failed).
func RecordCoachReport(outcome string) {
	globalManager.coachReports.WithLabelValues(outcome).Inc()
}

// UpdateReminderDedupeSize sets the number of entries held by the reminder deduper.
func UpdateReminderDedupeSize(n int64) {
	globalManager.remindersDeduped.Set(float64(n))
}

// Store metrics.

// RecordStoreFetchLatency records a store fetch duration.
func RecordStoreFetchLatency(latencyMs float64) {
	globalManager.storeFetchLatency.Observe(latencyMs)
}

// RecordStoreUpsertLatency records a store upsert duration.
func RecordStoreUpsertLatency(latencyMs float64) {
	globalManager.storeUpsertLatency.Observe(latencyMs)
}

// RecordStoreError counts a store failure for an operation (fetch, upsert, decode, encode).
func RecordStoreError(operation string) {
	globalManager.storeErrors.WithLabelValues(operation).Inc()
}

// HTTP metrics.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// Queue metrics.

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateQueueUtilization sets the queue utilization ratio.
func UpdateQueueUtilization(utilization float64) {
	globalManager.queueUtilization.Set(utilization)
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueueRate.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeueRate.Inc()
}

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// RecordQueueProcessingLatency records queue processing latency.
func RecordQueueProcessingLatency(latencyMs float64) {
	globalManager.queueProcessingLatency.Observe(latencyMs)
}

// Writer metrics.

// UpdateWriterCount sets the number of writer workers.
func UpdateWriterCount(count int) {
	globalManager.writerCount.Set(float64(count))
}

// RecordWriterProcessingLatency records how long a write job took.
func RecordWriterProcessingLatency(latencyMs float64) {
	globalManager.writerProcessingLatency.Observe(latencyMs)
}

// RecordWriterError increments the writer error counter.
func RecordWriterError() {
	globalManager.writerErrors.Inc()
}

// Error metrics.

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorLatency records the latency of an operation that resulted in an error.
func RecordErrorLatency(component, errorType string, latencyMs float64) {
	globalManager.errorLatency.WithLabelValues(component, errorType).Observe(latencyMs)
}

// System metrics.

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
