// Package metrics provides Prometheus metrics for the Lair standings service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// marksBuckets covers the full 0..25 range of the current rubric.
var marksBuckets = []float64{0, 3, 6, 9, 12, 15, 18, 21, 25} //nolint:gochecknoglobals // static bucket layout

// Manager manages all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Scoring
	runsScored   *prometheus.CounterVec
	runsDeleted  prometheus.Counter
	runMarks     *prometheus.HistogramVec
	runsRejected *prometheus.CounterVec

	// Standings
	standingsComputed *prometheus.CounterVec
	standingsLatency  prometheus.Histogram

	// Voting
	votesCast      *prometheus.CounterVec
	sessionsOpened *prometheus.CounterVec
	sessionsClosed prometheus.Counter
	openSessions   prometheus.Gauge

	// Series
	seriesResolved *prometheus.CounterVec

	// Audit
	auditQueueSize   prometheus.Gauge
	auditChecked     prometheus.Counter
	auditMismatches  *prometheus.CounterVec
	auditWorkerCount prometheus.Gauge

	// Store
	storedRuns prometheus.Gauge

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorsByComponent *prometheus.CounterVec

	// System
	memoryUsage    prometheus.Gauge
	goroutineCount prometheus.Gauge
	gcPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "lair",
		subsystem:        "standings",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() { //nolint:funlen // flat list of metric definitions
	auto := promauto.With(m.registry)

	m.runsScored = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "runs_scored_total",
		Help:      "Runs scored and stored, by rubric variant",
	}, []string{"variant"})

	m.runsDeleted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "runs_deleted_total",
		Help:      "Runs deleted by an admin",
	})

	m.runMarks = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "run_marks",
		Help:      "Distribution of marks awarded per run",
		Buckets:   marksBuckets,
	}, []string{"variant"})

	m.runsRejected = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "runs_rejected_total",
		Help:      "Run submissions rejected, by reason",
	}, []string{"reason"})

	m.standingsComputed = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "standings_computed_total",
		Help:      "Standings computations, by currency",
	}, []string{"currency"})

	m.standingsLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "standings_latency_milliseconds",
		Help:      "Time to load and rank a round",
		Buckets:   m.histogramBuckets,
	})

	m.votesCast = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "votes_cast_total",
		Help:      "Votes cast, by session type",
	}, []string{"session_type"})

	m.sessionsOpened = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "sessions_opened_total",
		Help:      "Vote sessions opened, by type",
	}, []string{"session_type"})

	m.sessionsClosed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "sessions_closed_total",
		Help:      "Vote sessions closed",
	})

	m.openSessions = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "open_sessions",
		Help:      "Vote sessions currently accepting votes",
	})

	m.seriesResolved = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "series_resolved_total",
		Help:      "Best-of-three series resolved, by outcome",
	}, []string{"outcome"})

	m.auditQueueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "audit_queue_size",
		Help:      "Runs waiting to be re-scored",
	})

	m.auditChecked = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "audit_checked_total",
		Help:      "Runs re-scored by the audit workers",
	})

	m.auditMismatches = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "audit_mismatches_total",
		Help:      "Stored marks that differ from a re-score, by variant",
	}, []string{"variant"})

	m.auditWorkerCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "audit_workers",
		Help:      "Number of audit workers",
	})

	m.storedRuns = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "stored_runs",
		Help:      "Runs currently held by the record store",
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_requests_total",
		Help:      "HTTP requests by endpoint, method and status",
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_milliseconds",
		Help:      "HTTP request duration in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.errorsByComponent = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "errors_total",
		Help:      "Errors by component and kind",
	}, []string{"component", "kind"})

	m.memoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "system",
		Name:      "memory_usage_bytes",
		Help:      "Heap bytes allocated",
	})

	m.goroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "system",
		Name:      "goroutines",
		Help:      "Number of goroutines",
	})

	m.gcPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "system",
		Name:      "gc_pause_milliseconds",
		Help:      "Average GC pause time in milliseconds",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10},
	})
}

// GetRegistry returns the registry backing the global manager.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// RecordRunScored records a stored run and its marks.
func RecordRunScored(variant string, marks int) {
	globalManager.runsScored.WithLabelValues(variant).Inc()
	globalManager.runMarks.WithLabelValues(variant).Observe(float64(marks))
}

// RecordRunDeleted records an admin deletion.
func RecordRunDeleted() {
	globalManager.runsDeleted.Inc()
}

// RecordRunRejected records a refused submission.
func RecordRunRejected(reason string) {
	globalManager.runsRejected.WithLabelValues(reason).Inc()
}

// RecordStandingsComputed records one standings computation.
func RecordStandingsComputed(currency string, latencyMs float64) {
	globalManager.standingsComputed.WithLabelValues(currency).Inc()
	globalManager.standingsLatency.Observe(latencyMs)
}

// RecordVoteCast records a vote.
func RecordVoteCast(sessionType string) {
	globalManager.votesCast.WithLabelValues(sessionType).Inc()
}

// RecordSessionOpened records a new vote session.
func RecordSessionOpened(sessionType string) {
	globalManager.sessionsOpened.WithLabelValues(sessionType).Inc()
	globalManager.openSessions.Inc()
}

// RecordSessionClosed records a closed vote session.
func RecordSessionClosed() {
	globalManager.sessionsClosed.Inc()
	globalManager.openSessions.Dec()
}

// RecordSeriesResolved records a series resolution.
func RecordSeriesResolved(outcome string) {
	globalManager.seriesResolved.WithLabelValues(outcome).Inc()
}

// UpdateAuditQueueSize sets the audit backlog gauge.
func UpdateAuditQueueSize(size int) {
	globalManager.auditQueueSize.Set(float64(size))
}

// UpdateAuditWorkerCount sets the audit worker gauge.
func UpdateAuditWorkerCount(count int) {
	globalManager.auditWorkerCount.Set(float64(count))
}

// RecordAuditChecked records one re-scored run.
func RecordAuditChecked() {
	globalManager.auditChecked.Inc()
}

// RecordAuditMismatch records a run whose stored marks disagree with a re-score.
func RecordAuditMismatch(variant string) {
	globalManager.auditMismatches.WithLabelValues(variant).Inc()
}

// UpdateStoredRuns sets the stored runs gauge.
func UpdateStoredRuns(count int) {
	globalManager.storedRuns.Set(float64(count))
}

// RecordHTTPRequest records an HTTP request and its duration.
func RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordErrorByComponent records an error for a component.
func RecordErrorByComponent(component, kind string) {
	globalManager.errorsByComponent.WithLabelValues(component, kind).Inc()
}

// UpdateSystemMemoryUsage sets the allocated heap size.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.memoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the goroutine count.
func UpdateSystemGoroutineCount(count int) {
	globalManager.goroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records an average GC pause.
func RecordSystemGCPauseTime(ms float64) {
	globalManager.gcPauseTime.Observe(ms)
}
