package monitoring

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics. Each instance carries its own
// registry, so tests can build servers freely without duplicate
// registration.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Router tool metrics
	ToolCalls    *prometheus.CounterVec
	ToolDuration *prometheus.HistogramVec
	ToolErrors   *prometheus.CounterVec

	// Interception metrics
	ElementsWired         prometheus.Counter
	InterceptionsTotal    prometheus.Counter
	InterceptionsReplayed prometheus.Counter

	// Overlay metrics
	OverlayOutcomes   *prometheus.CounterVec
	OverspendVerdicts prometheus.Counter

	// Queue metrics
	PurchasesRecorded prometheus.Counter
	SyncAttempts      prometheus.Counter
	SyncSynced        prometheus.Counter
	SyncFailed        prometheus.Counter
	QueuePending      prometheus.Gauge

	// WebSocket metrics
	WSConnections prometheus.Gauge
	WSMessages    *prometheus.CounterVec

	// System metrics
	Uptime    prometheus.Gauge
	startTime time.Time

	// Snapshot for the JSON summary endpoint
	snapshot Snapshot

	mu sync.RWMutex
}

// Snapshot holds current values for the JSON summary endpoint
type Snapshot struct {
	TotalRequests  int64   `json:"total_requests"`
	TotalErrors    int64   `json:"total_errors"`
	Interceptions  int64   `json:"interceptions"`
	Confirmed      int64   `json:"confirmed"`
	Abandoned      int64   `json:"abandoned"`
	TotalDuration  float64 `json:"-"`
	RequestCount   int64   `json:"-"`
	UptimeSeconds  float64 `json:"uptime_seconds"`
	AvgDurationSec float64 `json:"avg_duration_seconds"`
}

// NewMetrics creates a new metrics collector
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	m := &Metrics{
		registry:  registry,
		startTime: time.Now(),

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spendguard_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "spendguard_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),

		ToolCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spendguard_tool_calls_total",
				Help: "Total number of router tool calls",
			},
			[]string{"service", "tool", "status"},
		),
		ToolDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "spendguard_tool_duration_seconds",
				Help:    "Router tool call duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"service", "tool"},
		),
		ToolErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spendguard_tool_errors_total",
				Help: "Total number of router tool errors",
			},
			[]string{"service", "tool"},
		),

		ElementsWired: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "spendguard_elements_wired_total",
				Help: "Total number of checkout elements wired for interception",
			},
		),
		InterceptionsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "spendguard_interceptions_total",
				Help: "Total number of suppressed checkout interactions",
			},
		),
		InterceptionsReplayed: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "spendguard_interceptions_replayed_total",
				Help: "Total number of pass-through replays after confirmation",
			},
		),

		OverlayOutcomes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spendguard_overlay_outcomes_total",
				Help: "Overlay decisions by outcome",
			},
			[]string{"outcome"},
		),
		OverspendVerdicts: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "spendguard_overspend_verdicts_total",
				Help: "Total number of overspending verdicts shown",
			},
		),

		PurchasesRecorded: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "spendguard_purchases_recorded_total",
				Help: "Total number of purchase events recorded",
			},
		),
		SyncAttempts: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "spendguard_sync_attempts_total",
				Help: "Total number of sync submissions attempted",
			},
		),
		SyncSynced: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "spendguard_sync_synced_total",
				Help: "Total number of events marked synced",
			},
		),
		SyncFailed: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "spendguard_sync_failed_total",
				Help: "Total number of sync submissions that failed",
			},
		),
		QueuePending: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "spendguard_queue_pending",
				Help: "Number of purchase events waiting to sync",
			},
		),

		WSConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "spendguard_ws_connections",
				Help: "Number of connected page contexts",
			},
		),
		WSMessages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spendguard_ws_messages_total",
				Help: "Total number of WebSocket messages",
			},
			[]string{"direction"},
		),

		Uptime: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "spendguard_uptime_seconds",
				Help: "Router uptime in seconds",
			},
		),
	}

	go m.updateUptime()

	return m
}

// Handler returns the exposition handler for this collector's registry
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// updateUptime continuously updates the uptime metric
func (m *Metrics) updateUptime() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for range ticker.C {
		m.Uptime.Set(time.Since(m.startTime).Seconds())
	}
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())

	m.mu.Lock()
	m.snapshot.TotalRequests++
	m.snapshot.TotalDuration += duration.Seconds()
	m.snapshot.RequestCount++
	if len(status) > 0 && (status[0] == '4' || status[0] == '5') {
		m.snapshot.TotalErrors++
	}
	m.mu.Unlock()
}

// RecordToolCall records a router tool call
func (m *Metrics) RecordToolCall(service, tool, status string, duration time.Duration) {
	m.ToolCalls.WithLabelValues(service, tool, status).Inc()
	m.ToolDuration.WithLabelValues(service, tool).Observe(duration.Seconds())
}

// RecordToolError records a router tool error
func (m *Metrics) RecordToolError(service, tool string) {
	m.ToolErrors.WithLabelValues(service, tool).Inc()
}

// RecordInterception records one suppressed checkout interaction
func (m *Metrics) RecordInterception() {
	m.InterceptionsTotal.Inc()
	m.mu.Lock()
	m.snapshot.Interceptions++
	m.mu.Unlock()
}

// RecordOverlayOutcome records how a decision window closed
func (m *Metrics) RecordOverlayOutcome(outcome string) {
	m.OverlayOutcomes.WithLabelValues(outcome).Inc()
	m.mu.Lock()
	switch outcome {
	case "confirmed":
		m.snapshot.Confirmed++
	case "abandoned":
		m.snapshot.Abandoned++
	}
	m.mu.Unlock()
}

// RecordSyncPass records one SyncPending pass
func (m *Metrics) RecordSyncPass(attempted, synced, failed int) {
	m.SyncAttempts.Add(float64(attempted))
	m.SyncSynced.Add(float64(synced))
	m.SyncFailed.Add(float64(failed))
}

// SetQueuePending sets the pending-event gauge
func (m *Metrics) SetQueuePending(count int) {
	m.QueuePending.Set(float64(count))
}

// RecordWSMessage records a WebSocket message
func (m *Metrics) RecordWSMessage(direction string) {
	m.WSMessages.WithLabelValues(direction).Inc()
}

// IncWSConnections increments connected page contexts
func (m *Metrics) IncWSConnections() {
	m.WSConnections.Inc()
}

// DecWSConnections decrements connected page contexts
func (m *Metrics) DecWSConnections() {
	m.WSConnections.Dec()
}

// GetSnapshot returns current values for the JSON summary endpoint
func (m *Metrics) GetSnapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap := m.snapshot
	snap.UptimeSeconds = time.Since(m.startTime).Seconds()
	if snap.RequestCount > 0 {
		snap.AvgDurationSec = snap.TotalDuration / float64(snap.RequestCount)
	}
	return snap
}
