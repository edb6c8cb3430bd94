package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	// HTTP metrics (debug surface)
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Application metrics
	Transitions *prometheus.CounterVec
	AppsByState *prometheus.GaugeVec

	// Process metrics
	ProcessStarts *prometheus.CounterVec
	ProcessExits  *prometheus.CounterVec
	LogLines      *prometheus.CounterVec

	// Screen capture metrics
	ScreenOps      *prometheus.CounterVec
	ScreenDuration *prometheus.HistogramVec
	SnapshotBytes  prometheus.Gauge

	// System metrics
	Uptime    prometheus.GaugeFunc
	startTime time.Time
}

// NewMetrics creates a new metrics collector registered with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	m := &Metrics{
		startTime: time.Now(),

		// HTTP metrics
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "appswitch_http_requests_total",
				Help: "Total number of debug HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "appswitch_http_request_duration_seconds",
				Help:    "Debug HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"method", "path"},
		),

		// Application metrics
		Transitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "appswitch_app_transitions_total",
				Help: "Application notifications emitted, by notification",
			},
			[]string{"app", "notification"},
		),
		AppsByState: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "appswitch_apps",
				Help: "Number of managed applications per state",
			},
			[]string{"state"},
		),

		// Process metrics
		ProcessStarts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "appswitch_process_starts_total",
				Help: "Process start attempts, by result",
			},
			[]string{"app", "result"},
		),
		ProcessExits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "appswitch_process_exits_total",
				Help: "Process exits, by kind (exit or signal)",
			},
			[]string{"app", "kind"},
		),
		LogLines: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "appswitch_log_lines_total",
				Help: "Child output lines relayed to the system log",
			},
			[]string{"app", "stream"},
		),

		// Screen capture metrics
		ScreenOps: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "appswitch_screen_operations_total",
				Help: "Framebuffer capture and restore operations, by result",
			},
			[]string{"op", "result"},
		),
		ScreenDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "appswitch_screen_operation_duration_seconds",
				Help:    "Framebuffer capture and restore duration in seconds",
				Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5},
			},
			[]string{"op"},
		),
		SnapshotBytes: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "appswitch_snapshot_bytes",
				Help: "Compressed bytes held in screen snapshots",
			},
		),
	}

	m.Uptime = factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "appswitch_uptime_seconds",
			Help: "Service uptime in seconds",
		},
		func() float64 { return time.Since(m.startTime).Seconds() },
	)

	return m
}

// RecordHTTPRequest records a debug HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordTransition records an emitted application notification
func (m *Metrics) RecordTransition(app, notification string) {
	if m == nil {
		return
	}
	m.Transitions.WithLabelValues(app, notification).Inc()
}

// SetAppsByState replaces the per-state application gauges
func (m *Metrics) SetAppsByState(counts map[string]int) {
	if m == nil {
		return
	}
	for state, count := range counts {
		m.AppsByState.WithLabelValues(state).Set(float64(count))
	}
}

// RecordProcessStart records a process start attempt
func (m *Metrics) RecordProcessStart(app, result string) {
	if m == nil {
		return
	}
	m.ProcessStarts.WithLabelValues(app, result).Inc()
}

// RecordProcessExit records a process exit
func (m *Metrics) RecordProcessExit(app, kind string) {
	if m == nil {
		return
	}
	m.ProcessExits.WithLabelValues(app, kind).Inc()
}

// RecordLogLine records a relayed output line
func (m *Metrics) RecordLogLine(app, stream string) {
	if m == nil {
		return
	}
	m.LogLines.WithLabelValues(app, stream).Inc()
}

// RecordScreenOp records a capture or restore outcome
func (m *Metrics) RecordScreenOp(op, result string, duration time.Duration) {
	if m == nil {
		return
	}
	m.ScreenOps.WithLabelValues(op, result).Inc()
	m.ScreenDuration.WithLabelValues(op).Observe(duration.Seconds())
}

// AddSnapshotBytes adjusts the held snapshot bytes gauge by delta
func (m *Metrics) AddSnapshotBytes(delta int) {
	if m == nil {
		return
	}
	m.SnapshotBytes.Add(float64(delta))
}
