package metrics

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all theft monitor metrics
type Metrics struct {
	// Frame pipeline counters
	FramesRead      atomic.Uint64
	FramesProcessed atomic.Uint64
	ConcealedFrames atomic.Uint64

	// Error counters
	SourceErrors   atomic.Uint64
	DetectorErrors atomic.Uint64
	SnapshotErrors atomic.Uint64

	// Alert counters
	AlertsTriggered  atomic.Uint64
	AlertsSuppressed atomic.Uint64 // Triggers blocked by the cooldown gate
	DispatchFailures atomic.Uint64
	SnapshotBytes    atomic.Uint64

	// Loop state
	MonitorActive  atomic.Uint64 // 0 = stopped, 1 = running
	ConsecutiveRun atomic.Uint64 // Current concealed-frame run length

	// Latency tracking
	DetectLatencyMs atomic.Uint64 // Last inference round-trip in ms

	registry *prometheus.Registry
}

// New creates a new Metrics instance with Prometheus collectors
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
	}
	m.registerPrometheusMetrics()
	return m
}

func (m *Metrics) registerPrometheusMetrics() {
	gauges := []struct {
		name string
		help string
		load func() uint64
	}{
		{"theft_frames_read_total", "Total frames read from the video source", m.FramesRead.Load},
		{"theft_frames_processed_total", "Total frames run through detection and tracking", m.FramesProcessed.Load},
		{"theft_concealed_frames_total", "Total frames carrying a concealment signal", m.ConcealedFrames.Load},
		{"theft_source_errors_total", "Total frame source read errors", m.SourceErrors.Load},
		{"theft_detector_errors_total", "Total detector faults treated as zero detections", m.DetectorErrors.Load},
		{"theft_snapshot_errors_total", "Total snapshot persistence failures", m.SnapshotErrors.Load},
		{"theft_alerts_triggered_total", "Total confirmed alerts", m.AlertsTriggered.Load},
		{"theft_alerts_suppressed_total", "Total triggers blocked by the cooldown gate", m.AlertsSuppressed.Load},
		{"theft_dispatch_failures_total", "Total failed alert notifications", m.DispatchFailures.Load},
		{"theft_snapshot_bytes_total", "Total bytes written as alert snapshots", m.SnapshotBytes.Load},
		{"theft_monitor_active", "Monitor loop running (0=stopped, 1=running)", m.MonitorActive.Load},
		{"theft_consecutive_run", "Current consecutive concealed-frame run length", m.ConsecutiveRun.Load},
		{"theft_detect_latency_ms", "Last inference round-trip in milliseconds", m.DetectLatencyMs.Load},
	}

	for _, g := range gauges {
		load := g.load
		m.registry.MustRegister(prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{Name: g.name, Help: g.help},
			func() float64 { return float64(load()) },
		))
	}
}

// UpdateDetectLatency records the latest inference round-trip duration
func (m *Metrics) UpdateDetectLatency(d time.Duration) {
	m.DetectLatencyMs.Store(uint64(d.Milliseconds()))
}

// Handler returns the Prometheus HTTP handler
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// StartServer starts the metrics HTTP server
func (m *Metrics) StartServer(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	return http.ListenAndServe(addr, mux)
}
