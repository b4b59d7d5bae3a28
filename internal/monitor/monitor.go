// Package monitor drives the theft-surveillance loop: frames in,
// detections tracked, alerts out.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/retailx/theft-monitor/internal/annotate"
	"github.com/retailx/theft-monitor/internal/config"
	"github.com/retailx/theft-monitor/internal/detector"
	"github.com/retailx/theft-monitor/internal/eventlog"
	"github.com/retailx/theft-monitor/internal/logger"
	"github.com/retailx/theft-monitor/internal/metrics"
	"github.com/retailx/theft-monitor/internal/notify"
	"github.com/retailx/theft-monitor/internal/source"
	"github.com/retailx/theft-monitor/internal/tracker"
	"github.com/retailx/theft-monitor/pkg/types"
)

// Monitor runs the surveillance loop for a single video source.
// Execution is strictly sequential per frame; tracker and gate state
// are written only by the loop and read by Status under the mutex, so
// no further coordination is needed. Multiple sources get independent
// Monitor instances.
type Monitor struct {
	src        source.FrameSource
	detector   detector.Detector
	dispatcher notify.Dispatcher
	snapshots  *annotate.Writer
	events     *eventlog.Log // nil disables the journal
	metrics    *metrics.Metrics

	mu      sync.Mutex
	tracker *tracker.Tracker
	gate    *tracker.Gate
	active  bool

	now    func() time.Time
	errLog *rate.Limiter // throttles repeated detector fault logging
}

// New assembles a monitor from its collaborators. events may be nil.
func New(src source.FrameSource, det detector.Detector, disp notify.Dispatcher,
	snaps *annotate.Writer, events *eventlog.Log, mtr *metrics.Metrics, cfg config.Config) *Monitor {
	return &Monitor{
		src:        src,
		detector:   det,
		dispatcher: disp,
		snapshots:  snaps,
		events:     events,
		metrics:    mtr,
		tracker:    tracker.New(cfg.HistoryCapacity, cfg.AlertFramesThreshold),
		gate:       tracker.NewGate(cfg.AlertCooldown),
		now:        time.Now,
		errLog:     rate.NewLimiter(rate.Every(5*time.Second), 3),
	}
}

// Run executes the surveillance loop until the source ends or ctx is
// cancelled. Cancellation and end of stream return nil; a mid-stream
// device error is returned after resources are released. A fault on a
// single frame never terminates the loop.
func (m *Monitor) Run(ctx context.Context) error {
	m.setActive(true)
	defer m.setActive(false)
	defer m.src.Close()

	logger.Info("Monitor", "Surveillance started on %s", m.src.ID())

	for {
		select {
		case <-ctx.Done():
			logger.Info("Monitor", "Surveillance stopped: cancelled")
			return nil
		default:
		}

		frame, err := m.src.Read(ctx)
		if err != nil {
			switch {
			case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
				logger.Info("Monitor", "Surveillance stopped: cancelled")
				return nil
			case errors.Is(err, source.ErrEndOfStream):
				logger.Info("Monitor", "Surveillance stopped: stream ended")
				return nil
			default:
				m.metrics.SourceErrors.Add(1)
				logger.Error("Monitor", "Frame read failed: %v", err)
				return fmt.Errorf("read frame: %w", err)
			}
		}

		m.metrics.FramesRead.Add(1)
		m.step(ctx, frame)
		m.metrics.FramesProcessed.Add(1)
	}
}

// step processes one frame: detect, track, and alert when a sustained
// concealment run clears the cooldown gate.
func (m *Monitor) step(ctx context.Context, frame *types.Frame) {
	start := time.Now()
	detections, err := m.detector.Detect(ctx, frame)
	m.metrics.UpdateDetectLatency(time.Since(start))
	if err != nil {
		// Recoverable per frame: treat as zero detections and move on.
		m.metrics.DetectorErrors.Add(1)
		if m.errLog.Allow() {
			logger.Warn("Monitor", "Detector fault on frame %d, treating as empty: %v", frame.Number, err)
		}
		detections = nil
	}

	now := m.now()
	m.mu.Lock()
	triggered := m.tracker.Observe(detections)
	run := m.tracker.Consecutive()
	allowed := triggered && m.gate.Allow(now)
	m.mu.Unlock()

	m.metrics.ConsecutiveRun.Store(uint64(run))
	if run > 0 {
		m.metrics.ConcealedFrames.Add(1)
	}

	if !triggered {
		return
	}
	if !allowed {
		// The run keeps accumulating; the first Observe after cooldown
		// clears fires immediately.
		m.metrics.AlertsSuppressed.Add(1)
		logger.Debug("Monitor", "Trigger suppressed by cooldown (run=%d)", run)
		return
	}

	m.fireAlert(ctx, now, frame, detections)
}

// fireAlert persists the annotated snapshot, attempts one dispatch,
// journals the event, and resets tracker and gate together.
func (m *Monitor) fireAlert(ctx context.Context, now time.Time, frame *types.Frame, detections []types.Detection) {
	ts := now.Format(annotate.SnapshotTimeFormat)

	annotated := annotate.Render(frame.Image, detections)
	annotate.Banner(annotated, fmt.Sprintf("ALERT: Theft Detected (%s)", ts))

	path, size, err := m.snapshots.Save(annotated, now)
	if err != nil {
		// No evidence on disk means no alert event: cooldown is not
		// recorded and the run is not reset, so the next frame retries.
		m.metrics.SnapshotErrors.Add(1)
		logger.Error("Monitor", "Snapshot persist failed: %v", err)
		return
	}
	m.metrics.SnapshotBytes.Add(uint64(size))
	logger.Info("Monitor", "Theft detected, snapshot saved: %s", path)

	caption := fmt.Sprintf("Theft detected at %s. Snapshot attached.", ts)
	dispatched := m.dispatcher.Send(ctx, path, caption)
	if !dispatched {
		m.metrics.DispatchFailures.Add(1)
	}

	if m.events != nil {
		ev := eventlog.Event{
			ID:           uuid.NewString(),
			CreatedAt:    now,
			SnapshotPath: path,
			Caption:      caption,
			Detections:   detections,
			Dispatched:   dispatched,
		}
		if err := m.events.Record(ev); err != nil {
			logger.Warn("Monitor", "Alert journal write failed: %v", err)
		}
	}

	m.metrics.AlertsTriggered.Add(1)

	m.mu.Lock()
	m.gate.Record(now)
	m.tracker.Reset()
	m.mu.Unlock()
	m.metrics.ConsecutiveRun.Store(0)
}

func (m *Monitor) setActive(v bool) {
	m.mu.Lock()
	m.active = v
	m.mu.Unlock()
	if v {
		m.metrics.MonitorActive.Store(1)
	} else {
		m.metrics.MonitorActive.Store(0)
	}
}

// Status is the read-only view exposed to the rest of the application.
type Status struct {
	Active          bool       `json:"active"`
	Source          string     `json:"source"`
	AlertChannel    string     `json:"alert_channel"`
	FramesProcessed uint64     `json:"frames_processed"`
	AlertsTriggered uint64     `json:"alerts_triggered"`
	ConsecutiveRun  int        `json:"consecutive_run"`
	LastAlert       *time.Time `json:"last_alert,omitempty"`
}

// Status reports whether the monitor is running, what it watches, and
// where alerts go. Per-frame faults are never reflected here.
func (m *Monitor) Status() Status {
	m.mu.Lock()
	active := m.active
	run := m.tracker.Consecutive()
	last := m.gate.LastAlert()
	m.mu.Unlock()

	st := Status{
		Active:          active,
		Source:          m.src.ID(),
		AlertChannel:    m.dispatcher.Channel(),
		FramesProcessed: m.metrics.FramesProcessed.Load(),
		AlertsTriggered: m.metrics.AlertsTriggered.Load(),
		ConsecutiveRun:  run,
	}
	if !last.IsZero() {
		st.LastAlert = &last
	}
	return st
}
