// Package tracker holds the temporal state that turns per-frame
// detections into confirmed concealment events.
package tracker

import "github.com/retailx/theft-monitor/pkg/types"

// Tracker is a run-length detector over the per-frame concealment
// signal. It also records the signal in a bounded FIFO window; the
// window is kept for diagnostics and is not consulted by the trigger
// decision, which depends only on the strict consecutive run.
type Tracker struct {
	capacity    int
	threshold   int
	window      []bool
	consecutive int
}

// New creates a tracker with the given window capacity and consecutive
// frame threshold.
func New(capacity, threshold int) *Tracker {
	return &Tracker{
		capacity:  capacity,
		threshold: threshold,
		window:    make([]bool, 0, capacity),
	}
}

// Observe folds one frame's detections into the tracker state and
// reports whether a sustained concealment event has occurred.
func (t *Tracker) Observe(detections []types.Detection) bool {
	present := false
	for _, d := range detections {
		if d.Class == types.ClassProductConcealed {
			present = true
			break
		}
	}

	if len(t.window) == t.capacity {
		copy(t.window, t.window[1:])
		t.window = t.window[:t.capacity-1]
	}
	t.window = append(t.window, present)

	if present {
		t.consecutive++
	} else {
		t.consecutive = 0
	}

	return t.consecutive >= t.threshold
}

// Reset clears the run counter and the window. Called only after a
// trigger has actually been acted on, so the next alert requires a
// fresh full run even if concealment is still ongoing.
func (t *Tracker) Reset() {
	t.consecutive = 0
	t.window = t.window[:0]
}

// Consecutive returns the current run length.
func (t *Tracker) Consecutive() int {
	return t.consecutive
}

// Window returns a copy of the recent concealment flags, oldest first.
func (t *Tracker) Window() []bool {
	out := make([]bool, len(t.window))
	copy(out, t.window)
	return out
}
