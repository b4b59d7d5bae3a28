package tracker

import (
	"testing"
	"time"

	"github.com/retailx/theft-monitor/pkg/types"
)

func concealed() []types.Detection {
	return []types.Detection{{
		Class:      types.ClassProductConcealed,
		Confidence: 0.9,
		BBox:       types.BoundingBox{X1: 5, Y1: 5, X2: 20, Y2: 20},
	}}
}

func visible() []types.Detection {
	return []types.Detection{{
		Class:      types.ClassProductVisible,
		Confidence: 0.9,
		BBox:       types.BoundingBox{X1: 5, Y1: 5, X2: 20, Y2: 20},
	}}
}

func observeFlags(t *testing.T, tr *Tracker, flags []bool) []bool {
	t.Helper()
	results := make([]bool, len(flags))
	for i, f := range flags {
		var dets []types.Detection
		if f {
			dets = concealed()
		}
		results[i] = tr.Observe(dets)
	}
	return results
}

func TestObserveRunLength(t *testing.T) {
	tr := New(10, 3)

	flags := []bool{false, false, true, true, true, false}
	want := []bool{false, false, false, false, true, false}

	got := observeFlags(t, tr, flags)
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("frame %d: triggered = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestObserveIgnoresOtherClasses(t *testing.T) {
	tr := New(10, 1)
	if tr.Observe(visible()) {
		t.Error("product_visible must not count as a concealment signal")
	}
	if tr.Consecutive() != 0 {
		t.Errorf("consecutive = %d, want 0", tr.Consecutive())
	}
}

func TestConsecutiveResetsOnGap(t *testing.T) {
	tr := New(10, 5)
	observeFlags(t, tr, []bool{true, true, false})
	if tr.Consecutive() != 0 {
		t.Errorf("consecutive = %d after gap, want 0", tr.Consecutive())
	}
	observeFlags(t, tr, []bool{true})
	if tr.Consecutive() != 1 {
		t.Errorf("consecutive = %d, want 1", tr.Consecutive())
	}
}

func TestWindowFIFO(t *testing.T) {
	tr := New(3, 100)
	observeFlags(t, tr, []bool{true, false, true, true, false})

	window := tr.Window()
	if len(window) != 3 {
		t.Fatalf("window length = %d, want 3", len(window))
	}
	want := []bool{true, true, false}
	for i := range want {
		if window[i] != want[i] {
			t.Errorf("window[%d] = %v, want %v", i, window[i], want[i])
		}
	}
}

func TestWindowNeverExceedsCapacity(t *testing.T) {
	tr := New(4, 100)
	for i := 0; i < 20; i++ {
		tr.Observe(concealed())
		if n := len(tr.Window()); n > 4 {
			t.Fatalf("window length %d exceeds capacity after %d frames", n, i+1)
		}
	}
}

func TestResetRequiresFreshRun(t *testing.T) {
	tr := New(10, 3)
	observeFlags(t, tr, []bool{true, true, true})
	if tr.Consecutive() != 3 {
		t.Fatalf("consecutive = %d, want 3", tr.Consecutive())
	}

	tr.Reset()
	if tr.Consecutive() != 0 {
		t.Errorf("consecutive = %d after reset, want 0", tr.Consecutive())
	}
	if len(tr.Window()) != 0 {
		t.Errorf("window length = %d after reset, want 0", len(tr.Window()))
	}

	// Concealment still ongoing: the next alert needs a full new run.
	got := observeFlags(t, tr, []bool{true, true, true})
	want := []bool{false, false, true}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("post-reset frame %d: triggered = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestGateStrictGreaterThan(t *testing.T) {
	g := NewGate(30 * time.Second)
	t0 := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	if !g.Allow(t0) {
		t.Fatal("fresh gate must allow the first alert")
	}
	g.Record(t0)

	if g.Allow(t0.Add(30 * time.Second)) {
		t.Error("exactly cooldown after the last alert must still be blocked")
	}
	if !g.Allow(t0.Add(30*time.Second + time.Nanosecond)) {
		t.Error("just past cooldown must be allowed")
	}
}

// runScenario replays a flag sequence through tracker and gate the way
// the loop driver does: gate and reset apply only on an emitted alert.
func runScenario(t *testing.T, threshold int, cooldown time.Duration, flags []bool, times []time.Time) []time.Time {
	t.Helper()
	if len(flags) != len(times) {
		t.Fatalf("flags/times length mismatch: %d vs %d", len(flags), len(times))
	}

	tr := New(10, threshold)
	g := NewGate(cooldown)
	var alerts []time.Time
	for i, f := range flags {
		var dets []types.Detection
		if f {
			dets = concealed()
		}
		if tr.Observe(dets) && g.Allow(times[i]) {
			g.Record(times[i])
			tr.Reset()
			alerts = append(alerts, times[i])
		}
	}
	return alerts
}

func secondTimes(n int) []time.Time {
	t0 := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	times := make([]time.Time, n)
	for i := range times {
		times[i] = t0.Add(time.Duration(i) * time.Second)
	}
	return times
}

func TestScenarioSingleRun(t *testing.T) {
	flags := []bool{false, false, true, true, true, false}
	times := secondTimes(len(flags))

	alerts := runScenario(t, 3, 30*time.Second, flags, times)
	if len(alerts) != 1 {
		t.Fatalf("alerts = %d, want 1", len(alerts))
	}
	if !alerts[0].Equal(times[4]) {
		t.Errorf("alert at %v, want %v (third consecutive frame)", alerts[0], times[4])
	}
}

func TestScenarioCooldownBlocksSecondRun(t *testing.T) {
	// Concealment persists well past the first alert: the count
	// restarts and reaches the threshold again, but the second alert
	// waits for the cooldown.
	flags := make([]bool, 36)
	for i := range flags {
		flags[i] = true
	}
	times := secondTimes(len(flags))

	alerts := runScenario(t, 3, 30*time.Second, flags, times)
	if len(alerts) != 2 {
		t.Fatalf("alerts = %d, want 2", len(alerts))
	}
	if !alerts[0].Equal(times[2]) {
		t.Errorf("first alert at %v, want %v", alerts[0], times[2])
	}
	// t=32 is exactly cooldown after t=2 and still blocked; t=33 clears.
	if !alerts[1].Equal(times[33]) {
		t.Errorf("second alert at %v, want %v", alerts[1], times[33])
	}
}

func TestBlockedTriggerDoesNotResetRun(t *testing.T) {
	tr := New(10, 3)
	g := NewGate(30 * time.Second)
	times := secondTimes(10)

	// First alert at t=2 drains the run.
	for i := 0; i < 3; i++ {
		if tr.Observe(concealed()) && g.Allow(times[i]) {
			g.Record(times[i])
			tr.Reset()
		}
	}

	// Three more concealed frames trigger again but the gate blocks;
	// the run must keep accumulating.
	for i := 3; i < 6; i++ {
		if tr.Observe(concealed()) && g.Allow(times[i]) {
			t.Fatalf("alert at t=%d should be blocked by cooldown", i)
		}
	}
	if tr.Consecutive() != 3 {
		t.Errorf("consecutive = %d, want 3 (blocked trigger must not reset)", tr.Consecutive())
	}
}
