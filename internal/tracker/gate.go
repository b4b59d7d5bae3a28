package tracker

import "time"

// Gate enforces the minimum spacing between emitted alerts. It is
// deliberately separate from the Tracker: a trigger that passes the
// tracker but is blocked here must not reset the run, so the alert
// fires on the first observation after the cooldown clears.
type Gate struct {
	cooldown time.Duration
	last     time.Time
}

// NewGate creates a gate with the given cooldown.
func NewGate(cooldown time.Duration) *Gate {
	return &Gate{cooldown: cooldown}
}

// Allow reports whether an alert may be emitted at now. The comparison
// is strictly greater-than: an alert exactly cooldown after the last
// one is still blocked.
func (g *Gate) Allow(now time.Time) bool {
	if g.last.IsZero() {
		return true
	}
	return now.Sub(g.last) > g.cooldown
}

// Record stamps now as the last alert emission time.
func (g *Gate) Record(now time.Time) {
	g.last = now
}

// LastAlert returns the last alert emission time, zero if none.
func (g *Gate) LastAlert() time.Time {
	return g.last
}
