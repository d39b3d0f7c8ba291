// internal/health/tracker.go
package health

import (
	"sync"
	"time"
)

// Status is the device reachability state.
type Status uint8

const (
	Unknown Status = iota
	Online
	Offline
)

func (s Status) String() string {
	switch s {
	case Online:
		return "ONLINE"
	case Offline:
		return "OFFLINE"
	default:
		return "UNKNOWN"
	}
}

// OfflineThreshold is the number of consecutive failed polls that takes a device offline.
const OfflineThreshold = 3

// Probe timeouts. Initialization tolerates device boot latency.
const (
	InitProbeTimeout  = 5000 * time.Millisecond
	CycleProbeTimeout = 2000 * time.Millisecond
)

// Snapshot is a copy of the tracker state.
type Snapshot struct {
	Status              Status
	ConsecutiveFailures int
	Since               time.Time // when Status was entered
}

// Tracker turns per-poll outcomes into Online/Offline with hysteresis:
// one success goes online, OfflineThreshold consecutive failures go offline.
// Safe for concurrent use; the poll task and command tasks both read it.
type Tracker struct {
	mu       sync.Mutex
	snap     Snapshot
	now      func() time.Time
	onChange func(Snapshot)
}

// NewTracker starts in Unknown.
func NewTracker() *Tracker {
	t := &Tracker{now: time.Now}
	t.snap.Since = t.now()
	return t
}

// OnChange registers a callback invoked (outside the lock) after every status transition.
func (t *Tracker) OnChange(fn func(Snapshot)) {
	t.mu.Lock()
	t.onChange = fn
	t.mu.Unlock()
}

// Record feeds one poll outcome and reports whether Status changed.
func (t *Tracker) Record(reachable bool) (Snapshot, bool) {
	t.mu.Lock()

	prev := t.snap.Status
	if reachable {
		t.snap.ConsecutiveFailures = 0
		t.snap.Status = Online
	} else {
		t.snap.ConsecutiveFailures++
		if t.snap.ConsecutiveFailures >= OfflineThreshold && t.snap.Status != Offline {
			t.snap.Status = Offline
		}
	}

	changed := prev != t.snap.Status
	if changed {
		t.snap.Since = t.now()
	}
	snap := t.snap
	fn := t.onChange
	t.mu.Unlock()

	if changed && fn != nil {
		fn(snap)
	}
	return snap, changed
}

// Snapshot returns the current state.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snap
}

// Status is shorthand for Snapshot().Status.
func (t *Tracker) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snap.Status
}
