// internal/poller/runner.go
package poller

import (
	"context"
	"time"
)

// Scheduler is the recurring-task half of the scheduler shim.
type Scheduler interface {
	Every(d time.Duration, fn func(context.Context)) (cancel func())
}

// Start registers the poll cycle with s. First cycle runs immediately.
// One registration never overlaps with itself.
func (p *Poller) Start(s Scheduler) (stop func()) {
	return s.Every(p.cfg.Interval, p.Refresh)
}

// Refresh runs and logs one cycle now. It may overlap a scheduled cycle.
func (p *Poller) Refresh(ctx context.Context) {
	p.report(p.PollOnce(ctx))
}

func (p *Poller) report(res PollResult) {
	switch {
	case res.Skipped:
	case res.Err != nil:
		p.deps.Log.Debugw("poll cycle unreachable",
			"device", res.DeviceID,
			"failures", p.deps.Tracker.Snapshot().ConsecutiveFailures,
			"err", res.Err,
		)
	default:
		p.deps.Log.Debugw("poll cycle done",
			"device", res.DeviceID,
			"queries", len(res.Queries),
			"failed", res.Failed(),
		)
	}
}
