// internal/command/sequencer.go
package command

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tamzrod/marstek-bridge/internal/channel"
	"github.com/tamzrod/marstek-bridge/internal/logger"
	"github.com/tamzrod/marstek-bridge/internal/protocol"
	"github.com/tamzrod/marstek-bridge/internal/publisher"
)

// Default command timings.
const (
	DefaultSingleTimeout = 2000 * time.Millisecond
	DefaultStepTimeout   = 3000 * time.Millisecond
	DefaultStepDelay     = 300 * time.Millisecond
	DefaultRefreshDelay  = 1 * time.Second
)

var (
	// ErrRejected means the device replied without a truthy set_result.
	ErrRejected = errors.New("rejected by device")
	// ErrNoPeriods means manual activation found no enabled period.
	ErrNoPeriods = errors.New("no enabled time period")
	// ErrDisposed means the device handler is shutting down.
	ErrDisposed = errors.New("device disposed")
)

// Scheduler is the delayed-task half of the scheduler shim.
type Scheduler interface {
	After(d time.Duration, fn func(context.Context)) (cancel func())
}

type Config struct {
	DeviceID      string
	SingleTimeout time.Duration
	StepTimeout   time.Duration
	StepDelay     time.Duration
	RefreshDelay  time.Duration
}

type Deps struct {
	Transactor protocol.Transactor
	Scheduler  Scheduler
	Settings   *Settings
	Sink       publisher.Sink
	Refresh    func(context.Context) // one poll cycle
	Log        *logger.Logger
	Disposed   func() bool
	Sleep      func(context.Context, time.Duration) error // pause between manual periods
}

// Outcome reports one command run.
type Outcome struct {
	ID        uuid.UUID
	Command   string
	Attempted int
	Succeeded int
	Err       error
}

// OK is true when every attempted step was accepted.
func (o Outcome) OK() bool {
	return o.Err == nil && o.Attempted > 0 && o.Succeeded == o.Attempted
}

func (o Outcome) String() string {
	return fmt.Sprintf("%s %d/%d", o.Command, o.Succeeded, o.Attempted)
}

// Sequencer turns control inputs into ES.SetMode transactions.
// Commands of one device are serialized; they may interleave with poll cycles.
type Sequencer struct {
	mu   sync.Mutex
	cfg  Config
	deps Deps
}

func NewSequencer(cfg Config, deps Deps) (*Sequencer, error) {
	if cfg.DeviceID == "" {
		return nil, errors.New("command: device id required")
	}
	if deps.Transactor == nil {
		return nil, errors.New("command: transactor required")
	}
	if deps.Scheduler == nil {
		return nil, errors.New("command: scheduler required")
	}
	if deps.Settings == nil {
		return nil, errors.New("command: settings required")
	}

	if cfg.SingleTimeout <= 0 {
		cfg.SingleTimeout = DefaultSingleTimeout
	}
	if cfg.StepTimeout <= 0 {
		cfg.StepTimeout = DefaultStepTimeout
	}
	if cfg.StepDelay <= 0 {
		cfg.StepDelay = DefaultStepDelay
	}
	if cfg.RefreshDelay <= 0 {
		cfg.RefreshDelay = DefaultRefreshDelay
	}
	if deps.Sink == nil {
		deps.Sink = publisher.Bind(cfg.DeviceID, publisher.Discard)
	}
	if deps.Log == nil {
		deps.Log = logger.Nop()
	}
	if deps.Disposed == nil {
		deps.Disposed = func() bool { return false }
	}
	if deps.Sleep == nil {
		deps.Sleep = sleep
	}
	return &Sequencer{cfg: cfg, deps: deps}, nil
}

// ---- single-shot commands ----

// SelectMode switches to Auto, AI or the UPS alias. There is no toggle to reset.
func (s *Sequencer) SelectMode(ctx context.Context, m Mode) Outcome {
	var cfg protocol.ModeConfig
	switch m {
	case ModeAuto:
		cfg = protocol.AutoMode()
	case ModeAI:
		cfg = protocol.AIMode()
	case ModeUPS:
		cfg = protocol.UPSMode()
	default:
		return Outcome{ID: uuid.New(), Command: "select mode", Err: fmt.Errorf("unknown mode %q", m)}
	}
	return s.single(ctx, "select mode "+string(m), cfg, "")
}

// ActivatePassive pushes the stored passive power and countdown.
func (s *Sequencer) ActivatePassive(ctx context.Context) Outcome {
	p := s.deps.Settings.Passive()
	return s.single(ctx, "activate passive", protocol.PassiveMode(p.Power, p.Countdown), channel.PassiveActivate)
}

func (s *Sequencer) single(ctx context.Context, name string, cfg protocol.ModeConfig, toggle channel.ID) Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := Outcome{ID: uuid.New(), Command: name}
	if s.deps.Disposed() {
		out.Err = ErrDisposed
		return out
	}

	out.Attempted = 1
	if err := s.setMode(ctx, cfg, s.cfg.SingleTimeout); err != nil {
		out.Err = err
		s.deps.Log.Warnw("command failed", "device", s.cfg.DeviceID, "command", name, "id", out.ID, "err", err)
		s.resetToggle(toggle)
		return out
	}

	out.Succeeded = 1
	s.deps.Log.Infow("command accepted", "device", s.cfg.DeviceID, "command", name, "id", out.ID)
	s.scheduleRefresh(toggle)
	return out
}

// ---- multi-step commands ----

// ActivateManual sends every enabled period, in slot order, as its own
// ES.SetMode. The follow-up refresh only runs when all of them were accepted.
func (s *Sequencer) ActivateManual(ctx context.Context) Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := Outcome{ID: uuid.New(), Command: "activate manual"}
	if s.deps.Disposed() {
		out.Err = ErrDisposed
		return out
	}

	var errs []error
	for i, p := range s.deps.Settings.Periods() {
		if !p.Enabled {
			continue
		}
		if out.Attempted > 0 {
			if err := s.deps.Sleep(ctx, s.cfg.StepDelay); err != nil {
				errs = append(errs, err)
				break
			}
		}

		out.Attempted++
		cfg := protocol.ManualMode(i, p.Start, p.End, int(p.Weekdays), p.Power)
		if err := s.setMode(ctx, cfg, s.cfg.StepTimeout); err != nil {
			errs = append(errs, fmt.Errorf("period %d: %w", i, err))
			continue
		}
		out.Succeeded++
	}

	switch {
	case out.Attempted == 0:
		out.Err = ErrNoPeriods
		s.deps.Log.Warnw("manual activation skipped", "device", s.cfg.DeviceID, "id", out.ID, "err", out.Err)
		s.resetToggle(channel.ManualActivate)
	case out.Succeeded == out.Attempted && len(errs) == 0:
		s.deps.Log.Infow("manual periods accepted", "device", s.cfg.DeviceID, "id", out.ID, "periods", out.Succeeded)
		s.scheduleRefresh(channel.ManualActivate)
	default:
		out.Err = errors.Join(errs...)
		s.deps.Log.Warnw("manual activation incomplete",
			"device", s.cfg.DeviceID,
			"id", out.ID,
			"succeeded", out.Succeeded,
			"attempted", out.Attempted,
			"err", out.Err,
		)
		s.resetToggle(channel.ManualActivate)
	}
	return out
}

// ---- helpers ----

func (s *Sequencer) setMode(ctx context.Context, cfg protocol.ModeConfig, timeout time.Duration) error {
	req, err := protocol.SetMode(cfg)
	if err != nil {
		return err
	}
	res, err := protocol.Call(ctx, s.deps.Transactor, protocol.MethodESSetMode, req, timeout)
	if err != nil {
		return err
	}
	if !protocol.SetResult(res) {
		return fmt.Errorf("%s %s: %w", protocol.MethodESSetMode, cfg.Mode, ErrRejected)
	}
	return nil
}

// scheduleRefresh re-polls after RefreshDelay, then clears the toggle.
func (s *Sequencer) scheduleRefresh(toggle channel.ID) {
	s.deps.Scheduler.After(s.cfg.RefreshDelay, func(ctx context.Context) {
		if s.deps.Disposed() {
			return
		}
		if s.deps.Refresh != nil {
			s.deps.Refresh(ctx)
		}
		s.resetToggle(toggle)
	})
}

// resetToggle publishes OFF for an activation channel. It ignores the
// health status so an offline device does not leave a toggle stuck ON.
func (s *Sequencer) resetToggle(toggle channel.ID) {
	if toggle == "" || s.deps.Disposed() {
		return
	}
	s.deps.Sink.Publish(toggle, channel.Switch(false))
}

func sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
