// internal/device/device.go
package device

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tamzrod/marstek-bridge/internal/command"
	"github.com/tamzrod/marstek-bridge/internal/health"
	"github.com/tamzrod/marstek-bridge/internal/logger"
	"github.com/tamzrod/marstek-bridge/internal/poller"
	"github.com/tamzrod/marstek-bridge/internal/protocol"
	"github.com/tamzrod/marstek-bridge/internal/publisher"
	"github.com/tamzrod/marstek-bridge/internal/udp"
)

var (
	// ErrDisposed is returned for input arriving after Dispose.
	ErrDisposed = command.ErrDisposed
	// ErrInvalidInput wraps channel id or value parse failures.
	ErrInvalidInput = errors.New("invalid input")
)

// Scheduler is everything a device needs from the scheduler shim.
type Scheduler interface {
	Go(fn func(context.Context))
	After(d time.Duration, fn func(context.Context)) (cancel func())
	Every(d time.Duration, fn func(context.Context)) (cancel func())
}

type Config struct {
	ID              string
	Endpoint        udp.Endpoint
	LocalPort       int
	RefreshInterval time.Duration
}

type Deps struct {
	Transactor protocol.Transactor // nil = UDP on Endpoint/LocalPort
	Scheduler  Scheduler
	Publisher  publisher.Publisher
	Log        *logger.Logger
}

// Device owns one battery: its health, poll loop, settings and command sequencer.
type Device struct {
	cfg   Config
	sched Scheduler
	sink  publisher.Sink
	log   *logger.Logger

	tracker  *health.Tracker
	settings *command.Settings
	poller   *poller.Poller
	seq      *command.Sequencer

	disposed atomic.Bool

	mu          sync.Mutex
	stop        func()
	info        *protocol.DeviceInfo
	lastOutcome *command.Outcome
}

func New(cfg Config, deps Deps) (*Device, error) {
	if cfg.ID == "" {
		return nil, errors.New("device: id required")
	}
	if deps.Scheduler == nil {
		return nil, errors.New("device: scheduler required")
	}
	if deps.Transactor == nil {
		if cfg.Endpoint.Host == "" {
			return nil, fmt.Errorf("device %q: host required", cfg.ID)
		}
		deps.Transactor = udp.Client{Endpoint: cfg.Endpoint, LocalPort: cfg.LocalPort}
	}
	if deps.Log == nil {
		deps.Log = logger.Nop()
	}

	d := &Device{
		cfg:      cfg,
		sched:    deps.Scheduler,
		sink:     publisher.Bind(cfg.ID, deps.Publisher),
		log:      deps.Log.With("device", cfg.ID),
		tracker:  health.NewTracker(),
		settings: command.NewSettings(),
	}

	p, err := poller.New(
		poller.Config{DeviceID: cfg.ID, Interval: cfg.RefreshInterval},
		poller.Deps{
			Transactor: deps.Transactor,
			Tracker:    d.tracker,
			Sink:       d.sink,
			Log:        deps.Log,
			Disposed:   d.disposed.Load,
		},
	)
	if err != nil {
		return nil, err
	}
	d.poller = p

	seq, err := command.NewSequencer(
		command.Config{DeviceID: cfg.ID},
		command.Deps{
			Transactor: deps.Transactor,
			Scheduler:  deps.Scheduler,
			Settings:   d.settings,
			Sink:       d.sink,
			Refresh:    p.Refresh,
			Log:        deps.Log,
			Disposed:   d.disposed.Load,
		},
	)
	if err != nil {
		return nil, err
	}
	d.seq = seq

	d.tracker.OnChange(func(s health.Snapshot) {
		d.log.Infow("device health changed", "status", s.Status.String(), "failures", s.ConsecutiveFailures)
	})

	return d, nil
}

func (d *Device) ID() string { return d.cfg.ID }

// ---- lifecycle ----

// Initialize publishes Unknown, then probes with the boot timeout in the
// background and starts the poll loop whatever the probe said.
func (d *Device) Initialize() {
	d.sink.PublishStatus(d.tracker.Snapshot())

	d.sched.Go(func(ctx context.Context) {
		info, ok, err := d.poller.Probe(ctx, health.InitProbeTimeout)
		if d.disposed.Load() {
			return
		}

		snap, _ := d.tracker.Record(ok)
		d.sink.PublishStatus(snap)

		if ok {
			d.mu.Lock()
			d.info = &info
			d.mu.Unlock()
			d.log.Infow("device identified",
				"model", info.Device,
				"version", info.Version,
				"id", info.UniqueID(),
				"ip", info.IP,
			)
		} else {
			d.log.Warnw("device not reachable at startup", "endpoint", d.cfg.Endpoint.String(), "err", err)
		}

		d.mu.Lock()
		defer d.mu.Unlock()
		if d.disposed.Load() {
			return
		}
		d.stop = d.poller.Start(d.sched)
	})
}

// Dispose stops polling and makes every later publish a no-op.
// In-flight transactions finish on their own timeout.
func (d *Device) Dispose() {
	if !d.disposed.CompareAndSwap(false, true) {
		return
	}

	d.mu.Lock()
	stop := d.stop
	d.stop = nil
	d.mu.Unlock()

	if stop != nil {
		stop()
	}
	d.log.Infow("device disposed")
}

// Refresh schedules one poll cycle now.
func (d *Device) Refresh() error {
	if d.disposed.Load() {
		return ErrDisposed
	}
	d.sched.Go(d.poller.Refresh)
	return nil
}

// ---- input ----

// HandleCommand parses a raw channel write and handles it.
func (d *Device) HandleCommand(id, raw string) error {
	in, err := command.ParseInput(id, raw)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return d.HandleInput(in)
}

// HandleInput stores settings immediately and runs commands on the scheduler.
func (d *Device) HandleInput(in command.Input) error {
	if d.disposed.Load() {
		return ErrDisposed
	}

	stored, err := in.Apply(d.settings)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	d.echo(in)
	if stored {
		return nil
	}

	switch in.Kind {
	case command.KindModeSelect:
		mode := in.Mode
		d.run(func(ctx context.Context) command.Outcome { return d.seq.SelectMode(ctx, mode) })
	case command.KindPassiveActivate:
		if in.On {
			d.run(d.seq.ActivatePassive)
		}
	case command.KindManualActivate:
		if in.On {
			d.run(d.seq.ActivateManual)
		}
	default:
		return fmt.Errorf("%w: unhandled input kind %s", ErrInvalidInput, in.Kind)
	}
	return nil
}

func (d *Device) run(fn func(context.Context) command.Outcome) {
	d.sched.Go(func(ctx context.Context) {
		out := fn(ctx)
		d.mu.Lock()
		d.lastOutcome = &out
		d.mu.Unlock()
	})
}

// ---- read side ----

// Health returns the tracker state.
func (d *Device) Health() health.Snapshot { return d.tracker.Snapshot() }

// Info returns the identity reported by the startup probe, if it answered.
func (d *Device) Info() (protocol.DeviceInfo, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.info == nil {
		return protocol.DeviceInfo{}, false
	}
	return *d.info, true
}

// LastOutcome returns the most recent finished command.
func (d *Device) LastOutcome() (command.Outcome, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.lastOutcome == nil {
		return command.Outcome{}, false
	}
	return *d.lastOutcome, true
}

// Settings returns the stored control inputs.
func (d *Device) Settings() (command.Passive, [command.PeriodCount]command.Period) {
	return d.settings.Passive(), d.settings.Periods()
}
