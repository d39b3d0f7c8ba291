// internal/poller/poller.go
package poller

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tamzrod/marstek-bridge/internal/channel"
	"github.com/tamzrod/marstek-bridge/internal/health"
	"github.com/tamzrod/marstek-bridge/internal/logger"
	"github.com/tamzrod/marstek-bridge/internal/protocol"
	"github.com/tamzrod/marstek-bridge/internal/publisher"
)

// MinInterval is the shortest accepted poll interval.
const MinInterval = time.Second

// Config is the minimal runtime config the poller needs.
type Config struct {
	DeviceID     string
	Interval     time.Duration
	ProbeTimeout time.Duration // default health.CycleProbeTimeout
	QueryTimeout time.Duration // default 2s
}

// Deps are the collaborators of one poller.
type Deps struct {
	Transactor protocol.Transactor
	Tracker    *health.Tracker
	Sink       publisher.Sink
	Log        *logger.Logger
	Disposed   func() bool
}

// Poller runs reachability probes and status queries for one device.
type Poller struct {
	cfg  Config
	deps Deps
	now  func() time.Time
}

// New creates a poller with immutable config.
func New(cfg Config, deps Deps) (*Poller, error) {
	if cfg.DeviceID == "" {
		return nil, errors.New("poller: device id required")
	}
	if deps.Transactor == nil {
		return nil, errors.New("poller: transactor required")
	}
	if deps.Tracker == nil {
		return nil, errors.New("poller: health tracker required")
	}
	if cfg.Interval < MinInterval {
		cfg.Interval = MinInterval
	}
	if cfg.ProbeTimeout <= 0 {
		cfg.ProbeTimeout = health.CycleProbeTimeout
	}
	if cfg.QueryTimeout <= 0 {
		cfg.QueryTimeout = 2 * time.Second
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
	return &Poller{cfg: cfg, deps: deps, now: time.Now}, nil
}

// Interval is the normalized poll interval.
func (p *Poller) Interval() time.Duration { return p.cfg.Interval }

// Probe sends Marstek.GetDevice. Any non-empty reply counts as reachable;
// the identity is decoded best effort.
func (p *Poller) Probe(ctx context.Context, timeout time.Duration) (protocol.DeviceInfo, bool, error) {
	req, err := protocol.GetDevice()
	if err != nil {
		return protocol.DeviceInfo{}, false, err
	}

	raw, ok, err := p.deps.Transactor.Exchange(ctx, req, timeout)
	if err != nil {
		return protocol.DeviceInfo{}, false, fmt.Errorf("probe: %w", err)
	}
	if !ok || len(raw) == 0 {
		return protocol.DeviceInfo{}, false, fmt.Errorf("probe: %w", protocol.ErrNoReply)
	}

	info, derr := protocol.DecodeDeviceInfo(raw)
	if derr != nil {
		p.deps.Log.Debugw("device info not decodable", "device", p.cfg.DeviceID, "err", derr)
	}
	return info, true, nil
}

// PollOnce performs exactly one poll cycle.
// Queries are independent: a failed query is recorded and the cycle continues.
// A panic is recovered and counted as a failed probe.
func (p *Poller) PollOnce(ctx context.Context) (res PollResult) {
	res = PollResult{
		DeviceID: p.cfg.DeviceID,
		At:       p.now(),
	}

	if p.deps.Disposed() {
		res.Skipped = true
		return res
	}

	defer func() {
		if r := recover(); r != nil {
			p.record(false)
			res.Reachable = false
			res.Completed = false
			res.Err = fmt.Errorf("poll cycle panic: %v", r)
			p.deps.Log.Errorw("poll cycle panic", "device", p.cfg.DeviceID, "panic", r)
		}
	}()

	_, reachable, err := p.Probe(ctx, p.cfg.ProbeTimeout)
	p.record(reachable)
	if !reachable {
		res.Err = err
		return res
	}
	res.Reachable = true

	for _, q := range Queries {
		if p.deps.Disposed() {
			return res
		}
		res.Queries = append(res.Queries, p.runQuery(ctx, q))
	}

	p.publish(channel.LastUpdate, channel.Timestamp(p.now()))
	res.Completed = true
	return res
}

func (p *Poller) runQuery(ctx context.Context, q Query) QueryResult {
	qr := QueryResult{Method: q.Method}

	req, err := protocol.StatusQuery(q.Method)
	if err != nil {
		qr.Err = err
		return qr
	}

	res, err := protocol.Call(ctx, p.deps.Transactor, q.Method, req, p.cfg.QueryTimeout)
	if err != nil {
		qr.Err = err
		p.deps.Log.Debugw("status query failed", "device", p.cfg.DeviceID, "method", q.Method, "err", err)
		return qr
	}

	for _, f := range q.Fields {
		v, ok := extract(res, f)
		if !ok {
			continue
		}
		if p.publish(f.Channel, v) {
			qr.Published++
		}
	}
	return qr
}

// record feeds the tracker and publishes the resulting health, transitions or not.
func (p *Poller) record(reachable bool) {
	snap, _ := p.deps.Tracker.Record(reachable)
	if !p.deps.Disposed() {
		p.deps.Sink.PublishStatus(snap)
	}
}

// publish forwards only while the device is live and Online.
func (p *Poller) publish(id channel.ID, v channel.Value) bool {
	if p.deps.Disposed() || p.deps.Tracker.Status() != health.Online {
		return false
	}
	p.deps.Sink.Publish(id, v)
	return true
}
