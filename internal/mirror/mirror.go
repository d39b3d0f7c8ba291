// internal/mirror/mirror.go
package mirror

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/tamzrod/marstek-bridge/internal/channel"
	"github.com/tamzrod/marstek-bridge/internal/health"
	"github.com/tamzrod/marstek-bridge/internal/logger"
	"github.com/tamzrod/marstek-bridge/internal/status"
)

// Mirror is a publisher that keeps per-device status blocks on Modbus servers.
// Publish and PublishStatus only update in-memory snapshots; Run owns all IO.
type Mirror struct {
	mu      sync.Mutex
	devices map[string]*mirrored
	wake    chan struct{}
	log     *logger.Logger
}

type mirrored struct {
	snap   status.Snapshot
	dirty  bool
	writer *statusWriter
}

// New builds a mirror from plans. Every plan needs a client for its endpoint.
func New(plans []Plan, clients map[string]RegisterWriter, log *logger.Logger) (*Mirror, error) {
	if log == nil {
		log = logger.Nop()
	}
	m := &Mirror{
		devices: make(map[string]*mirrored, len(plans)),
		wake:    make(chan struct{}, 1),
		log:     log,
	}
	for _, p := range plans {
		cli, ok := clients[p.Endpoint]
		if !ok || cli == nil {
			return nil, fmt.Errorf("mirror: device %q: no client for endpoint %s", p.DeviceID, p.Endpoint)
		}
		if _, dup := m.devices[p.DeviceID]; dup {
			return nil, fmt.Errorf("mirror: device %q: duplicate plan", p.DeviceID)
		}
		m.devices[p.DeviceID] = &mirrored{
			snap:   status.Snapshot{Health: status.HealthUnknown},
			dirty:  true, // initial full block
			writer: newStatusWriter(p, cli),
		}
	}
	return m, nil
}

// Publish implements publisher.Publisher.
func (m *Mirror) Publish(device string, id channel.ID, v channel.Value) {
	m.update(device, func(s *status.Snapshot) bool {
		return s.ApplyValue(id, v)
	})
}

// PublishStatus implements publisher.Publisher.
func (m *Mirror) PublishStatus(device string, hs health.Snapshot) {
	m.update(device, func(s *status.Snapshot) bool {
		code := status.HealthCode(hs.Status)
		failures := uint16(min(hs.ConsecutiveFailures, status.MaxSeconds))

		changed := s.Health != code || s.ConsecutiveFailures != failures
		if s.Health != code {
			// seconds_offline counts from the transition
			s.SecondsOffline = 0
		}
		s.Health = code
		s.ConsecutiveFailures = failures
		return changed
	})
}

func (m *Mirror) update(device string, fn func(s *status.Snapshot) bool) {
	m.mu.Lock()
	d, ok := m.devices[device]
	if !ok {
		m.mu.Unlock()
		return
	}
	if fn(&d.snap) {
		d.dirty = true
	}
	m.mu.Unlock()

	select {
	case m.wake <- struct{}{}:
	default:
	}
}

// Run flushes dirty snapshots and advances the offline seconds counter at 1 Hz.
// It returns when ctx is done.
func (m *Mirror) Run(ctx context.Context) error {
	secTicker := time.NewTicker(time.Second)
	defer secTicker.Stop()

	// Full block write on start (identity re-assert).
	m.flush()

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-m.wake:
			m.flush()

		case <-secTicker.C:
			m.tick()
			m.flush()
		}
	}
}

func (m *Mirror) tick() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.devices {
		if d.snap.AddSecond() {
			d.dirty = true
		}
	}
}

// flush writes every dirty device. Failed devices stay dirty and are
// retried on the next tick with a full block.
func (m *Mirror) flush() {
	type job struct {
		id   string
		snap status.Snapshot
		d    *mirrored
	}

	m.mu.Lock()
	jobs := make([]job, 0, len(m.devices))
	for id, d := range m.devices {
		if d.dirty {
			jobs = append(jobs, job{id: id, snap: d.snap, d: d})
			d.dirty = false
		}
	}
	m.mu.Unlock()

	sort.Slice(jobs, func(i, j int) bool { return jobs[i].id < jobs[j].id })

	for _, j := range jobs {
		// writer state is only touched by the Run goroutine
		if err := j.d.writer.WriteStatus(j.snap); err != nil {
			m.log.Warnw("status mirror write failed", "device", j.id, "err", err)
			m.mu.Lock()
			j.d.dirty = true
			m.mu.Unlock()
		}
	}
}
