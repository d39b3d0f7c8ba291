// internal/publisher/fanout.go
package publisher

import (
	"github.com/tamzrod/marstek-bridge/internal/channel"
	"github.com/tamzrod/marstek-bridge/internal/health"
	"github.com/tamzrod/marstek-bridge/internal/logger"
)

// Fanout delivers every update to each publisher in order.
// A panicking publisher is logged and skipped; the others still receive the update.
type Fanout struct {
	pubs []Publisher
	log  *logger.Logger
}

func NewFanout(log *logger.Logger, pubs ...Publisher) *Fanout {
	if log == nil {
		log = logger.Nop()
	}
	out := make([]Publisher, 0, len(pubs))
	for _, p := range pubs {
		if p != nil {
			out = append(out, p)
		}
	}
	return &Fanout{pubs: out, log: log}
}

// Add appends a publisher. Not safe once publishing has started.
func (f *Fanout) Add(p Publisher) {
	if p != nil {
		f.pubs = append(f.pubs, p)
	}
}

func (f *Fanout) Publish(device string, id channel.ID, v channel.Value) {
	for _, p := range f.pubs {
		f.deliver(device, func() { p.Publish(device, id, v) })
	}
}

func (f *Fanout) PublishStatus(device string, s health.Snapshot) {
	for _, p := range f.pubs {
		f.deliver(device, func() { p.PublishStatus(device, s) })
	}
}

func (f *Fanout) deliver(device string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			f.log.Errorw("publisher panic", "device", device, "panic", r)
		}
	}()
	fn()
}
