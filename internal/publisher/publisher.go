// internal/publisher/publisher.go
package publisher

import (
	"github.com/tamzrod/marstek-bridge/internal/channel"
	"github.com/tamzrod/marstek-bridge/internal/health"
)

// Publisher receives state updates for any number of devices.
// Implementations must be safe for concurrent use: poll and command tasks publish in parallel.
type Publisher interface {
	Publish(device string, id channel.ID, v channel.Value)
	PublishStatus(device string, s health.Snapshot)
}

// Sink is a Publisher bound to one device.
type Sink interface {
	Publish(id channel.ID, v channel.Value)
	PublishStatus(s health.Snapshot)
}

type boundSink struct {
	device string
	pub    Publisher
}

// Bind returns a Sink that forwards to p under the given device id.
func Bind(device string, p Publisher) Sink {
	if p == nil {
		p = Discard
	}
	return boundSink{device: device, pub: p}
}

func (b boundSink) Publish(id channel.ID, v channel.Value) { b.pub.Publish(b.device, id, v) }
func (b boundSink) PublishStatus(s health.Snapshot)        { b.pub.PublishStatus(b.device, s) }

type discard struct{}

func (discard) Publish(string, channel.ID, channel.Value) {}
func (discard) PublishStatus(string, health.Snapshot)     {}

// Discard drops everything.
var Discard Publisher = discard{}
