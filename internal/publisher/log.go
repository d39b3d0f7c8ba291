// internal/publisher/log.go
package publisher

import (
	"github.com/tamzrod/marstek-bridge/internal/channel"
	"github.com/tamzrod/marstek-bridge/internal/health"
	"github.com/tamzrod/marstek-bridge/internal/logger"
)

// Log writes every update at debug level. Health transitions are logged by the device.
type Log struct {
	log *logger.Logger
}

func NewLog(log *logger.Logger) *Log {
	if log == nil {
		log = logger.Nop()
	}
	return &Log{log: log}
}

func (l *Log) Publish(device string, id channel.ID, v channel.Value) {
	l.log.Debugw("state update", "device", device, "channel", string(id), "value", v.String())
}

func (l *Log) PublishStatus(device string, s health.Snapshot) {
	l.log.Debugw("device status",
		"device", device,
		"status", s.Status.String(),
		"consecutive_failures", s.ConsecutiveFailures,
	)
}
