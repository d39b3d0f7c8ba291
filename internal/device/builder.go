// internal/device/builder.go
package device

import (
	"time"

	"github.com/tamzrod/marstek-bridge/internal/config"
	"github.com/tamzrod/marstek-bridge/internal/logger"
	"github.com/tamzrod/marstek-bridge/internal/publisher"
	"github.com/tamzrod/marstek-bridge/internal/udp"
)

// Build converts one device config into a Device talking UDP.
// Assumes config has already passed validation and normalization.
func Build(dc config.DeviceConfig, sched Scheduler, pub publisher.Publisher, log *logger.Logger) (*Device, error) {
	return New(
		Config{
			ID:              dc.ID,
			Endpoint:        udp.Endpoint{Host: dc.Host, Port: dc.Port},
			LocalPort:       dc.LocalPort,
			RefreshInterval: time.Duration(dc.RefreshIntervalS) * time.Second,
		},
		Deps{
			Scheduler: sched,
			Publisher: pub,
			Log:       log,
		},
	)
}

// BuildAll builds every configured device, in config order.
func BuildAll(devices []config.DeviceConfig, sched Scheduler, pub publisher.Publisher, log *logger.Logger) ([]*Device, error) {
	out := make([]*Device, 0, len(devices))
	for _, dc := range devices {
		d, err := Build(dc, sched, pub, log)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}
