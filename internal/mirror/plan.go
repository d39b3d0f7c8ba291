// internal/mirror/plan.go
package mirror

import (
	"errors"
	"time"

	"github.com/tamzrod/marstek-bridge/internal/config"
	mmodbus "github.com/tamzrod/marstek-bridge/internal/mirror/modbus"
)

// Plan is where one device's status block lives.
type Plan struct {
	DeviceID string
	Name     string
	Endpoint string
	UnitID   uint8
	BaseSlot uint16
}

// BuildPlans converts device configs into mirror plans.
// Devices without a mirror block are skipped.
// Assumes config has already passed validation and normalization.
func BuildPlans(devices []config.DeviceConfig) ([]Plan, error) {
	var plans []Plan
	for _, d := range devices {
		if d.Mirror == nil {
			continue
		}
		if d.ID == "" {
			return nil, errors.New("mirror: device.id required")
		}
		plans = append(plans, Plan{
			DeviceID: d.ID,
			Name:     d.Name,
			Endpoint: d.Mirror.Endpoint,
			UnitID:   d.Mirror.UnitID,
			BaseSlot: d.Mirror.BaseSlot,
		})
	}
	return plans, nil
}

// BuildEndpointClients creates one TCP client per unique mirror endpoint.
func BuildEndpointClients(devices []config.DeviceConfig) (map[string]RegisterWriter, func() error, error) {
	timeouts := map[string]time.Duration{}
	for _, d := range devices {
		if d.Mirror == nil {
			continue
		}
		// devices sharing an endpoint share the longest timeout
		t := time.Duration(d.Mirror.TimeoutMs) * time.Millisecond
		if t > timeouts[d.Mirror.Endpoint] {
			timeouts[d.Mirror.Endpoint] = t
		}
	}

	clients := make(map[string]RegisterWriter)
	var closers []func() error

	for endpoint, timeout := range timeouts {
		c, err := mmodbus.NewEndpointClient(mmodbus.Config{
			Endpoint:    endpoint,
			Timeout:     timeout,
			IdleTimeout: time.Minute,
		})
		if err != nil {
			for _, fn := range closers {
				_ = fn()
			}
			return nil, nil, err
		}
		clients[endpoint] = c
		closers = append(closers, c.Close)
	}

	closeAll := func() error {
		var last error
		for _, fn := range closers {
			if err := fn(); err != nil {
				last = err
			}
		}
		return last
	}

	return clients, closeAll, nil
}
