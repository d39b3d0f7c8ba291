// internal/config/validate.go
package config

import (
	"errors"
	"fmt"
	"net"

	"github.com/tamzrod/marstek-bridge/internal/logger"
	"github.com/tamzrod/marstek-bridge/internal/status"
)

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("config is nil")
	}

	if cfg.LogLevel != "" && !logger.ValidLevel(cfg.LogLevel) {
		return fmt.Errorf("log_level %q: want debug, info, warn or error", cfg.LogLevel)
	}

	if len(cfg.Devices) == 0 {
		return errors.New("no devices configured")
	}

	// ------------------------------------------------------------
	// DEVICE IDENTITY + ENDPOINT
	// ------------------------------------------------------------

	ids := make(map[string]struct{}, len(cfg.Devices))

	for i, d := range cfg.Devices {
		if d.ID == "" {
			return fmt.Errorf("device #%d: id is required", i)
		}
		if _, dup := ids[d.ID]; dup {
			return fmt.Errorf("device %q: duplicate id", d.ID)
		}
		ids[d.ID] = struct{}{}

		if d.Host == "" {
			return fmt.Errorf("device %q: host is required", d.ID)
		}
		if d.Port < 0 || d.Port > 65535 {
			return fmt.Errorf("device %q: port %d out of range", d.ID, d.Port)
		}
		if d.LocalPort < 0 || d.LocalPort > 65535 {
			return fmt.Errorf("device %q: local_port %d out of range", d.ID, d.LocalPort)
		}
		if d.RefreshIntervalS < 0 {
			return fmt.Errorf("device %q: refresh_interval_s must not be negative", d.ID)
		}

		// name sanity (ASCII only)
		for j := 0; j < len(d.Name); j++ {
			if d.Name[j] > 0x7F {
				return fmt.Errorf("device %q: name must contain ASCII characters only", d.ID)
			}
		}
	}

	// ------------------------------------------------------------
	// STATUS MIRROR VALIDATION (PER-DEVICE, OPT-IN)
	// ------------------------------------------------------------

	// key = endpoint | unit_id | base_slot
	slotOwner := make(map[string]string)

	for _, d := range cfg.Devices {
		m := d.Mirror
		if m == nil {
			continue
		}

		if m.Endpoint == "" {
			return fmt.Errorf("device %q: mirror.endpoint is required", d.ID)
		}
		if _, _, err := net.SplitHostPort(m.Endpoint); err != nil {
			return fmt.Errorf("device %q: mirror.endpoint %q: %w", d.ID, m.Endpoint, err)
		}
		if m.TimeoutMs < 0 {
			return fmt.Errorf("device %q: mirror.timeout_ms must not be negative", d.ID)
		}
		// each slot is one SlotsPerDevice block
		if int(m.BaseSlot) > status.MaxBaseSlot {
			return fmt.Errorf("device %q: mirror.base_slot %d out of range 0..%d", d.ID, m.BaseSlot, status.MaxBaseSlot)
		}

		key := fmt.Sprintf("%s|%d|%d", m.Endpoint, m.UnitID, m.BaseSlot)

		if prev, exists := slotOwner[key]; exists {
			return fmt.Errorf(
				"mirror slot collision: endpoint=%s unit_id=%d base_slot=%d used by devices %q and %q",
				m.Endpoint,
				m.UnitID,
				m.BaseSlot,
				prev,
				d.ID,
			)
		}

		slotOwner[key] = d.ID
	}

	return nil
}
