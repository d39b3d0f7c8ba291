// internal/status/snapshot.go
package status

import (
	"math"

	"github.com/tamzrod/marstek-bridge/internal/channel"
	"github.com/tamzrod/marstek-bridge/internal/health"
)

// Snapshot represents exactly what the mirror is allowed to deliver.
// It contains no logic and no memory of the past beyond current state.
type Snapshot struct {
	Health              uint16
	ConsecutiveFailures uint16
	SecondsOffline      uint16

	// indexed by slot - SlotTelemetryStart
	Telemetry [SlotTelemetryEnd - SlotTelemetryStart + 1]int16
}

// HealthCode maps a tracker status onto the register value.
func HealthCode(s health.Status) uint16 {
	switch s {
	case health.Online:
		return HealthOnline
	case health.Offline:
		return HealthOffline
	default:
		return HealthUnknown
	}
}

type telemetrySlot struct {
	slot  int
	scale float64
}

// telemetry maps mirrored channels onto their slot and scale.
var telemetry = map[channel.ID]telemetrySlot{
	channel.BatterySoc:         {SlotBatterySoc, 1},
	channel.BatteryPower:       {SlotBatteryPower, 1},
	channel.PvPower:            {SlotPvPower, 1},
	channel.OngridPower:        {SlotOngridPower, 1},
	channel.TotalMeterPower:    {SlotTotalMeterPower, 1},
	channel.BatteryTemperature: {SlotBatteryTemp, 10},
	channel.WifiRssi:           {SlotWifiRssi, 1},
}

// ApplyValue stores a channel value if it is mirrored.
// It reports whether the snapshot changed.
func (s *Snapshot) ApplyValue(id channel.ID, v channel.Value) bool {
	ts, ok := telemetry[id]
	if !ok || v.Kind != channel.KindNumber {
		return false
	}
	n := clampInt16(v.Number * ts.scale)
	i := ts.slot - SlotTelemetryStart
	if s.Telemetry[i] == n {
		return false
	}
	s.Telemetry[i] = n
	return true
}

// AddSecond advances the offline counter. It saturates at MaxSeconds.
func (s *Snapshot) AddSecond() bool {
	if s.Health != HealthOffline || s.SecondsOffline == MaxSeconds {
		return false
	}
	s.SecondsOffline++
	return true
}

func clampInt16(f float64) int16 {
	f = math.Round(f)
	switch {
	case math.IsNaN(f):
		return 0
	case f > math.MaxInt16:
		return math.MaxInt16
	case f < math.MinInt16:
		return math.MinInt16
	}
	return int16(f)
}
