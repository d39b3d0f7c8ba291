// internal/status/constants.go
package status

// Device Status Block layout constants.
// These values define the mirror protocol and MUST NOT be configurable.

// ---- BLOCK GEOMETRY ----

// SlotsPerDevice is the fixed number of logical slots per device.
const SlotsPerDevice = 20

// MaxBaseSlot is the last block index that fits the 16-bit register space.
const MaxBaseSlot = (0xFFFF+1)/SlotsPerDevice - 1

// BlockAddress is the first register of the block at baseSlot.
func BlockAddress(baseSlot uint16) uint16 {
	return baseSlot * SlotsPerDevice
}

// ---- SLOT INDICES ----

// SlotHealthCode holds the device health state.
const SlotHealthCode = 0

// SlotConsecutiveFailures holds the failed-probe streak.
const SlotConsecutiveFailures = 1

// SlotSecondsOffline holds the duration (in seconds) the device has been offline.
const SlotSecondsOffline = 2

// ---- TELEMETRY ----

// Telemetry slots carry int16 values in two's complement.
const (
	SlotBatterySoc      = 3  // %
	SlotBatteryPower    = 4  // W
	SlotPvPower         = 5  // W
	SlotOngridPower     = 6  // W
	SlotTotalMeterPower = 7  // W
	SlotBatteryTemp     = 8  // 0.1 °C
	SlotWifiRssi        = 9  // dBm
	SlotReserved        = 10 // always 0
)

const SlotTelemetryStart = SlotBatterySoc
const SlotTelemetryEnd = SlotReserved

// ---- DEVICE NAME ----

// SlotDeviceNameStart is the first slot used for the device name.
// Device name is always placed at the END of the status block.
const SlotDeviceNameStart = 11

// SlotDeviceNameSlots is the number of slots reserved for the device name.
const SlotDeviceNameSlots = 8

// SlotDeviceNameEnd is the last slot used for the device name (inclusive).
const SlotDeviceNameEnd = SlotDeviceNameStart + SlotDeviceNameSlots - 1

// ---- LIMITS ----

// DeviceNameMaxChars is the maximum number of ASCII characters stored for device name.
const DeviceNameMaxChars = 16

// MaxSeconds is where the offline counter saturates.
const MaxSeconds = 0xFFFF

// ---- HEALTH CODES ----

// HealthUnknown represents the boot state before the first probe.
const HealthUnknown uint16 = 0

// HealthOnline represents a reachable device.
const HealthOnline uint16 = 1

// HealthOffline represents a device that missed enough probes.
const HealthOffline uint16 = 2
