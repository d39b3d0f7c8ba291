// internal/channel/channel.go
package channel

import "strconv"

// ID identifies one published field or one command input.
type ID string

// ---- battery ----

const (
	BatterySoc           ID = "batterySoc"
	BatteryTemperature   ID = "batteryTemperature"
	BatteryCapacity      ID = "batteryCapacity"
	BatteryRatedCapacity ID = "batteryRatedCapacity"
	ChargingFlag         ID = "chargingFlag"
	DischargingFlag      ID = "dischargingFlag"
)

// ---- pv ----

const (
	PvPower   ID = "pvPower"
	PvVoltage ID = "pvVoltage"
	PvCurrent ID = "pvCurrent"
)

// ---- energy system ----

const (
	OngridPower           ID = "ongridPower"
	OffgridPower          ID = "offgridPower"
	BatteryPower          ID = "batteryPower"
	TotalPvEnergy         ID = "totalPvEnergy"
	TotalGridOutputEnergy ID = "totalGridOutputEnergy"
	TotalGridInputEnergy  ID = "totalGridInputEnergy"
	TotalLoadEnergy       ID = "totalLoadEnergy"
	OperatingMode         ID = "operatingMode"
)

// ---- energy meter ----

const (
	CtState         ID = "ctState"
	PhaseAPower     ID = "phaseAPower"
	PhaseBPower     ID = "phaseBPower"
	PhaseCPower     ID = "phaseCPower"
	TotalMeterPower ID = "totalMeterPower"
)

// ---- wifi ----

const (
	WifiRssi  ID = "wifiRssi"
	WifiSsid  ID = "wifiSsid"
	IPAddress ID = "ipAddress"
)

// ---- general ----

const LastUpdate ID = "lastUpdate"

// ---- control (writable) ----

const (
	ModeSelect       ID = "modeSelect"
	PassivePower     ID = "passivePower"
	PassiveCountdown ID = "passiveCountdown"
	PassiveActivate  ID = "passiveActivate"
	ManualActivate   ID = "manualActivate"
)

// Time period channels are addressed as "timePeriod<N>#<field>".
const (
	PeriodGroupPrefix = "timePeriod"
	PeriodEnabled     = "enabled"
	PeriodStart       = "start"
	PeriodEnd         = "end"
	PeriodWeekdays    = "weekdays"
	PeriodPower       = "power"
)

// Period returns the channel id of one field of time period index.
func Period(index int, field string) ID {
	return ID(PeriodGroupPrefix + strconv.Itoa(index) + "#" + field)
}
