// internal/poller/queries.go
package poller

import (
	"github.com/tamzrod/marstek-bridge/internal/channel"
	"github.com/tamzrod/marstek-bridge/internal/protocol"
)

func number(id channel.ID, key string, u channel.Unit) Field {
	return Field{Channel: id, Key: key, Kind: channel.KindNumber, Unit: u}
}

func flag(id channel.ID, key string) Field {
	return Field{Channel: id, Key: key, Kind: channel.KindSwitch}
}

// state is a switch that is on for exactly one integer code.
func state(id channel.ID, key string, on int) Field {
	return Field{Channel: id, Key: key, Kind: channel.KindSwitch, OnValue: on}
}

func text(id channel.ID, key string) Field {
	return Field{Channel: id, Key: key, Kind: channel.KindText}
}

// Queries is the fixed per-cycle query order.
var Queries = []Query{
	{
		Method: protocol.MethodBatGetStatus,
		Fields: []Field{
			number(channel.BatterySoc, "soc", channel.Percent),
			number(channel.BatteryTemperature, "bat_temp", channel.Celsius),
			number(channel.BatteryCapacity, "bat_capacity", channel.WattHour),
			number(channel.BatteryRatedCapacity, "rated_capacity", channel.WattHour),
			flag(channel.ChargingFlag, "charg_flag"),
			flag(channel.DischargingFlag, "dischrg_flag"),
		},
	},
	{
		Method: protocol.MethodPVGetStatus,
		Fields: []Field{
			number(channel.PvPower, "pv_power", channel.Watt),
			number(channel.PvVoltage, "pv_voltage", channel.Volt),
			number(channel.PvCurrent, "pv_current", channel.Ampere),
		},
	},
	{
		Method: protocol.MethodESGetStatus,
		Fields: []Field{
			number(channel.OngridPower, "ongrid_power", channel.Watt),
			number(channel.OffgridPower, "offgrid_power", channel.Watt),
			number(channel.BatteryPower, "bat_power", channel.Watt),
			number(channel.TotalPvEnergy, "total_pv_energy", channel.WattHour),
			number(channel.TotalGridOutputEnergy, "total_grid_output_energy", channel.WattHour),
			number(channel.TotalGridInputEnergy, "total_grid_input_energy", channel.WattHour),
			number(channel.TotalLoadEnergy, "total_load_energy", channel.WattHour),
		},
	},
	{
		Method: protocol.MethodESGetMode,
		Fields: []Field{
			text(channel.OperatingMode, "mode"),
		},
	},
	{
		Method: protocol.MethodEMGetStatus,
		Fields: []Field{
			state(channel.CtState, "ct_state", 1),
			number(channel.PhaseAPower, "a_power", channel.Watt),
			number(channel.PhaseBPower, "b_power", channel.Watt),
			number(channel.PhaseCPower, "c_power", channel.Watt),
			number(channel.TotalMeterPower, "total_power", channel.Watt),
		},
	},
	{
		Method: protocol.MethodWifiGetStatus,
		Fields: []Field{
			number(channel.WifiRssi, "rssi", ""),
			text(channel.WifiSsid, "ssid"),
			text(channel.IPAddress, "sta_ip"),
		},
	},
}

// extract reads f from res. ok == false means "not reported this cycle".
func extract(res protocol.Result, f Field) (channel.Value, bool) {
	switch f.Kind {
	case channel.KindNumber:
		v, ok := res.Number(f.Key)
		if !ok {
			return channel.Value{}, false
		}
		if f.Unit == "" {
			return channel.Decimal(v), true
		}
		return channel.Quantity(v, f.Unit), true
	case channel.KindSwitch:
		if f.OnValue != 0 {
			n, ok := res.Int(f.Key)
			if !ok {
				return channel.Value{}, false
			}
			return channel.Switch(n == f.OnValue), true
		}
		on, ok := res.Flag(f.Key)
		if !ok {
			return channel.Value{}, false
		}
		return channel.Switch(on), true
	case channel.KindText:
		s, ok := res.Text(f.Key)
		if !ok {
			return channel.Value{}, false
		}
		return channel.Text(s), true
	}
	return channel.Value{}, false
}
