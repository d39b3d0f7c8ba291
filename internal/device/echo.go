// internal/device/echo.go
package device

import (
	"github.com/tamzrod/marstek-bridge/internal/channel"
	"github.com/tamzrod/marstek-bridge/internal/command"
)

// echo republishes an accepted input so readers see the stored value.
// Local state is not gated on health, only on dispose.
func (d *Device) echo(in command.Input) {
	if d.disposed.Load() {
		return
	}

	switch in.Kind {
	case command.KindModeSelect:
		d.sink.Publish(channel.ModeSelect, channel.Text(string(in.Mode)))
	case command.KindPassivePower:
		d.sink.Publish(channel.PassivePower, channel.Quantity(float64(in.Power), channel.Watt))
	case command.KindPassiveCountdown:
		d.sink.Publish(channel.PassiveCountdown, channel.Quantity(float64(in.Countdown), channel.Second))
	case command.KindPassiveActivate:
		d.sink.Publish(channel.PassiveActivate, channel.Switch(in.On))
	case command.KindManualActivate:
		d.sink.Publish(channel.ManualActivate, channel.Switch(in.On))
	case command.KindPeriod:
		id := channel.Period(in.Period, in.Field.Channel())
		switch in.Field {
		case command.FieldEnabled:
			d.sink.Publish(id, channel.Switch(in.On))
		case command.FieldStart, command.FieldEnd:
			d.sink.Publish(id, channel.Text(in.Time))
		case command.FieldWeekdays:
			d.sink.Publish(id, channel.Text(command.FormatWeekdays(in.Weekdays)))
		case command.FieldPower:
			d.sink.Publish(id, channel.Quantity(float64(in.Power), channel.Watt))
		}
	}
}
