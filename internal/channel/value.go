// internal/channel/value.go
package channel

import (
	"fmt"
	"strconv"
	"time"
)

// Kind tags which member of Value is meaningful.
type Kind uint8

const (
	KindNumber Kind = iota + 1
	KindSwitch
	KindText
	KindTime
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindSwitch:
		return "switch"
	case KindText:
		return "text"
	case KindTime:
		return "time"
	default:
		return "unknown"
	}
}

// Unit is the unit of measurement attached to a number.
// Empty means dimensionless.
type Unit string

const (
	Percent  Unit = "%"
	Celsius  Unit = "°C"
	WattHour Unit = "Wh"
	Watt     Unit = "W"
	Volt     Unit = "V"
	Ampere   Unit = "A"
	Second   Unit = "s"
)

// Value is one typed state update.
type Value struct {
	Kind   Kind
	Number float64
	Unit   Unit
	On     bool
	Text   string
	Time   time.Time
}

func Quantity(v float64, u Unit) Value { return Value{Kind: KindNumber, Number: v, Unit: u} }
func Decimal(v float64) Value          { return Value{Kind: KindNumber, Number: v} }
func Switch(on bool) Value             { return Value{Kind: KindSwitch, On: on} }
func Text(s string) Value              { return Value{Kind: KindText, Text: s} }
func Timestamp(t time.Time) Value      { return Value{Kind: KindTime, Time: t} }

// String renders the value the way a UI item would show it.
func (v Value) String() string {
	switch v.Kind {
	case KindNumber:
		s := strconv.FormatFloat(v.Number, 'f', -1, 64)
		if v.Unit != "" {
			return s + " " + string(v.Unit)
		}
		return s
	case KindSwitch:
		if v.On {
			return "ON"
		}
		return "OFF"
	case KindText:
		return v.Text
	case KindTime:
		return v.Time.Format(time.RFC3339)
	default:
		return fmt.Sprintf("<%s>", v.Kind)
	}
}

// JSON returns a representation suitable for API responses.
func (v Value) JSON() interface{} {
	switch v.Kind {
	case KindNumber:
		if v.Unit == "" {
			return v.Number
		}
		return map[string]interface{}{"value": v.Number, "unit": string(v.Unit)}
	case KindSwitch:
		return v.On
	case KindText:
		return v.Text
	case KindTime:
		return v.Time.Format(time.RFC3339)
	default:
		return nil
	}
}
