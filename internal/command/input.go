// internal/command/input.go
package command

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/tamzrod/marstek-bridge/internal/channel"
)

// Kind tags the variant of an Input.
type Kind uint8

const (
	KindModeSelect Kind = iota + 1
	KindPassivePower
	KindPassiveCountdown
	KindPassiveActivate
	KindManualActivate
	KindPeriod
)

func (k Kind) String() string {
	switch k {
	case KindModeSelect:
		return "MODE_SELECT"
	case KindPassivePower:
		return "PASSIVE_POWER"
	case KindPassiveCountdown:
		return "PASSIVE_COUNTDOWN"
	case KindPassiveActivate:
		return "PASSIVE_ACTIVATE"
	case KindManualActivate:
		return "MANUAL_ACTIVATE"
	case KindPeriod:
		return "PERIOD"
	default:
		return "UNKNOWN"
	}
}

// PeriodField selects the member of a Period an input writes.
type PeriodField uint8

const (
	FieldEnabled PeriodField = iota + 1
	FieldStart
	FieldEnd
	FieldWeekdays
	FieldPower
)

// Channel is the period channel field name.
func (f PeriodField) Channel() string {
	switch f {
	case FieldEnabled:
		return channel.PeriodEnabled
	case FieldStart:
		return channel.PeriodStart
	case FieldEnd:
		return channel.PeriodEnd
	case FieldWeekdays:
		return channel.PeriodWeekdays
	case FieldPower:
		return channel.PeriodPower
	default:
		return ""
	}
}

// Mode is a selectable operating mode.
type Mode string

const (
	ModeAuto Mode = "Auto"
	ModeAI   Mode = "AI"
	ModeUPS  Mode = "UPS" // client-side alias, see protocol.UPSMode
)

// Input is one parsed control event. Only the members matching Kind
// (and Field for KindPeriod) are meaningful.
type Input struct {
	Kind      Kind
	Mode      Mode
	Power     int
	Countdown int
	On        bool

	Period   int
	Field    PeriodField
	Time     string
	Weekdays uint8
}

// ParseInput turns a channel id and its raw value into a typed Input.
//
// Period channels are "timePeriod<N>#<field>" with N in 0..3.
func ParseInput(id string, raw string) (Input, error) {
	raw = strings.TrimSpace(raw)

	switch channel.ID(id) {
	case channel.ModeSelect:
		m, err := parseMode(raw)
		return Input{Kind: KindModeSelect, Mode: m}, err
	case channel.PassivePower:
		w, err := parsePower(raw)
		return Input{Kind: KindPassivePower, Power: w}, err
	case channel.PassiveCountdown:
		sec, err := parseSeconds(raw)
		return Input{Kind: KindPassiveCountdown, Countdown: sec}, err
	case channel.PassiveActivate:
		on, err := parseSwitch(raw)
		return Input{Kind: KindPassiveActivate, On: on}, err
	case channel.ManualActivate:
		on, err := parseSwitch(raw)
		return Input{Kind: KindManualActivate, On: on}, err
	}

	if strings.HasPrefix(id, channel.PeriodGroupPrefix) {
		return parsePeriodInput(id, raw)
	}
	return Input{}, fmt.Errorf("unknown channel %q", id)
}

func parsePeriodInput(id, raw string) (Input, error) {
	group, field, ok := strings.Cut(id, "#")
	if !ok {
		return Input{}, fmt.Errorf("channel %q: missing #field", id)
	}
	idx, err := strconv.Atoi(strings.TrimPrefix(group, channel.PeriodGroupPrefix))
	if err != nil || idx < 0 || idx >= PeriodCount {
		return Input{}, fmt.Errorf("channel %q: period index must be 0..%d", id, PeriodCount-1)
	}

	in := Input{Kind: KindPeriod, Period: idx}
	switch field {
	case channel.PeriodEnabled:
		in.Field = FieldEnabled
		in.On, err = parseSwitch(raw)
	case channel.PeriodStart:
		in.Field = FieldStart
		in.Time, err = ParseClock(raw)
	case channel.PeriodEnd:
		in.Field = FieldEnd
		in.Time, err = ParseClock(raw)
	case channel.PeriodWeekdays:
		in.Field = FieldWeekdays
		in.Weekdays, err = ParseWeekdays(raw)
	case channel.PeriodPower:
		in.Field = FieldPower
		in.Power, err = parsePower(raw)
	default:
		return Input{}, fmt.Errorf("channel %q: unknown period field %q", id, field)
	}
	if err != nil {
		return Input{}, fmt.Errorf("channel %q: %w", id, err)
	}
	return in, nil
}

func parseMode(raw string) (Mode, error) {
	switch strings.ToLower(raw) {
	case "auto":
		return ModeAuto, nil
	case "ai":
		return ModeAI, nil
	case "ups":
		return ModeUPS, nil
	}
	return "", fmt.Errorf("unknown mode %q (want Auto, AI or UPS)", raw)
}

func parseSwitch(raw string) (bool, error) {
	switch strings.ToLower(raw) {
	case "on", "true", "1":
		return true, nil
	case "off", "false", "0":
		return false, nil
	}
	return false, fmt.Errorf("invalid switch value %q", raw)
}

// parsePower accepts "-1000", "-1000 W", "1.5kW".
func parsePower(raw string) (int, error) {
	s := strings.ToLower(strings.ReplaceAll(raw, " ", ""))
	scale := 1.0
	switch {
	case strings.HasSuffix(s, "kw"):
		scale = 1000
		s = strings.TrimSuffix(s, "kw")
	case strings.HasSuffix(s, "w"):
		s = strings.TrimSuffix(s, "w")
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("invalid power %q", raw)
	}
	return int(math.Round(f * scale)), nil
}

// parseSeconds accepts "300", "300 s" and Go durations like "5m".
func parseSeconds(raw string) (int, error) {
	s := strings.ToLower(strings.ReplaceAll(raw, " ", ""))
	if n, err := strconv.Atoi(strings.TrimSuffix(s, "s")); err == nil {
		if n < 0 {
			return 0, fmt.Errorf("negative countdown %q", raw)
		}
		return n, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("invalid countdown %q", raw)
	}
	return int(d / time.Second), nil
}

// ParseClock validates and normalizes an HH:MM time of day ("8:05" -> "08:05").
func ParseClock(raw string) (string, error) {
	h, m, ok := strings.Cut(strings.TrimSpace(raw), ":")
	if !ok {
		return "", fmt.Errorf("invalid time %q (want HH:MM)", raw)
	}
	hh, err1 := strconv.Atoi(h)
	mm, err2 := strconv.Atoi(m)
	if err1 != nil || err2 != nil || len(m) != 2 || hh < 0 || hh > 23 || mm < 0 || mm > 59 {
		return "", fmt.Errorf("invalid time %q (want HH:MM)", raw)
	}
	return fmt.Sprintf("%02d:%02d", hh, mm), nil
}

// Apply stores a settings input. It reports false for inputs that trigger commands.
func (in Input) Apply(s *Settings) (bool, error) {
	switch in.Kind {
	case KindPassivePower:
		s.SetPassivePower(in.Power)
	case KindPassiveCountdown:
		s.SetPassiveCountdown(in.Countdown)
	case KindPeriod:
		return true, s.UpdatePeriod(in.Period, func(p *Period) {
			switch in.Field {
			case FieldEnabled:
				p.Enabled = in.On
			case FieldStart:
				p.Start = in.Time
			case FieldEnd:
				p.End = in.Time
			case FieldWeekdays:
				p.Weekdays = in.Weekdays
			case FieldPower:
				p.Power = in.Power
			}
		})
	default:
		return false, nil
	}
	return true, nil
}
