// internal/command/weekdays.go
package command

import (
	"fmt"
	"strconv"
	"strings"
)

// Weekday bits, Monday first.
const (
	Mon uint8 = 1 << iota
	Tue
	Wed
	Thu
	Fri
	Sat
	Sun
)

const (
	Weekdays    = Mon | Tue | Wed | Thu | Fri // 31
	Weekend     = Sat | Sun                   // 96
	EveryDay    = Weekdays | Weekend          // 127
	weekdayMask = EveryDay
)

var dayCodes = []string{"mon", "tue", "wed", "thu", "fri", "sat", "sun"}

var dayNames = map[string]int{
	"monday":    0,
	"tuesday":   1,
	"wednesday": 2,
	"thursday":  3,
	"friday":    4,
	"saturday":  5,
	"sunday":    6,
}

// ParseWeekdays converts a weekday expression into the week_set bitmask.
//
// Accepted (case-insensitive): "Daily", "Weekend", "Mon-Fri", comma separated
// three-letter codes or full names ("Mon,Wed,Fri"), and a plain number 0..127.
func ParseWeekdays(s string) (uint8, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("weekdays: empty")
	}

	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 || n > int(weekdayMask) {
			return 0, fmt.Errorf("weekdays: bitmask %d out of range 0..127", n)
		}
		return uint8(n), nil
	}

	var mask uint8
	for _, tok := range strings.Split(s, ",") {
		tok = strings.ToLower(strings.TrimSpace(tok))
		if tok == "" {
			continue
		}
		bits, err := parseDayToken(tok)
		if err != nil {
			return 0, err
		}
		mask |= bits
	}
	if mask == 0 {
		return 0, fmt.Errorf("weekdays: no day in %q", s)
	}
	return mask, nil
}

func parseDayToken(tok string) (uint8, error) {
	switch tok {
	case "daily", "everyday", "all":
		return EveryDay, nil
	case "weekend":
		return Weekend, nil
	case "weekdays", "workdays":
		return Weekdays, nil
	}

	if from, to, ok := strings.Cut(tok, "-"); ok {
		a, err := dayIndex(from)
		if err != nil {
			return 0, err
		}
		b, err := dayIndex(to)
		if err != nil {
			return 0, err
		}
		if a > b {
			return 0, fmt.Errorf("weekdays: range %q runs backwards", tok)
		}
		var bits uint8
		for i := a; i <= b; i++ {
			bits |= 1 << i
		}
		return bits, nil
	}

	i, err := dayIndex(tok)
	if err != nil {
		return 0, err
	}
	return 1 << i, nil
}

func dayIndex(tok string) (int, error) {
	tok = strings.TrimSpace(tok)
	for i, code := range dayCodes {
		if tok == code {
			return i, nil
		}
	}
	if i, ok := dayNames[tok]; ok {
		return i, nil
	}
	return 0, fmt.Errorf("weekdays: unknown day %q", tok)
}

// FormatWeekdays renders a bitmask the way ParseWeekdays reads it back.
func FormatWeekdays(mask uint8) string {
	switch mask & weekdayMask {
	case EveryDay:
		return "Daily"
	case Weekend:
		return "Weekend"
	case Weekdays:
		return "Mon-Fri"
	case 0:
		return ""
	}
	var parts []string
	for i, code := range dayCodes {
		if mask&(1<<i) != 0 {
			parts = append(parts, strings.ToUpper(code[:1])+code[1:])
		}
	}
	return strings.Join(parts, ",")
}
