// internal/channel/value_test.go
package channel

import (
	"testing"
	"time"
)

func TestValueString(t *testing.T) {
	cases := map[string]Value{
		"87.5 %":               Quantity(87.5, Percent),
		"-12":                  Decimal(-12),
		"ON":                   Switch(true),
		"OFF":                  Switch(false),
		"Auto":                 Text("Auto"),
		"2026-01-02T03:04:05Z": Timestamp(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)),
	}
	for want, v := range cases {
		if got := v.String(); got != want {
			t.Fatalf("expected %q, got %q", want, got)
		}
	}
}

func TestValueJSON(t *testing.T) {
	q, ok := Quantity(300, Watt).JSON().(map[string]interface{})
	if !ok || q["value"] != 300.0 || q["unit"] != "W" {
		t.Fatalf("unexpected quantity json: %#v", Quantity(300, Watt).JSON())
	}
	if Decimal(-60).JSON() != -60.0 {
		t.Fatalf("dimensionless numbers render bare")
	}
	if Switch(true).JSON() != true {
		t.Fatalf("switch renders as bool")
	}
}

func TestPeriodID(t *testing.T) {
	if got := Period(2, PeriodWeekdays); got != "timePeriod2#weekdays" {
		t.Fatalf("unexpected id %q", got)
	}
}
