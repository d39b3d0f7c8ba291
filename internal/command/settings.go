// internal/command/settings.go
package command

import (
	"fmt"
	"sync"
)

// PeriodCount is fixed by the protocol: manual_cfg.time_num is 0..3.
const PeriodCount = 4

// DefaultCountdown is the passive countdown used until one is set.
const DefaultCountdown = 300

// Period is one manual-mode schedule slot.
type Period struct {
	Enabled  bool
	Start    string // HH:MM
	End      string // HH:MM
	Weekdays uint8  // bit0 = Monday ... bit6 = Sunday
	Power    int    // watts, negative discharges
}

// DefaultPeriod is the disabled, all-zero slot.
func DefaultPeriod() Period {
	return Period{Start: "00:00", End: "00:00"}
}

// Passive is the power/countdown pair pushed on passive activation.
type Passive struct {
	Power     int // watts
	Countdown int // seconds
}

// Settings holds control-channel input for one device. Last write wins.
// Lives for the process lifetime only.
type Settings struct {
	mu      sync.Mutex
	passive Passive
	periods [PeriodCount]Period
}

func NewSettings() *Settings {
	s := &Settings{passive: Passive{Countdown: DefaultCountdown}}
	for i := range s.periods {
		s.periods[i] = DefaultPeriod()
	}
	return s
}

func (s *Settings) Passive() Passive {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.passive
}

func (s *Settings) SetPassivePower(w int) {
	s.mu.Lock()
	s.passive.Power = w
	s.mu.Unlock()
}

func (s *Settings) SetPassiveCountdown(sec int) {
	s.mu.Lock()
	s.passive.Countdown = sec
	s.mu.Unlock()
}

// Periods returns a copy of all slots.
func (s *Settings) Periods() [PeriodCount]Period {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.periods
}

// UpdatePeriod mutates slot i under the lock.
func (s *Settings) UpdatePeriod(i int, fn func(p *Period)) error {
	if i < 0 || i >= PeriodCount {
		return fmt.Errorf("period index %d out of range 0..%d", i, PeriodCount-1)
	}
	s.mu.Lock()
	fn(&s.periods[i])
	s.mu.Unlock()
	return nil
}
