// internal/publisher/store.go
package publisher

import (
	"sort"
	"sync"
	"time"

	"github.com/tamzrod/marstek-bridge/internal/channel"
	"github.com/tamzrod/marstek-bridge/internal/health"
)

// DeviceState is the last known state of one device.
type DeviceState struct {
	Health    health.Snapshot
	Values    map[channel.ID]channel.Value
	UpdatedAt time.Time
}

// Store keeps the last published value per device and channel.
// A field that was never published is absent; a later cycle that does not
// report a field leaves the previous value in place.
type Store struct {
	mu      sync.RWMutex
	devices map[string]*DeviceState
	now     func() time.Time
}

func NewStore() *Store {
	return &Store{
		devices: make(map[string]*DeviceState),
		now:     time.Now,
	}
}

func (s *Store) entry(device string) *DeviceState {
	st, ok := s.devices[device]
	if !ok {
		st = &DeviceState{Values: make(map[channel.ID]channel.Value)}
		s.devices[device] = st
	}
	return st
}

func (s *Store) Publish(device string, id channel.ID, v channel.Value) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.entry(device)
	st.Values[id] = v
	st.UpdatedAt = s.now()
}

func (s *Store) PublishStatus(device string, snap health.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entry(device).Health = snap
}

// Get returns a copy of one device's state.
func (s *Store) Get(device string) (DeviceState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.devices[device]
	if !ok {
		return DeviceState{}, false
	}
	out := DeviceState{
		Health:    st.Health,
		UpdatedAt: st.UpdatedAt,
		Values:    make(map[channel.ID]channel.Value, len(st.Values)),
	}
	for k, v := range st.Values {
		out.Values[k] = v
	}
	return out, true
}

// Value returns one channel value.
func (s *Store) Value(device string, id channel.ID) (channel.Value, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.devices[device]
	if !ok {
		return channel.Value{}, false
	}
	v, ok := st.Values[id]
	return v, ok
}

// Devices lists known device ids in sorted order.
func (s *Store) Devices() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.devices))
	for id := range s.devices {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
