// internal/publisher/publisher_test.go
package publisher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tamzrod/marstek-bridge/internal/channel"
	"github.com/tamzrod/marstek-bridge/internal/health"
	"github.com/tamzrod/marstek-bridge/internal/logger"
)

type panicPublisher struct{}

func (panicPublisher) Publish(string, channel.ID, channel.Value) { panic("boom") }
func (panicPublisher) PublishStatus(string, health.Snapshot)     { panic("boom") }

func TestStore_KeepsLastValuePerChannel(t *testing.T) {
	s := NewStore()
	s.Publish("d1", channel.BatterySoc, channel.Quantity(50, channel.Percent))
	s.Publish("d1", channel.BatterySoc, channel.Quantity(51, channel.Percent))
	s.Publish("d1", channel.PvPower, channel.Quantity(300, channel.Watt))
	s.PublishStatus("d1", health.Snapshot{Status: health.Online})

	st, ok := s.Get("d1")
	require.True(t, ok)
	assert.Equal(t, health.Online, st.Health.Status)
	assert.Len(t, st.Values, 2)
	assert.Equal(t, 51.0, st.Values[channel.BatterySoc].Number)

	_, ok = s.Value("d1", channel.WifiSsid)
	assert.False(t, ok)

	_, ok = s.Get("d2")
	assert.False(t, ok)
	assert.Equal(t, []string{"d1"}, s.Devices())
}

func TestStore_GetReturnsCopy(t *testing.T) {
	s := NewStore()
	s.Publish("d1", channel.WifiSsid, channel.Text("home"))

	st, _ := s.Get("d1")
	st.Values[channel.WifiSsid] = channel.Text("changed")

	v, _ := s.Value("d1", channel.WifiSsid)
	assert.Equal(t, "home", v.Text)
}

func TestFanout_IsolatesPanics(t *testing.T) {
	store := NewStore()
	f := NewFanout(logger.Nop(), panicPublisher{}, store, nil)

	f.Publish("d1", channel.CtState, channel.Switch(true))
	f.PublishStatus("d1", health.Snapshot{Status: health.Offline})

	v, ok := store.Value("d1", channel.CtState)
	require.True(t, ok)
	assert.True(t, v.On)

	st, _ := store.Get("d1")
	assert.Equal(t, health.Offline, st.Health.Status)
}

func TestBind(t *testing.T) {
	store := NewStore()
	sink := Bind("venus", store)
	sink.Publish(channel.OperatingMode, channel.Text("Auto"))

	v, ok := store.Value("venus", channel.OperatingMode)
	require.True(t, ok)
	assert.Equal(t, "Auto", v.Text)

	// nil publisher is tolerated
	Bind("x", nil).Publish(channel.OperatingMode, channel.Text("AI"))
}
