// internal/poller/poller_test.go
package poller

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/tamzrod/marstek-bridge/internal/channel"
	"github.com/tamzrod/marstek-bridge/internal/health"
	"github.com/tamzrod/marstek-bridge/internal/protocol"
)

// ---- fakes ----

type reply struct {
	raw   string
	err   error
	panic bool
}

// fakeTransactor answers per method; a method with no entry stays silent.
type fakeTransactor struct {
	mu      sync.Mutex
	replies map[string]reply
	calls   []string
}

func (f *fakeTransactor) Exchange(_ context.Context, req []byte, _ time.Duration) ([]byte, bool, error) {
	var env struct {
		Method string `json:"method"`
	}
	_ = json.Unmarshal(req, &env)

	f.mu.Lock()
	f.calls = append(f.calls, env.Method)
	r, ok := f.replies[env.Method]
	f.mu.Unlock()

	if r.panic {
		panic("exchange exploded")
	}
	if r.err != nil {
		return nil, false, r.err
	}
	if !ok {
		return nil, false, nil
	}
	return []byte(r.raw), true, nil
}

type published struct {
	id channel.ID
	v  channel.Value
}

type fakeSink struct {
	values   []published
	statuses []health.Snapshot
}

func (s *fakeSink) Publish(id channel.ID, v channel.Value) {
	s.values = append(s.values, published{id, v})
}
func (s *fakeSink) PublishStatus(snap health.Snapshot) { s.statuses = append(s.statuses, snap) }

func (s *fakeSink) count(id channel.ID) int {
	n := 0
	for _, p := range s.values {
		if p.id == id {
			n++
		}
	}
	return n
}

const deviceReply = `{"id":0,"result":{"device":"VenusC","wifi_mac":"aa"}}`

func newTestPoller(t *testing.T, tx *fakeTransactor, disposed func() bool) (*Poller, *health.Tracker, *fakeSink) {
	t.Helper()
	tr := health.NewTracker()
	sink := &fakeSink{}
	p, err := New(
		Config{DeviceID: "d1", Interval: time.Second},
		Deps{Transactor: tx, Tracker: tr, Sink: sink, Disposed: disposed},
	)
	if err != nil {
		t.Fatalf("New() err=%v", err)
	}
	return p, tr, sink
}

// ---- tests ----

func TestNew_Validation(t *testing.T) {
	if _, err := New(Config{}, Deps{}); err == nil {
		t.Fatalf("expected error for empty device id")
	}
	if _, err := New(Config{DeviceID: "d"}, Deps{Tracker: health.NewTracker()}); err == nil {
		t.Fatalf("expected error for missing transactor")
	}

	p, err := New(Config{DeviceID: "d", Interval: 10 * time.Millisecond}, Deps{
		Transactor: &fakeTransactor{},
		Tracker:    health.NewTracker(),
	})
	if err != nil {
		t.Fatalf("New() err=%v", err)
	}
	if p.Interval() != MinInterval {
		t.Fatalf("interval=%v want floor %v", p.Interval(), MinInterval)
	}
}

func TestPollOnce_BatterySocOnly(t *testing.T) {
	tx := &fakeTransactor{replies: map[string]reply{
		protocol.MethodGetDevice:    {raw: deviceReply},
		protocol.MethodBatGetStatus: {raw: `{"result":{"soc":87.5}}`},
	}}
	p, _, sink := newTestPoller(t, tx, nil)

	res := p.PollOnce(context.Background())
	if !res.Reachable || !res.Completed {
		t.Fatalf("unexpected result: %+v", res)
	}

	var battery []published
	for _, pv := range sink.values {
		if pv.id != channel.LastUpdate {
			battery = append(battery, pv)
		}
	}
	if len(battery) != 1 {
		t.Fatalf("expected exactly one field publish, got %+v", battery)
	}
	if battery[0].id != channel.BatterySoc || battery[0].v.Number != 87.5 || battery[0].v.Unit != channel.Percent {
		t.Fatalf("unexpected publish: %+v", battery[0])
	}
	if res.Queries[0].Published != 1 {
		t.Fatalf("Bat.GetStatus published=%d want 1", res.Queries[0].Published)
	}
}

func TestPollOnce_QueryOrderAndIndependence(t *testing.T) {
	tx := &fakeTransactor{replies: map[string]reply{
		protocol.MethodGetDevice:     {raw: deviceReply},
		protocol.MethodBatGetStatus:  {raw: `not json`},
		protocol.MethodPVGetStatus:   {raw: `{"id":0}`},
		protocol.MethodESGetStatus:   {err: errors.New("socket gone")},
		protocol.MethodESGetMode:     {raw: `{"result":{"mode":"Manual"}}`},
		protocol.MethodWifiGetStatus: {raw: `{"result":{"rssi":-60,"ssid":null,"sta_ip":"10.0.0.9"}}`},
		// EM.GetStatus silent
	}}
	p, _, sink := newTestPoller(t, tx, nil)

	res := p.PollOnce(context.Background())

	want := []string{
		protocol.MethodGetDevice,
		protocol.MethodBatGetStatus,
		protocol.MethodPVGetStatus,
		protocol.MethodESGetStatus,
		protocol.MethodESGetMode,
		protocol.MethodEMGetStatus,
		protocol.MethodWifiGetStatus,
	}
	if len(tx.calls) != len(want) {
		t.Fatalf("calls=%v want %v", tx.calls, want)
	}
	for i := range want {
		if tx.calls[i] != want[i] {
			t.Fatalf("call %d=%s want %s", i, tx.calls[i], want[i])
		}
	}

	if res.Failed() != 4 {
		t.Fatalf("failed=%d want 4", res.Failed())
	}
	if !errors.Is(res.Queries[0].Err, protocol.ErrDecode) {
		t.Fatalf("bat err=%v want decode error", res.Queries[0].Err)
	}
	if !errors.Is(res.Queries[4].Err, protocol.ErrNoReply) {
		t.Fatalf("em err=%v want no reply", res.Queries[4].Err)
	}
	if !res.Completed {
		t.Fatalf("cycle should complete despite query failures")
	}

	if sink.count(channel.OperatingMode) != 1 || sink.count(channel.WifiRssi) != 1 || sink.count(channel.IPAddress) != 1 {
		t.Fatalf("unexpected publishes: %+v", sink.values)
	}
	if sink.count(channel.WifiSsid) != 0 {
		t.Fatalf("null ssid must not publish")
	}
	if sink.count(channel.LastUpdate) != 1 {
		t.Fatalf("lastUpdate should be stamped once")
	}
}

func TestPollOnce_CtStateOnlyOneIsConnected(t *testing.T) {
	for _, tc := range []struct {
		raw  string
		want bool
	}{
		{`{"result":{"ct_state":1}}`, true},
		{`{"result":{"ct_state":0}}`, false},
		{`{"result":{"ct_state":2}}`, false},
		{`{"result":{"ct_state":"1"}}`, true},
	} {
		tx := &fakeTransactor{replies: map[string]reply{
			protocol.MethodGetDevice:   {raw: deviceReply},
			protocol.MethodEMGetStatus: {raw: tc.raw},
		}}
		p, _, sink := newTestPoller(t, tx, nil)
		p.PollOnce(context.Background())

		var got []published
		for _, pv := range sink.values {
			if pv.id == channel.CtState {
				got = append(got, pv)
			}
		}
		if len(got) != 1 {
			t.Fatalf("%s: ctState publishes=%d want 1", tc.raw, len(got))
		}
		if got[0].v.Kind != channel.KindSwitch || got[0].v.On != tc.want {
			t.Fatalf("%s: ctState=%+v want on=%v", tc.raw, got[0].v, tc.want)
		}
	}
}

func TestPollOnce_NoResultNoPublish(t *testing.T) {
	tx := &fakeTransactor{replies: map[string]reply{
		protocol.MethodGetDevice:    {raw: deviceReply},
		protocol.MethodBatGetStatus: {raw: `{"id":0,"error":{"code":-1}}`},
	}}
	p, _, sink := newTestPoller(t, tx, nil)

	p.PollOnce(context.Background())
	if n := len(sink.values) - sink.count(channel.LastUpdate); n != 0 {
		t.Fatalf("expected zero field publishes, got %d", n)
	}
}

func TestPollOnce_UnreachableSkipsQueries(t *testing.T) {
	tx := &fakeTransactor{replies: map[string]reply{}}
	p, tr, sink := newTestPoller(t, tx, nil)

	for i := 1; i <= health.OfflineThreshold; i++ {
		res := p.PollOnce(context.Background())
		if res.Reachable || !errors.Is(res.Err, protocol.ErrNoReply) {
			t.Fatalf("cycle %d: unexpected result %+v", i, res)
		}
	}

	if len(tx.calls) != health.OfflineThreshold {
		t.Fatalf("expected probes only, got calls=%v", tx.calls)
	}
	if tr.Status() != health.Offline {
		t.Fatalf("status=%s want OFFLINE", tr.Status())
	}
	if len(sink.values) != 0 {
		t.Fatalf("unreachable cycles must not publish")
	}
	if len(sink.statuses) != health.OfflineThreshold {
		t.Fatalf("expected one status per cycle, got %d", len(sink.statuses))
	}
	last := sink.statuses[len(sink.statuses)-1]
	if last.Status != health.Offline || last.ConsecutiveFailures != health.OfflineThreshold {
		t.Fatalf("unexpected last status %+v", last)
	}
}

func TestPollOnce_TransportErrorCountsAsUnreachable(t *testing.T) {
	tx := &fakeTransactor{replies: map[string]reply{
		protocol.MethodGetDevice: {err: errors.New("bind failed")},
	}}
	p, tr, _ := newTestPoller(t, tx, nil)
	tr.Record(true)

	res := p.PollOnce(context.Background())
	if res.Reachable || res.Err == nil {
		t.Fatalf("unexpected result: %+v", res)
	}
	if tr.Snapshot().ConsecutiveFailures != 1 {
		t.Fatalf("failures=%d want 1", tr.Snapshot().ConsecutiveFailures)
	}
}

func TestPollOnce_PanicRecoveredAsFailure(t *testing.T) {
	tx := &fakeTransactor{replies: map[string]reply{
		protocol.MethodGetDevice: {panic: true},
	}}
	p, tr, _ := newTestPoller(t, tx, nil)

	res := p.PollOnce(context.Background())
	if res.Err == nil || res.Reachable {
		t.Fatalf("expected recovered failure, got %+v", res)
	}
	if tr.Snapshot().ConsecutiveFailures != 1 {
		t.Fatalf("failures=%d want 1", tr.Snapshot().ConsecutiveFailures)
	}
}

func TestPollOnce_DisposedSkips(t *testing.T) {
	tx := &fakeTransactor{replies: map[string]reply{
		protocol.MethodGetDevice: {raw: deviceReply},
	}}
	p, tr, _ := newTestPoller(t, tx, func() bool { return true })

	res := p.PollOnce(context.Background())
	if !res.Skipped {
		t.Fatalf("expected skipped cycle")
	}
	if len(tx.calls) != 0 {
		t.Fatalf("disposed poller sent %v", tx.calls)
	}
	if tr.Status() != health.Unknown {
		t.Fatalf("disposed poller touched health")
	}
}

func TestPollOnce_EmptyProbeReplyIsUnreachable(t *testing.T) {
	tx := &fakeTransactor{replies: map[string]reply{
		protocol.MethodGetDevice: {raw: ""},
	}}
	p, _, _ := newTestPoller(t, tx, nil)

	if res := p.PollOnce(context.Background()); res.Reachable {
		t.Fatalf("empty reply must not count as reachable")
	}
}

type fakeEvery struct {
	d  time.Duration
	fn func(context.Context)
}

func (f *fakeEvery) Every(d time.Duration, fn func(context.Context)) func() {
	f.d, f.fn = d, fn
	return func() {}
}

func TestStart_RegistersInterval(t *testing.T) {
	tx := &fakeTransactor{replies: map[string]reply{}}
	p, tr, _ := newTestPoller(t, tx, nil)

	s := &fakeEvery{}
	p.Start(s)
	if s.d != time.Second || s.fn == nil {
		t.Fatalf("unexpected registration: %+v", s)
	}

	s.fn(context.Background())
	if tr.Snapshot().ConsecutiveFailures != 1 {
		t.Fatalf("registered task did not run a cycle")
	}
}
