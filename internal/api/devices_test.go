// internal/api/devices_test.go
package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tamzrod/marstek-bridge/internal/channel"
	"github.com/tamzrod/marstek-bridge/internal/command"
	"github.com/tamzrod/marstek-bridge/internal/device"
	"github.com/tamzrod/marstek-bridge/internal/health"
	"github.com/tamzrod/marstek-bridge/internal/protocol"
	"github.com/tamzrod/marstek-bridge/internal/publisher"
)

// ---- mocks ----

type mockDevice struct {
	id        string
	snap      health.Snapshot
	info      *protocol.DeviceInfo
	outcome   *command.Outcome
	cmdErr    error
	refreshes int
	commands  [][2]string
}

func (m *mockDevice) ID() string              { return m.id }
func (m *mockDevice) Health() health.Snapshot { return m.snap }
func (m *mockDevice) Info() (protocol.DeviceInfo, bool) {
	if m.info == nil {
		return protocol.DeviceInfo{}, false
	}
	return *m.info, true
}
func (m *mockDevice) LastOutcome() (command.Outcome, bool) {
	if m.outcome == nil {
		return command.Outcome{}, false
	}
	return *m.outcome, true
}
func (m *mockDevice) HandleCommand(id, raw string) error {
	m.commands = append(m.commands, [2]string{id, raw})
	return m.cmdErr
}
func (m *mockDevice) Refresh() error {
	m.refreshes++
	return m.cmdErr
}

func newTestRouter(store StateReader, devs ...Device) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return NewHandler(devs, store, nil).InitRoutes()
}

func do(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	r.ServeHTTP(w, req)
	return w
}

// ---- tests ----

func TestHealth(t *testing.T) {
	r := newTestRouter(nil)
	w := do(r, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestListDevices(t *testing.T) {
	a := &mockDevice{id: "b-dev", snap: health.Snapshot{Status: health.Offline, ConsecutiveFailures: 3}}
	b := &mockDevice{id: "a-dev", snap: health.Snapshot{Status: health.Online}, info: &protocol.DeviceInfo{Device: "VenusE", IP: "10.0.0.5"}}
	r := newTestRouter(nil, a, b)

	w := do(r, http.MethodGet, "/api/v1/devices", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Devices []deviceView `json:"devices"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Devices, 2)
	assert.Equal(t, "a-dev", resp.Devices[0].ID)
	assert.Equal(t, "ONLINE", resp.Devices[0].Health.Status)
	assert.Equal(t, "VenusE", resp.Devices[0].Model)
	assert.Equal(t, "OFFLINE", resp.Devices[1].Health.Status)
	assert.Equal(t, 3, resp.Devices[1].Health.ConsecutiveFailures)
}

func TestGetState(t *testing.T) {
	store := publisher.NewStore()
	store.Publish("venus-1", channel.BatterySoc, channel.Quantity(87.5, channel.Percent))
	store.Publish("venus-1", channel.OperatingMode, channel.Text("Auto"))

	dev := &mockDevice{
		id:   "venus-1",
		snap: health.Snapshot{Status: health.Online},
		outcome: &command.Outcome{
			ID:        uuid.New(),
			Command:   "activate manual",
			Attempted: 3,
			Succeeded: 2,
			Err:       errors.New("period 1: no reply"),
		},
	}
	r := newTestRouter(store, dev)

	w := do(r, http.MethodGet, "/api/v1/devices/venus-1/state", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		ID          string                 `json:"id"`
		Health      healthView             `json:"health"`
		Values      map[string]interface{} `json:"values"`
		LastCommand outcomeView            `json:"last_command"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "venus-1", resp.ID)
	assert.Equal(t, "ONLINE", resp.Health.Status)
	assert.Equal(t, map[string]interface{}{"value": 87.5, "unit": "%"}, resp.Values["batterySoc"])
	assert.Equal(t, "Auto", resp.Values["operatingMode"])
	assert.Equal(t, 2, resp.LastCommand.Succeeded)
	assert.False(t, resp.LastCommand.OK)
	assert.NotEmpty(t, resp.LastCommand.Error)
}

func TestUnknownDevice(t *testing.T) {
	r := newTestRouter(nil, &mockDevice{id: "venus-1"})
	for _, path := range []string{"/api/v1/devices/nope/state"} {
		w := do(r, http.MethodGet, path, "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	}
	w := do(r, http.MethodPost, "/api/v1/devices/nope/commands", `{"channel":"modeSelect","value":"Auto"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPostCommand(t *testing.T) {
	dev := &mockDevice{id: "venus-1"}
	r := newTestRouter(nil, dev)

	w := do(r, http.MethodPost, "/api/v1/devices/venus-1/commands", `{"channel":"timePeriod1#start","value":"08:00"}`)
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())

	w = do(r, http.MethodPost, "/api/v1/devices/venus-1/commands", `{"channel":"passivePower","value":-1000}`)
	require.Equal(t, http.StatusAccepted, w.Code)

	w = do(r, http.MethodPost, "/api/v1/devices/venus-1/commands", `{"channel":"manualActivate","value":true}`)
	require.Equal(t, http.StatusAccepted, w.Code)

	assert.Equal(t, [][2]string{
		{"timePeriod1#start", "08:00"},
		{"passivePower", "-1000"},
		{"manualActivate", "true"},
	}, dev.commands)
}

func TestPostCommand_BadRequests(t *testing.T) {
	dev := &mockDevice{id: "venus-1"}
	r := newTestRouter(nil, dev)

	for _, body := range []string{
		`not json`,
		`{"value":"x"}`,
		`{"channel":"modeSelect"}`,
		`{"channel":"modeSelect","value":{"a":1}}`,
	} {
		w := do(r, http.MethodPost, "/api/v1/devices/venus-1/commands", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}
	assert.Empty(t, dev.commands)
}

func TestPostCommand_ErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{fmt.Errorf("%w: unknown channel", device.ErrInvalidInput), http.StatusBadRequest},
		{device.ErrDisposed, http.StatusConflict},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		dev := &mockDevice{id: "venus-1", cmdErr: tc.err}
		r := newTestRouter(nil, dev)
		w := do(r, http.MethodPost, "/api/v1/devices/venus-1/commands", `{"channel":"x","value":"1"}`)
		assert.Equal(t, tc.code, w.Code, tc.err.Error())
	}
}

func TestPostRefresh(t *testing.T) {
	dev := &mockDevice{id: "venus-1"}
	r := newTestRouter(nil, dev)

	w := do(r, http.MethodPost, "/api/v1/devices/venus-1/refresh", "")
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, 1, dev.refreshes)
}
