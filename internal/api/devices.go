// internal/api/devices.go
package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tamzrod/marstek-bridge/internal/device"
	"github.com/tamzrod/marstek-bridge/internal/health"
)

// Common response/status constants to avoid magic strings and typos.
const (
	statusOK       = "ok"
	statusAccepted = "accepted"

	errInvalidBodyPref = "invalid body: "
	errDisposed        = "device is shutting down"
)

// Request DTO for a channel write.
type commandRequest struct {
	Channel string      `json:"channel" binding:"required"`
	Value   interface{} `json:"value"` // string, number or bool
}

type healthView struct {
	Status              string    `json:"status"`
	ConsecutiveFailures int       `json:"consecutive_failures"`
	Since               time.Time `json:"since"`
}

func newHealthView(s health.Snapshot) healthView {
	return healthView{
		Status:              s.Status.String(),
		ConsecutiveFailures: s.ConsecutiveFailures,
		Since:               s.Since,
	}
}

type deviceView struct {
	ID     string     `json:"id"`
	Health healthView `json:"health"`
	Model  string     `json:"model,omitempty"`
	IP     string     `json:"ip,omitempty"`
}

type outcomeView struct {
	ID        string `json:"id"`
	Command   string `json:"command"`
	Attempted int    `json:"attempted"`
	Succeeded int    `json:"succeeded"`
	OK        bool   `json:"ok"`
	Error     string `json:"error,omitempty"`
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": statusOK,
	})
}

func (h *Handler) listDevices(c *gin.Context) {
	out := make([]deviceView, 0, len(h.order))
	for _, id := range h.order {
		d := h.devices[id]
		v := deviceView{ID: id, Health: newHealthView(d.Health())}
		if info, ok := d.Info(); ok {
			v.Model = info.Device
			v.IP = info.IP
		}
		out = append(out, v)
	}
	c.JSON(http.StatusOK, gin.H{"devices": out})
}

func (h *Handler) getState(c *gin.Context) {
	d := deviceFrom(c)

	resp := gin.H{
		"id":     d.ID(),
		"health": newHealthView(d.Health()),
	}

	values := gin.H{}
	if h.state != nil {
		if st, ok := h.state.Get(d.ID()); ok {
			for id, v := range st.Values {
				values[string(id)] = v.JSON()
			}
			if !st.UpdatedAt.IsZero() {
				resp["updated_at"] = st.UpdatedAt
			}
		}
	}
	resp["values"] = values

	if out, ok := d.LastOutcome(); ok {
		ov := outcomeView{
			ID:        out.ID.String(),
			Command:   out.Command,
			Attempted: out.Attempted,
			Succeeded: out.Succeeded,
			OK:        out.OK(),
		}
		if out.Err != nil {
			ov.Error = out.Err.Error()
		}
		resp["last_command"] = ov
	}

	c.JSON(http.StatusOK, resp)
}

func (h *Handler) postCommand(c *gin.Context) {
	d := deviceFrom(c)

	var req commandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	raw, ok := rawValue(req.Value)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + "value must be a string, number or bool"})
		return
	}

	if err := d.HandleCommand(req.Channel, raw); err != nil {
		h.respondError(c, err, "channel", req.Channel)
		return
	}

	h.log.Debugw("command accepted", "device", d.ID(), "channel", req.Channel, "value", raw)
	c.JSON(http.StatusAccepted, gin.H{"status": statusAccepted})
}

func (h *Handler) postRefresh(c *gin.Context) {
	d := deviceFrom(c)
	if err := d.Refresh(); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": statusAccepted})
}

// respondError maps device errors onto HTTP codes.
func (h *Handler) respondError(c *gin.Context, err error, kv ...interface{}) {
	switch {
	case errors.Is(err, device.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, device.ErrDisposed):
		c.JSON(http.StatusConflict, gin.H{"error": errDisposed})
	default:
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw("device request failed", fields...)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func rawValue(v interface{}) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(x), true
	default:
		return "", false
	}
}
