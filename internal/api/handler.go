// internal/api/handler.go
package api

import (
	"sort"

	"github.com/gin-gonic/gin"

	"github.com/tamzrod/marstek-bridge/internal/command"
	"github.com/tamzrod/marstek-bridge/internal/health"
	"github.com/tamzrod/marstek-bridge/internal/logger"
	"github.com/tamzrod/marstek-bridge/internal/protocol"
	"github.com/tamzrod/marstek-bridge/internal/publisher"
)

// Device is the part of a device handler the HTTP layer drives.
// *device.Device satisfies it.
type Device interface {
	ID() string
	Health() health.Snapshot
	Info() (protocol.DeviceInfo, bool)
	LastOutcome() (command.Outcome, bool)
	HandleCommand(channelID, raw string) error
	Refresh() error
}

// StateReader exposes the last published values.
type StateReader interface {
	Get(device string) (publisher.DeviceState, bool)
}

// Handler wires the HTTP layer to devices and logging.
type Handler struct {
	devices map[string]Device
	order   []string
	state   StateReader
	log     *logger.Logger
}

// NewHandler constructs a new HTTP handler with dependencies.
func NewHandler(devices []Device, state StateReader, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.Nop()
	}
	h := &Handler{
		devices: make(map[string]Device, len(devices)),
		state:   state,
		log:     log,
	}
	for _, d := range devices {
		h.devices[d.ID()] = d
		h.order = append(h.order, d.ID())
	}
	sort.Strings(h.order)
	return h
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	// Health endpoint
	router.GET("/health", h.health)

	// Versioned API endpoints
	h.registerAPIRoutes(router)

	return router
}

func (h *Handler) registerAPIRoutes(r *gin.Engine) {
	api := r.Group("/api/v1")
	{
		api.GET("/devices", h.listDevices)

		dev := api.Group("/devices/:id", h.deviceMiddleware)
		{
			dev.GET("/state", h.getState)
			// Body example: {"channel":"timePeriod0#start","value":"08:00"}
			dev.POST("/commands", h.postCommand)
			dev.POST("/refresh", h.postRefresh)
		}
	}
}
