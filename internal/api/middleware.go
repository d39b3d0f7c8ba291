// internal/api/middleware.go
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const ctxDevice = "device"

// deviceMiddleware resolves :id or answers 404.
func (h *Handler) deviceMiddleware(c *gin.Context) {
	id := c.Param("id")
	d, ok := h.devices[id]
	if !ok {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
			"error": "unknown device " + id,
		})
		return
	}

	c.Set(ctxDevice, d)
	c.Next()
}

func deviceFrom(c *gin.Context) Device {
	return c.MustGet(ctxDevice).(Device)
}
