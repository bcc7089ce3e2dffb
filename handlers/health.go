package handlers

import (
	"net/http"

	"slotwise/utils"

	"github.com/gin-gonic/gin"
)

// HealthHandler serves GET /healthz from the background monitor's snapshot.
func HealthHandler(monitor *utils.HealthMonitor) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := monitor.Status()
		code := http.StatusOK
		if !status.Mongo {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, status)
	}
}
