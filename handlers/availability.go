package handlers

import (
	"net/http"
	"time"

	"slotwise/services/availability"

	"github.com/gin-gonic/gin"
)

// AvailabilityHandler serves GET /api/resources/:id/availability.
type AvailabilityHandler struct {
	svc *availability.Service
}

// NewAvailabilityHandler creates a new AvailabilityHandler.
func NewAvailabilityHandler(svc *availability.Service) *AvailabilityHandler {
	return &AvailabilityHandler{svc: svc}
}

// Get computes the hourly slots for a resource and date.
func (h *AvailabilityHandler) Get(c *gin.Context) {
	date, err := time.Parse("2006-01-02", c.Query("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date, expected YYYY-MM-DD"})
		return
	}

	result, err := h.svc.ForResource(c.Request.Context(), c.Param("id"), date)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
