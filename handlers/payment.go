package handlers

import (
	"net/http"
	"time"

	"slotwise/middleware"
	"slotwise/services/payment"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// PaymentHandler serves the payment intent endpoints.
type PaymentHandler struct {
	orchestrator *payment.Orchestrator
	logger       *zap.Logger
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(orchestrator *payment.Orchestrator, logger *zap.Logger) *PaymentHandler {
	return &PaymentHandler{orchestrator: orchestrator, logger: logger}
}

type createIntentRequest struct {
	BusinessID    string `json:"businessId" binding:"required"`
	ServiceID     string `json:"serviceId" binding:"required"`
	EmployeeID    string `json:"employeeId"`
	CourtID       string `json:"courtId"`
	Date          string `json:"date" binding:"required"` // RFC 3339
	PaymentMethod string `json:"paymentMethod" binding:"required"`
	ClientNotes   string `json:"clientNotes"`
}

// CreateIntent handles POST /api/payments/create-intent.
func (h *PaymentHandler) CreateIntent(c *gin.Context) {
	var req createIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	scheduledAt, err := time.Parse(time.RFC3339, req.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date, expected RFC 3339"})
		return
	}

	result, err := h.orchestrator.CreateIntent(c.Request.Context(), payment.IntentInput{
		BusinessID:    req.BusinessID,
		ServiceID:     req.ServiceID,
		ClientID:      middleware.ActorID(c),
		EmployeeID:    req.EmployeeID,
		CourtID:       req.CourtID,
		ScheduledAt:   scheduledAt,
		PaymentMethod: req.PaymentMethod,
		ClientNotes:   req.ClientNotes,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

type confirmRequest struct {
	PaymentIntentID string `json:"paymentIntentId" binding:"required"`
}

// Confirm handles POST /api/bookings/confirm: it returns the booking behind
// a completed payment intent, materializing it if the webhook has not yet.
func (h *PaymentHandler) Confirm(c *gin.Context) {
	var req confirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	booked, err := h.orchestrator.Confirm(c.Request.Context(), req.PaymentIntentID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, booked)
}
