package handlers

import (
	"net/http"
	"time"

	"slotwise/middleware"
	"slotwise/services/booking"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// BookingHandler serves the booking lifecycle endpoints.
type BookingHandler struct {
	svc    booking.BookingService
	logger *zap.Logger
}

// NewBookingHandler creates a new BookingHandler.
func NewBookingHandler(svc booking.BookingService, logger *zap.Logger) *BookingHandler {
	return &BookingHandler{svc: svc, logger: logger}
}

type createBookingRequest struct {
	ClientID      string `json:"clientId"`
	BusinessID    string `json:"businessId" binding:"required"`
	ServiceID     string `json:"serviceId" binding:"required"`
	EmployeeID    string `json:"employeeId"`
	CourtID       string `json:"courtId"`
	Date          string `json:"date" binding:"required"` // RFC 3339
	Paid          bool   `json:"paid"`
	PaymentMethod string `json:"paymentMethod"`
}

// Create handles POST /api/bookings.
func (h *BookingHandler) Create(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	scheduledAt, err := time.Parse(time.RFC3339, req.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date, expected RFC 3339"})
		return
	}

	clientID := req.ClientID
	if clientID == "" {
		clientID = middleware.ActorID(c)
	}

	created, err := h.svc.Create(c.Request.Context(), booking.CreateInput{
		ClientID:      clientID,
		BusinessID:    req.BusinessID,
		ServiceID:     req.ServiceID,
		EmployeeID:    req.EmployeeID,
		CourtID:       req.CourtID,
		ScheduledAt:   scheduledAt,
		Paid:          req.Paid,
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, created)
}

// Cancel handles DELETE /api/bookings/:id.
func (h *BookingHandler) Cancel(c *gin.Context) {
	if err := h.svc.Cancel(c.Request.Context(), c.Param("id")); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Get handles GET /api/bookings/:id.
func (h *BookingHandler) Get(c *gin.Context) {
	booked, err := h.svc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, booked)
}

// AttachConsent handles POST /api/bookings/:id/consent, the consent
// collaborator's attach signal.
func (h *BookingHandler) AttachConsent(c *gin.Context) {
	updated, err := h.svc.AttachConsent(c.Request.Context(), c.Param("id"), middleware.ActorID(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// ListForBusiness handles GET /api/businesses/:id/bookings?date=.
func (h *BookingHandler) ListForBusiness(c *gin.Context) {
	date, err := time.Parse("2006-01-02", c.Query("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date, expected YYYY-MM-DD"})
		return
	}

	bookings, err := h.svc.ListForBusiness(c.Request.Context(), c.Param("id"), date)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": bookings})
}
