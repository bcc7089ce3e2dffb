package handlers

import (
	"errors"
	"io"
	"net/http"

	"slotwise/gateway"
	"slotwise/services/webhook"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SignatureHeader is the gateway's webhook signature header.
const SignatureHeader = "Stripe-Signature"

// WebhookHandler serves POST /api/webhooks/gateway.
type WebhookHandler struct {
	processor *webhook.Processor
	logger    *zap.Logger
}

// NewWebhookHandler creates a new WebhookHandler.
func NewWebhookHandler(processor *webhook.Processor, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{processor: processor, logger: logger}
}

// Handle verifies and processes one delivery. Bad signatures get a 400 the
// gateway treats as permanent; store errors get a 500 so it redelivers.
func (h *WebhookHandler) Handle(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}

	if err := h.processor.Process(c.Request.Context(), payload, c.GetHeader(SignatureHeader)); err != nil {
		var badSig *gateway.BadSignatureError
		if errors.As(err, &badSig) {
			h.logger.Warn("webhook signature rejected", zap.Error(err))
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid signature"})
			return
		}
		h.logger.Error("webhook processing failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "processing failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}
