package handlers

import (
	"errors"
	"net/http"

	"slotwise/gateway"
	"slotwise/services/booking"
	"slotwise/utils"

	"github.com/gin-gonic/gin"
)

// respondServiceError translates the service error taxonomy into HTTP. Policy
// violations carry their machine-readable reason so the client can render
// the exact rule that blocked the request.
func respondServiceError(c *gin.Context, err error) {
	var policy *booking.PolicyViolation
	if errors.As(err, &policy) {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse{
			Message: "policy violation",
			Reason:  policy.Reason,
			Details: policy.Message,
		})
		return
	}

	var validation *booking.ValidationError
	if errors.As(err, &validation) {
		utils.JSONError(c, http.StatusBadRequest, "validation failed", validation.Message)
		return
	}

	var authz *booking.AuthorizationError
	if errors.As(err, &authz) {
		utils.JSONError(c, http.StatusForbidden, "forbidden", authz.Message)
		return
	}

	var notFound *booking.NotFoundError
	if errors.As(err, &notFound) {
		utils.JSONError(c, http.StatusNotFound, "not found", notFound.Error())
		return
	}

	var conflict *booking.ConflictError
	if errors.As(err, &conflict) {
		utils.JSONError(c, http.StatusConflict, "conflict", conflict.Message)
		return
	}

	var gw *gateway.Error
	if errors.As(err, &gw) {
		utils.JSONError(c, http.StatusBadGateway, "payment gateway error", gw.Error())
		return
	}

	utils.JSONError(c, http.StatusInternalServerError, "internal error", err.Error())
}
