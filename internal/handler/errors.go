// ===========================================
// Package handler - HTTP Request Handlers
// ===========================================
// Handlers are thin:
// 1. Parse request
// 2. Call service
// 3. Format response
// Service errors are mapped to HTTP in one place (handleError).
// ===========================================

package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/user/smartshort/internal/models"
	"github.com/user/smartshort/internal/service"
)

// errorMapping is the HTTP form of one service error.
type errorMapping struct {
	target  error
	status  int
	code    string
	message string // empty: use err.Error()
	details bool   // include err.Error() as details
}

// Order matters: the first matching target wins.
var errorMappings = []errorMapping{
	{service.ErrInvalidInput, http.StatusBadRequest, models.ErrCodeInvalidInput, "Invalid request", true},
	{service.ErrLinkNotFound, http.StatusNotFound, models.ErrCodeNotFound, "Link not found", false},
	{service.ErrLinkInactive, http.StatusGone, models.ErrCodeExpired, "Link is inactive", false},
	{service.ErrLinkExpired, http.StatusGone, models.ErrCodeExpired, "Link has expired", false},
	{service.ErrSlugTaken, http.StatusConflict, models.ErrCodeConflict, "Slug already taken", false},
	{service.ErrForbidden, http.StatusForbidden, models.ErrCodeForbidden, "You do not own this link", false},

	{service.ErrBotDetected, http.StatusForbidden, models.ErrCodeBotDetected, "Automated access detected", false},
	{service.ErrThrottled, http.StatusTooManyRequests, models.ErrCodeThrottled, "Too many requests", true},

	{service.ErrClickNotFound, http.StatusNotFound, models.ErrCodeNotFound, "Click not found", false},
	{service.ErrAlreadyCompleted, http.StatusBadRequest, models.ErrCodeAlreadyCompleted, "", false},
	{service.ErrViewTimeTooShort, http.StatusBadRequest, models.ErrCodeViewTimeTooShort, "", false},
	{service.ErrViewTimeTooLong, http.StatusBadRequest, models.ErrCodeViewTimeTooLong, "", false},

	{service.ErrInvalidAmount, http.StatusBadRequest, models.ErrCodeInvalidAmount, "Invalid amount", false},
	{service.ErrMissingAccount, http.StatusBadRequest, models.ErrCodeMissingAccount, "UPI ID is required", false},
	{service.ErrPayoutInProgress, http.StatusBadRequest, models.ErrCodePayoutInProgress, "You already have a payout in progress", false},
	{service.ErrBelowMinimum, http.StatusBadRequest, models.ErrCodeBelowMinimum, "", false},
	{service.ErrInsufficientBalance, http.StatusBadRequest, models.ErrCodeInsufficientFunds, "Requested amount exceeds pending earnings", false},
	{service.ErrPaymentNotConfigured, http.StatusInternalServerError, models.ErrCodeServiceUnavailable, "Razorpay not configured", false},
	{service.ErrPaymentProvider, http.StatusInternalServerError, models.ErrCodePaymentProvider, "", false},

	{service.ErrInvalidSignature, http.StatusBadRequest, models.ErrCodeInvalidSignature, "Invalid signature", false},
	{service.ErrWebhookNotConfigured, http.StatusInternalServerError, models.ErrCodeServiceUnavailable, "Webhook not configured", false},
}

// handleError writes the response for a service error. Unknown errors
// are logged and returned as a generic 500; internal details never
// reach the client.
func handleError(c *gin.Context, logger logrus.FieldLogger, err error) {
	for _, m := range errorMappings {
		if !errors.Is(err, m.target) {
			continue
		}
		resp := models.ErrorResponse{Error: m.message, Code: m.code}
		if resp.Error == "" {
			resp.Error = err.Error()
		}
		if m.details {
			resp.Details = err.Error()
		}
		if m.status >= http.StatusInternalServerError {
			logger.WithError(err).WithField("route", c.FullPath()).Error("Request failed")
		}
		c.JSON(m.status, resp)
		return
	}

	logger.WithError(err).WithField("route", c.FullPath()).Error("Unhandled error")
	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, models.ErrorResponse{
		Error: "Internal server error",
		Code:  models.ErrCodeInternalError,
	})
}

// bindError reports a malformed request body.
func bindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Error:   "Invalid request body",
		Code:    models.ErrCodeInvalidInput,
		Details: err.Error(),
	})
}

// uuidParam parses a path parameter. On failure it writes notFound
// and returns false.
func uuidParam(c *gin.Context, name, notFound string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: notFound, Code: models.ErrCodeNotFound})
		return uuid.Nil, false
	}
	return id, true
}
