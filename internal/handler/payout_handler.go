package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/user/smartshort/internal/middleware"
	"github.com/user/smartshort/internal/models"
	"github.com/user/smartshort/internal/payment"
	"github.com/user/smartshort/internal/service"
)

// maxWebhookBody bounds the webhook body read into memory.
const maxWebhookBody = 1 << 20

// PayoutHandler handles withdrawals and the processor webhook.
type PayoutHandler struct {
	payouts  *service.PayoutService
	earnings *service.EarningsService
	logger   logrus.FieldLogger
}

// NewPayoutHandler creates a new payout handler.
func NewPayoutHandler(payouts *service.PayoutService, earnings *service.EarningsService, logger logrus.FieldLogger) *PayoutHandler {
	return &PayoutHandler{payouts: payouts, earnings: earnings, logger: logger}
}

// ===========================================
// POST /api/payout/request
// ===========================================
// Request:
//
//	{"amount": 100, "upiId": "name@bank"}
//
// Response (200): {"message", "payout", "paymentLinkId"}
func (h *PayoutHandler) Request(c *gin.Context) {
	var req models.PayoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	payee := service.Payee{UserID: middleware.UserID(c), Email: middleware.UserEmail(c)}
	resp, err := h.payouts.RequestPayout(c.Request.Context(), payee, req)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ===========================================
// POST /api/razorpay/webhook
// ===========================================
// The signature covers the raw body, so the body is read as bytes and
// never re-encoded before verification.
func (h *PayoutHandler) Webhook(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		bindError(c, err)
		return
	}

	if err := h.payouts.HandleWebhook(c.Request.Context(), body, c.GetHeader(payment.SignatureHeader)); err != nil {
		handleError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, models.WebhookAck{Received: true})
}

// ===========================================
// GET /api/earnings
// ===========================================
// Totals, the 30-day chart and the withdrawal history of the caller.
func (h *PayoutHandler) Earnings(c *gin.Context) {
	resp, err := h.earnings.Summary(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
