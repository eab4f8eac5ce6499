package models

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
)

// Wallet transaction states. Initiated is the only non-terminal state.
const (
	TxStatusInitiated = "initiated"
	TxStatusPaid      = "paid"
	TxStatusFailed    = "failed"
)

// PayoutMethodUPI is the only supported payout method.
const PayoutMethodUPI = "UPI"

// WalletTransaction is a withdrawal attempt backed by an external payment link.
type WalletTransaction struct {
	ID                uuid.UUID `json:"id"`
	UserID            string    `json:"user_id"`
	Amount            float64   `json:"amount"`
	Status            string    `json:"status"`
	Method            string    `json:"method"`
	AccountIdentifier string    `json:"account_identifier"`
	PaymentLinkID     *string   `json:"payment_link_id"`
	ExternalStatus    *string   `json:"razorpay_status"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// IsTerminal reports whether no further transitions are allowed.
func (t *WalletTransaction) IsTerminal() bool {
	return t.Status == TxStatusPaid || t.Status == TxStatusFailed
}

// ===========================================
// Payout DTOs
// ===========================================

// PayoutRequest is the body of POST /api/payout/request.
// Validation is done by the service to return specific reasons.
type PayoutRequest struct {
	Amount float64 `json:"amount"`
	UPIID  string  `json:"upiId"`
}

// UnmarshalJSON accepts the amount as a JSON number or a numeric string.
// A missing or unreadable amount decodes to NaN, which the service
// rejects as an invalid amount rather than failing the whole body.
func (r *PayoutRequest) UnmarshalJSON(data []byte) error {
	if !gjson.ValidBytes(data) {
		return errors.New("payout request is not valid JSON")
	}
	body := gjson.ParseBytes(data)
	if !body.IsObject() {
		return errors.New("payout request must be a JSON object")
	}

	r.Amount = parseAmount(body.Get("amount"))
	r.UPIID = body.Get("upiId").String()
	return nil
}

func parseAmount(v gjson.Result) float64 {
	switch v.Type {
	case gjson.Number:
		return v.Num
	case gjson.String:
		if f, err := strconv.ParseFloat(strings.TrimSpace(v.Str), 64); err == nil {
			return f
		}
	}
	return math.NaN()
}

// PayoutResponse is returned after a payment link has been created.
type PayoutResponse struct {
	Message       string             `json:"message"`
	Payout        *WalletTransaction `json:"payout"`
	PaymentLinkID string             `json:"paymentLinkId"`
}

// WebhookAck is the fixed acknowledgement for processor webhooks.
type WebhookAck struct {
	Received bool `json:"received"`
}

// ===========================================
// Earnings summary DTOs
// ===========================================

// EarningsSummary aggregates an owner's balance.
type EarningsSummary struct {
	TotalEarnings    float64 `json:"totalEarnings"`
	PendingAmount    float64 `json:"pendingAmount"`
	WithdrawnAmount  float64 `json:"withdrawnAmount"`
	AvailableBalance float64 `json:"availableBalance"`
	TotalClicks      int64   `json:"totalClicks"`
	TotalLinks       int     `json:"totalLinks"`
	TotalWithdrawals int     `json:"totalWithdrawals"`
}

// DailyEarning is one point of the earnings chart.
type DailyEarning struct {
	Date     string  `json:"date"` // YYYY-MM-DD, UTC
	Earnings float64 `json:"earnings"`
}

// EarningsResponse is returned by GET /api/earnings.
type EarningsResponse struct {
	Summary     EarningsSummary     `json:"summary"`
	Chart       []DailyEarning      `json:"chart"`
	Withdrawals []WalletTransaction `json:"withdrawals"`
	MinWithdraw float64             `json:"minWithdraw"`
}
