// ===========================================
// Package payment - Razorpay Payment Links
// ===========================================
// Withdrawals are paid out through Razorpay payment links:
// 1. CreatePaymentLink posts the amount (in paise) with reference_id
//    set to our wallet transaction id
// 2. Razorpay later calls the webhook with payment_link.paid,
//    payment_link.expired or payment_link.cancelled
// ===========================================

package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// ErrNotConfigured is returned when API credentials are missing.
var ErrNotConfigured = errors.New("razorpay is not configured")

// Currency for every payment link.
const Currency = "INR"

// ProviderError is a non-2xx answer from the processor. Description is
// the processor's own message and is safe to relay to the user.
type ProviderError struct {
	StatusCode  int
	Description string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("razorpay returned %d: %s", e.StatusCode, e.Description)
}

// PaymentLinkRequest describes one payout.
type PaymentLinkRequest struct {
	Amount        float64 // rupees
	ReferenceID   string
	Description   string
	CustomerName  string
	CustomerEmail string
}

// PaymentLink is the processor's view of a created link.
type PaymentLink struct {
	ID       string `json:"id"`
	Status   string `json:"status"`
	ShortURL string `json:"short_url"`
}

// RazorpayClient talks to the Razorpay REST API.
type RazorpayClient struct {
	baseURL    string
	keyID      string
	keySecret  string
	httpClient *http.Client
}

// NewRazorpayClient creates a client. Requests time out after timeout.
func NewRazorpayClient(baseURL, keyID, keySecret string, timeout time.Duration) *RazorpayClient {
	return &RazorpayClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		keyID:      keyID,
		keySecret:  keySecret,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// ToPaise converts rupees to the integer minor unit, rounding half away
// from zero.
func ToPaise(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

type createLinkPayload struct {
	Amount        int64          `json:"amount"`
	Currency      string         `json:"currency"`
	AcceptPartial bool           `json:"accept_partial"`
	ReferenceID   string         `json:"reference_id"`
	Description   string         `json:"description"`
	Customer      customerFields `json:"customer"`
	Notify        notifyFields   `json:"notify"`
}

type customerFields struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

type notifyFields struct {
	SMS   bool `json:"sms"`
	Email bool `json:"email"`
}

// CreatePaymentLink creates a payment link for the request.
// A processor rejection is returned as *ProviderError.
func (c *RazorpayClient) CreatePaymentLink(ctx context.Context, req PaymentLinkRequest) (*PaymentLink, error) {
	if c.keyID == "" || c.keySecret == "" {
		return nil, ErrNotConfigured
	}

	body, err := json.Marshal(createLinkPayload{
		Amount:        ToPaise(req.Amount),
		Currency:      Currency,
		AcceptPartial: false,
		ReferenceID:   req.ReferenceID,
		Description:   req.Description,
		Customer:      customerFields{Name: req.CustomerName, Email: req.CustomerEmail},
		Notify:        notifyFields{SMS: true, Email: true},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode payment link: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/payment_links", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.SetBasicAuth(c.keyID, c.keySecret)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("razorpay request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read razorpay response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		desc := gjson.GetBytes(raw, "error.description").String()
		if desc == "" {
			desc = "Failed to create Razorpay payout link"
		}
		return nil, &ProviderError{StatusCode: resp.StatusCode, Description: desc}
	}

	var link PaymentLink
	if err := json.Unmarshal(raw, &link); err != nil {
		return nil, fmt.Errorf("failed to decode razorpay response: %w", err)
	}
	return &link, nil
}
