package service

import "errors"

// Service errors. Handlers map these to HTTP status codes and stable
// error codes in one place.
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrLinkNotFound = errors.New("link not found")
	ErrLinkInactive = errors.New("link is inactive")
	ErrLinkExpired  = errors.New("link has expired")
	ErrSlugTaken    = errors.New("slug already taken")
	ErrForbidden    = errors.New("not the owner of this resource")

	ErrBotDetected = errors.New("automated access detected")
	ErrThrottled   = errors.New("click throttled")

	ErrClickNotFound    = errors.New("click not found")
	ErrAlreadyCompleted = errors.New("click already completed")
	ErrViewTimeTooShort = errors.New("minimum view time not met")
	ErrViewTimeTooLong  = errors.New("view time too long (possible tab abandonment)")

	ErrInvalidAmount        = errors.New("invalid amount")
	ErrMissingAccount       = errors.New("UPI ID is required")
	ErrPayoutInProgress     = errors.New("you already have a payout in progress")
	ErrBelowMinimum         = errors.New("amount is below the minimum withdrawal")
	ErrInsufficientBalance  = errors.New("requested amount exceeds pending earnings")
	ErrPaymentProvider      = errors.New("payment provider error")
	ErrPaymentNotConfigured = errors.New("payment provider is not configured")

	ErrInvalidSignature     = errors.New("invalid signature")
	ErrWebhookNotConfigured = errors.New("webhook not configured")
)
