package models

// ===========================================
// Error Response
// ===========================================

// ErrorResponse provides consistent error format across all endpoints.
type ErrorResponse struct {
	Error   string `json:"error"`             // Human-readable message
	Code    string `json:"code,omitempty"`    // Machine-readable error code
	Details string `json:"details,omitempty"` // Additional context
}

// Error codes (use with ErrorResponse.Code).
// These strings are stable; clients switch on them.
const (
	ErrCodeInvalidInput       = "INVALID_INPUT"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeExpired            = "EXPIRED"
	ErrCodeRateLimited        = "RATE_LIMITED"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeForbidden          = "FORBIDDEN"
	ErrCodeConflict           = "CONFLICT"
	ErrCodeInternalError      = "INTERNAL_ERROR"
	ErrCodeBotDetected        = "BOT_DETECTED"
	ErrCodeThrottled          = "THROTTLED"
	ErrCodeAlreadyCompleted   = "ALREADY_COMPLETED"
	ErrCodeViewTimeTooShort   = "VIEW_TIME_TOO_SHORT"
	ErrCodeViewTimeTooLong    = "VIEW_TIME_TOO_LONG"
	ErrCodeInvalidAmount      = "INVALID_AMOUNT"
	ErrCodeMissingAccount     = "MISSING_ACCOUNT"
	ErrCodePayoutInProgress   = "PAYOUT_IN_PROGRESS"
	ErrCodeBelowMinimum       = "BELOW_MINIMUM"
	ErrCodeInsufficientFunds  = "INSUFFICIENT_BALANCE"
	ErrCodeInvalidSignature   = "INVALID_SIGNATURE"
	ErrCodePaymentProvider    = "PAYMENT_PROVIDER_ERROR"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
)

// ===========================================
// Health Check Response
// ===========================================

// HealthResponse is returned by the /health endpoint.
type HealthResponse struct {
	Status   string            `json:"status"`   // "healthy" or "unhealthy"
	Version  string            `json:"version"`  // Application version
	Services map[string]string `json:"services"` // Dependency health
}
