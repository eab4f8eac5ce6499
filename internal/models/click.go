package models

import (
	"time"

	"github.com/google/uuid"
)

// Device classes stored on a click.
const (
	DeviceDesktop = "desktop"
	DeviceMobile  = "mobile"
	DeviceTablet  = "tablet"
)

// Referrer categories stored on a click.
const (
	ReferrerWhatsApp  = "WhatsApp"
	ReferrerYouTube   = "YouTube"
	ReferrerTelegram  = "Telegram"
	ReferrerInstagram = "Instagram"
	ReferrerDirect    = "Direct"
	ReferrerOther     = "Other"
)

// UnknownLocation is stored in country/city; geo resolution is not performed.
const UnknownLocation = "Unknown"

// Click is one inbound visit on a short link.
// IsCompleted flips false -> true exactly once, after the ad gate passes.
type Click struct {
	ID          uuid.UUID  `json:"id"`
	LinkID      uuid.UUID  `json:"link_id"`
	UserID      string     `json:"user_id"` // link owner
	Timestamp   time.Time  `json:"timestamp"`
	Device      string     `json:"device"`
	OS          string     `json:"os"`
	Referrer    string     `json:"referrer"`
	Country     string     `json:"country"`
	City        string     `json:"city"`
	IPHash      string     `json:"-"`
	UserAgent   string     `json:"-"`
	IsValid     bool       `json:"is_valid"`
	IsCompleted bool       `json:"is_completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Earnings    float64    `json:"earnings"`
}

// Earning is an immutable credit minted for one valid, completed click.
// ClickID is unique across all earnings.
type Earning struct {
	ID        uuid.UUID `json:"id"`
	UserID    string    `json:"user_id"`
	ClickID   uuid.UUID `json:"click_id"`
	Amount    float64   `json:"amount"`
	CPMRate   float64   `json:"cpm_rate"`
	CreatedAt time.Time `json:"created_at"`
}

// ===========================================
// Click DTOs
// ===========================================

// ClickDetailsResponse feeds the interstitial ad page.
type ClickDetailsResponse struct {
	Success     bool   `json:"success"`
	RedirectURL string `json:"redirectUrl"`
	Title       string `json:"title"`
	AdDuration  int    `json:"adDuration"`
}

// CompletionResponse is returned by the completion endpoint.
type CompletionResponse struct {
	Success bool     `json:"success"`
	Earned  bool     `json:"earned"`
	Amount  *float64 `json:"amount,omitempty"`
	CPM     *float64 `json:"cpm,omitempty"`
	Message string   `json:"message,omitempty"`
}
