// ===========================================
// Package models - Domain Models
// ===========================================
// Models are plain data containers shared by the handler, service and
// repository layers. JSON tags define the API shape.
//
// NAMING CONVENTION:
// - Singular nouns: Link, Click, Earning
// - Request/Response suffixes for DTOs
// ===========================================

package models

import (
	"time"

	"github.com/google/uuid"
)

// Link represents a shortened, monetized URL.
// Clicks and Earnings are denormalized running totals of the
// click and earning ledgers.
type Link struct {
	ID             uuid.UUID  `json:"id"`
	UserID         string     `json:"user_id"`
	Slug           string     `json:"slug"`
	Title          string     `json:"title"`
	DestinationURL string     `json:"destination_url"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
	IsActive       bool       `json:"is_active"`
	Clicks         int64      `json:"clicks"`
	Earnings       float64    `json:"earnings"`
	CreatedAt      time.Time  `json:"created_at"`
}

// IsExpired reports whether the link has passed its expiration time
// at the given instant. Links without an expiry never expire.
func (l *Link) IsExpired(now time.Time) bool {
	if l.ExpiresAt == nil {
		return false
	}
	return now.After(*l.ExpiresAt)
}

// ===========================================
// Link DTOs
// ===========================================

// CreateLinkRequest is the DTO for creating a new short link.
type CreateLinkRequest struct {
	Title          string     `json:"title" binding:"required,max=200"`
	DestinationURL string     `json:"url" binding:"required,url"`
	CustomSlug     string     `json:"custom_slug,omitempty" binding:"omitempty,min=3,max=32,alphanum"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
}

// UpdateLinkRequest carries the mutable link fields.
// Nil fields are left untouched.
type UpdateLinkRequest struct {
	Title    *string `json:"title,omitempty" binding:"omitempty,min=1,max=200"`
	IsActive *bool   `json:"is_active,omitempty"`
}

// CreateLinkResponse is returned after successfully creating a link.
type CreateLinkResponse struct {
	ID        uuid.UUID  `json:"id"`
	Slug      string     `json:"slug"`
	ShortURL  string     `json:"short_url"`
	Title     string     `json:"title"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// LinkTotals aggregates the running totals over one owner's links.
type LinkTotals struct {
	Links    int
	Clicks   int64
	Earnings float64
}
