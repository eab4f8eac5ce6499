package models

import (
	"time"

	"github.com/google/uuid"
)

// Analytics periods accepted by GET /api/analytics.
const (
	Period24h      = "24h"
	Period7d       = "7d"
	Period30d      = "30d"
	PeriodLifetime = "lifetime"
)

// ClickFilter selects an owner's clicks for aggregation.
// Nil bounds and empty strings match everything.
type ClickFilter struct {
	UserID  string
	LinkID  *uuid.UUID
	Since   *time.Time // inclusive
	Until   *time.Time // exclusive
	Country string
	OS      string
}

// ===========================================
// Analytics DTOs
// ===========================================

// AnalyticsQuery is bound from the query string.
// StartDate and EndDate (YYYY-MM-DD) override Period when both are set.
type AnalyticsQuery struct {
	Period    string `form:"period"`
	LinkID    string `form:"linkId"`
	Region    string `form:"region"`
	OS        string `form:"os"`
	StartDate string `form:"startDate"`
	EndDate   string `form:"endDate"`
}

// LinkStat is one link's share of the filtered clicks.
type LinkStat struct {
	ID       uuid.UUID `json:"id"`
	Slug     string    `json:"slug"`
	Title    string    `json:"title"`
	Clicks   int       `json:"clicks"`
	Earnings float64   `json:"earnings"`
}

type AnalyticsSummary struct {
	TotalClicks     int       `json:"totalClicks"`
	ValidClicks     int       `json:"validClicks"`
	CompletedClicks int       `json:"completedClicks"`
	TotalEarnings   float64   `json:"totalEarnings"`
	TodayClicks     int       `json:"todayClicks"`
	TodayEarnings   float64   `json:"todayEarnings"`
	BestLink        *LinkStat `json:"bestLink"`
}

// TrendPoint is keyed by "HH:00" for the 24h period and by date otherwise.
type TrendPoint struct {
	Time   string `json:"time"`
	Clicks int    `json:"clicks"`
}

type SourceStat struct {
	Source string `json:"source"`
	Clicks int    `json:"clicks"`
}

type DeviceBreakdown struct {
	Desktop int `json:"desktop"`
	Mobile  int `json:"mobile"`
	Tablet  int `json:"tablet"`
}

type OSStat struct {
	OS     string `json:"os"`
	Clicks int    `json:"clicks"`
}

type GeoStat struct {
	Country  string  `json:"country"`
	Clicks   int     `json:"clicks"`
	Earnings float64 `json:"earnings"`
}

type HourlyStat struct {
	Hour   string `json:"hour"`
	Clicks int    `json:"clicks"`
}

// EarningsInsights relates earnings to traffic. EPC is earnings per click,
// CPM is earnings per thousand clicks.
type EarningsInsights struct {
	EPC        float64   `json:"epc"`
	CPM        float64   `json:"cpm"`
	TopCountry *GeoStat  `json:"topCountry"`
	TopLink    *LinkStat `json:"topLink"`
}

type LinkOption struct {
	ID    uuid.UUID `json:"id"`
	Slug  string    `json:"slug"`
	Title string    `json:"title"`
}

// AnalyticsFilters lists the values the dashboard can filter on.
type AnalyticsFilters struct {
	AvailableLinks     []LinkOption `json:"availableLinks"`
	AvailableCountries []string     `json:"availableCountries"`
	AvailableOS        []string     `json:"availableOs"`
}

// AnalyticsResponse is returned by GET /api/analytics.
type AnalyticsResponse struct {
	Summary          AnalyticsSummary `json:"summary"`
	Trend            []TrendPoint     `json:"trend"`
	Sources          []SourceStat     `json:"sources"`
	Devices          DeviceBreakdown  `json:"devices"`
	OSBreakdown      []OSStat         `json:"osBreakdown"`
	Geo              []GeoStat        `json:"geo"`
	TopLinks         []LinkStat       `json:"topLinks"`
	HourlyActivity   []HourlyStat     `json:"hourlyActivity"`
	EarningsInsights EarningsInsights `json:"earningsInsights"`
	Filters          AnalyticsFilters `json:"filters"`
	Period           string           `json:"period"`
}
