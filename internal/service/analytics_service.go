package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/user/smartshort/internal/models"
)

// topLinksLimit caps the per-link table.
const topLinksLimit = 20

// sourceOrder is the fixed order of the traffic-source breakdown.
var sourceOrder = []string{
	models.ReferrerWhatsApp,
	models.ReferrerYouTube,
	models.ReferrerTelegram,
	models.ReferrerInstagram,
	models.ReferrerDirect,
	models.ReferrerOther,
}

// AnalyticsService aggregates an owner's click ledger for the dashboard.
// Invalid clicks are counted like any other visit; they only differ in
// earning nothing.
type AnalyticsService struct {
	links  LinkStore
	clicks ClickStore
	now    func() time.Time
}

// NewAnalyticsService creates a new analytics service.
func NewAnalyticsService(links LinkStore, clicks ClickStore) *AnalyticsService {
	return &AnalyticsService{links: links, clicks: clicks, now: time.Now}
}

// WithClock replaces the time source used for periods and "today".
func (s *AnalyticsService) WithClock(now func() time.Time) *AnalyticsService {
	s.now = now
	return s
}

// Analytics returns the dashboard breakdown of the owner's clicks.
//
// FLOW:
// 1. Resolve the time range (period or explicit dates, UTC)
// 2. Load the owner's links; an unknown or foreign linkId is ErrLinkNotFound
// 3. Load the matching clicks and aggregate them in one pass
func (s *AnalyticsService) Analytics(ctx context.Context, userID string, q models.AnalyticsQuery) (*models.AnalyticsResponse, error) {
	now := s.now().UTC()
	period := q.Period
	if period == "" {
		period = models.Period7d
	}

	filter := models.ClickFilter{UserID: userID, Country: q.Region, OS: q.OS}
	if err := applyRange(&filter, period, q.StartDate, q.EndDate, now); err != nil {
		return nil, err
	}

	links, err := s.links.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch links: %w", err)
	}
	byID := make(map[uuid.UUID]models.Link, len(links))
	for _, l := range links {
		byID[l.ID] = l
	}

	if q.LinkID != "" {
		id, err := uuid.Parse(q.LinkID)
		if err != nil {
			return nil, ErrLinkNotFound
		}
		if _, ok := byID[id]; !ok {
			return nil, ErrLinkNotFound
		}
		filter.LinkID = &id
	}

	var clicks []models.Click
	if len(links) > 0 {
		clicks, err = s.clicks.ListForAnalytics(ctx, filter)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch analytics data: %w", err)
		}
	}

	resp := aggregate(clicks, byID, period, now)
	resp.Filters.AvailableLinks = make([]models.LinkOption, 0, len(links))
	for _, l := range links {
		resp.Filters.AvailableLinks = append(resp.Filters.AvailableLinks, models.LinkOption{ID: l.ID, Slug: l.Slug, Title: l.Title})
	}
	return resp, nil
}

// applyRange sets the filter bounds. Explicit dates win over the period
// and cover whole UTC days.
func applyRange(f *models.ClickFilter, period, startDate, endDate string, now time.Time) error {
	if startDate != "" && endDate != "" {
		start, err := time.Parse(time.DateOnly, startDate)
		if err != nil {
			return fmt.Errorf("%w: startDate must be YYYY-MM-DD", ErrInvalidInput)
		}
		end, err := time.Parse(time.DateOnly, endDate)
		if err != nil {
			return fmt.Errorf("%w: endDate must be YYYY-MM-DD", ErrInvalidInput)
		}
		if end.Before(start) {
			return fmt.Errorf("%w: endDate is before startDate", ErrInvalidInput)
		}
		until := end.AddDate(0, 0, 1)
		f.Since, f.Until = &start, &until
		return nil
	}

	var since time.Time
	switch period {
	case models.Period24h:
		since = now.Add(-24 * time.Hour)
	case models.Period7d:
		since = now.AddDate(0, 0, -7)
	case models.Period30d:
		since = now.AddDate(0, 0, -30)
	case models.PeriodLifetime:
		return nil
	default:
		return fmt.Errorf("%w: period must be one of 24h, 7d, 30d, lifetime", ErrInvalidInput)
	}
	f.Since = &since
	return nil
}

type bucket struct {
	clicks   int
	earnings float64
}

// aggregate builds every breakdown over the filtered clicks.
func aggregate(clicks []models.Click, links map[uuid.UUID]models.Link, period string, now time.Time) *models.AnalyticsResponse {
	today := now.Truncate(24 * time.Hour)

	var summary models.AnalyticsSummary
	var total float64
	var devices models.DeviceBreakdown
	trend := map[string]int{}
	sources := map[string]int{}
	osCounts := map[string]int{}
	geo := map[string]*bucket{}
	perLink := map[uuid.UUID]*bucket{}
	hourly := make([]int, 24)

	for _, c := range clicks {
		ts := c.Timestamp.UTC()
		summary.TotalClicks++
		total += c.Earnings
		if c.IsValid {
			summary.ValidClicks++
		}
		if c.IsCompleted {
			summary.CompletedClicks++
		}
		if !ts.Before(today) {
			summary.TodayClicks++
			summary.TodayEarnings += c.Earnings
		}

		if period == models.Period24h {
			trend[ts.Format("15")+":00"]++
		} else {
			trend[ts.Format(time.DateOnly)]++
		}

		sources[sourceOf(c.Referrer)]++

		switch c.Device {
		case models.DeviceDesktop:
			devices.Desktop++
		case models.DeviceMobile:
			devices.Mobile++
		case models.DeviceTablet:
			devices.Tablet++
		}

		osCounts[orUnknown(c.OS)]++
		addTo(geo, orUnknown(c.Country), c.Earnings)
		addTo(perLink, c.LinkID, c.Earnings)
		hourly[ts.Hour()]++
	}

	summary.TotalEarnings = roundCents(total)
	summary.TodayEarnings = roundCents(summary.TodayEarnings)

	resp := &models.AnalyticsResponse{
		Trend:          trendPoints(trend),
		Sources:        make([]models.SourceStat, 0, len(sourceOrder)),
		Devices:        devices,
		OSBreakdown:    make([]models.OSStat, 0, len(osCounts)),
		Geo:            make([]models.GeoStat, 0, len(geo)),
		TopLinks:       topLinks(perLink, links),
		HourlyActivity: make([]models.HourlyStat, 24),
		Period:         period,
	}

	for _, src := range sourceOrder {
		resp.Sources = append(resp.Sources, models.SourceStat{Source: src, Clicks: sources[src]})
	}
	for name, n := range osCounts {
		resp.OSBreakdown = append(resp.OSBreakdown, models.OSStat{OS: name, Clicks: n})
	}
	sort.Slice(resp.OSBreakdown, func(i, j int) bool {
		a, b := resp.OSBreakdown[i], resp.OSBreakdown[j]
		return a.Clicks > b.Clicks || (a.Clicks == b.Clicks && a.OS < b.OS)
	})
	for country, b := range geo {
		resp.Geo = append(resp.Geo, models.GeoStat{Country: country, Clicks: b.clicks, Earnings: roundCents(b.earnings)})
	}
	sort.Slice(resp.Geo, func(i, j int) bool {
		a, b := resp.Geo[i], resp.Geo[j]
		return a.Clicks > b.Clicks || (a.Clicks == b.Clicks && a.Country < b.Country)
	})
	for h, n := range hourly {
		resp.HourlyActivity[h] = models.HourlyStat{Hour: fmt.Sprintf("%02d:00", h), Clicks: n}
	}

	if len(resp.TopLinks) > 0 {
		best := resp.TopLinks[0]
		summary.BestLink = &best
	}
	resp.Summary = summary

	resp.EarningsInsights = insights(total, summary.TotalClicks, resp.Geo, resp.TopLinks)

	resp.Filters.AvailableCountries = make([]string, 0, len(resp.Geo))
	for _, g := range resp.Geo {
		resp.Filters.AvailableCountries = append(resp.Filters.AvailableCountries, g.Country)
	}
	resp.Filters.AvailableOS = make([]string, 0, len(resp.OSBreakdown))
	for _, o := range resp.OSBreakdown {
		resp.Filters.AvailableOS = append(resp.Filters.AvailableOS, o.OS)
	}
	return resp
}

func insights(total float64, clicks int, geo []models.GeoStat, top []models.LinkStat) models.EarningsInsights {
	var in models.EarningsInsights
	if clicks > 0 {
		epc := total / float64(clicks)
		in.EPC = math.Round(epc*10000) / 10000
		in.CPM = roundCents(epc * 1000)
	}
	// First highest earner wins ties, so the order of geo and top decides.
	for i := range geo {
		if in.TopCountry == nil || geo[i].Earnings > in.TopCountry.Earnings {
			g := geo[i]
			in.TopCountry = &g
		}
	}
	for i := range top {
		if in.TopLink == nil || top[i].Earnings > in.TopLink.Earnings {
			l := top[i]
			in.TopLink = &l
		}
	}
	return in
}

func topLinks(perLink map[uuid.UUID]*bucket, links map[uuid.UUID]models.Link) []models.LinkStat {
	stats := make([]models.LinkStat, 0, len(perLink))
	for id, b := range perLink {
		meta := links[id]
		stats = append(stats, models.LinkStat{
			ID:       id,
			Slug:     meta.Slug,
			Title:    meta.Title,
			Clicks:   b.clicks,
			Earnings: roundCents(b.earnings),
		})
	}
	sort.Slice(stats, func(i, j int) bool {
		a, b := stats[i], stats[j]
		return a.Clicks > b.Clicks || (a.Clicks == b.Clicks && a.Slug < b.Slug)
	})
	if len(stats) > topLinksLimit {
		stats = stats[:topLinksLimit]
	}
	return stats
}

// trendPoints sorts by key; "HH:00" and YYYY-MM-DD both sort as text.
func trendPoints(counts map[string]int) []models.TrendPoint {
	points := make([]models.TrendPoint, 0, len(counts))
	for k, n := range counts {
		points = append(points, models.TrendPoint{Time: k, Clicks: n})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Time < points[j].Time })
	return points
}

func addTo[K comparable](m map[K]*bucket, key K, earnings float64) {
	b, ok := m[key]
	if !ok {
		b = &bucket{}
		m[key] = b
	}
	b.clicks++
	b.earnings += earnings
}

// sourceOf folds stored referrers outside the known set into Other.
func sourceOf(referrer string) string {
	if referrer == "" {
		return models.ReferrerDirect
	}
	for _, src := range sourceOrder {
		if referrer == src {
			return src
		}
	}
	return models.ReferrerOther
}

func orUnknown(s string) string {
	if s == "" {
		return models.UnknownLocation
	}
	return s
}
