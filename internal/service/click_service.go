package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/user/smartshort/internal/events"
	"github.com/user/smartshort/internal/fraud"
	"github.com/user/smartshort/internal/metrics"
	"github.com/user/smartshort/internal/models"
	"github.com/user/smartshort/internal/repository"
)

// ClickService is the click ledger: it turns a visit on a short link
// into a click row, or rejects it.
type ClickService struct {
	links          *LinkService
	linkRepo       LinkStore
	clicks         ClickStore
	throttle       *fraud.ThrottleGate
	settings       *SettingsService
	publisher      events.Publisher
	throttleWindow time.Duration
	logger         logrus.FieldLogger
	now            func() time.Time
}

// NewClickService creates a new click service.
func NewClickService(
	links *LinkService,
	linkRepo LinkStore,
	clicks ClickStore,
	throttle *fraud.ThrottleGate,
	settings *SettingsService,
	publisher events.Publisher,
	throttleWindow time.Duration,
	logger logrus.FieldLogger,
) *ClickService {
	return &ClickService{
		links:          links,
		linkRepo:       linkRepo,
		clicks:         clicks,
		throttle:       throttle,
		settings:       settings,
		publisher:      publisher,
		throttleWindow: throttleWindow,
		logger:         logger,
		now:            time.Now,
	}
}

// WithClock replaces the time source used to stamp clicks.
func (s *ClickService) WithClock(now func() time.Time) *ClickService {
	s.now = now
	return s
}

// RecordVisit validates a visit on slug and records it.
//
// FLOW:
// 1. Resolve the link (not found / inactive / expired)
// 2. Hard reject bots, nothing is written
// 3. Apply the per-IP throttle, nothing is written when rejected
// 4. Soft suspicion only marks the click invalid
// 5. Insert the click, then bump the link counter (best effort)
func (s *ClickService) RecordVisit(ctx context.Context, slug string, h http.Header) (*models.Click, error) {
	link, err := s.links.Resolve(ctx, slug)
	if err != nil {
		return nil, err
	}

	userAgent := h.Get("User-Agent")
	ipHash := fraud.HashIP(fraud.ClientIP(h))
	referer := h.Get("Referer")
	log := s.logger.WithFields(logrus.Fields{"link_id": link.ID, "slug": slug})

	if fraud.IsBot(userAgent) {
		metrics.ClicksTotal.WithLabelValues("bot").Inc()
		log.WithField("user_agent", userAgent).Info("Rejected automated visit")
		return nil, ErrBotDetected
	}

	decision := s.throttle.CheckIPThrottle(ctx, ipHash, link.ID, s.throttleWindow)
	if !decision.Allowed {
		metrics.ClicksTotal.WithLabelValues("throttled").Inc()
		log.WithField("reason", decision.Reason).Info("Throttled visit")
		return nil, fmt.Errorf("%w: %s", ErrThrottled, decision.Reason)
	}

	suspicion := fraud.DetectSuspiciousActivity(h)
	if suspicion.Suspicious {
		log.WithField("reasons", suspicion.Reasons).Info("Suspicious visit recorded as invalid")
	}

	click := &models.Click{
		LinkID:    link.ID,
		UserID:    link.UserID,
		Timestamp: s.now().UTC(),
		Device:    fraud.DeviceType(userAgent),
		OS:        fraud.OSFamily(userAgent),
		Referrer:  fraud.ReferrerCategory(referer),
		Country:   models.UnknownLocation,
		City:      models.UnknownLocation,
		IPHash:    ipHash,
		UserAgent: userAgent,
		IsValid:   !suspicion.Suspicious,
	}
	if err := s.clicks.Create(ctx, click); err != nil {
		metrics.ClicksTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to record click: %w", err)
	}

	// The click row is the source of truth; a lost increment is repaired
	// by counter reconciliation.
	if err := s.linkRepo.IncrementClicks(ctx, link.ID); err != nil {
		log.WithError(err).Error("Failed to increment link clicks")
	}

	metrics.ClicksTotal.WithLabelValues("recorded").Inc()
	s.publisher.Publish(ctx, events.Event{
		Type: events.TypeClickRecorded,
		Key:  link.UserID,
		Data: map[string]any{
			"click_id": click.ID,
			"link_id":  link.ID,
			"is_valid": click.IsValid,
			"device":   click.Device,
			"referrer": click.Referrer,
		},
	})

	return click, nil
}

// Details returns what the interstitial page needs for a click.
func (s *ClickService) Details(ctx context.Context, clickID uuid.UUID) (*models.ClickDetailsResponse, error) {
	click, err := s.clicks.GetByID(ctx, clickID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrClickNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get click: %w", err)
	}

	link, err := s.linkRepo.GetByID(ctx, click.LinkID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrLinkNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get link: %w", err)
	}

	adDuration, err := s.settings.Int(ctx, models.SettingAdDisplayDuration, models.DefaultAdDisplaySeconds)
	if err != nil {
		return nil, fmt.Errorf("failed to read ad duration: %w", err)
	}

	return &models.ClickDetailsResponse{
		Success:     true,
		RedirectURL: link.DestinationURL,
		Title:       link.Title,
		AdDuration:  adDuration,
	}, nil
}
