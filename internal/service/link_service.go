// ===========================================
// Package service - Business Logic Layer
// ===========================================
// Services hold the business rules. They orchestrate the stores, the
// cache, the payout processor and the event stream; handlers stay thin
// (HTTP in/out) and repositories stay thin (SQL in/out).
//
// One service per domain area:
// - LinkService: link management and slug resolution
// - ClickService: the click ledger (visit -> click row)
// - AdGate + EarningsMinter: completion and earning accrual
// - PayoutService: withdrawals and processor webhooks
// - EarningsService: owner summary
// ===========================================

package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/cache/v9"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/user/smartshort/internal/config"
	"github.com/user/smartshort/internal/models"
	"github.com/user/smartshort/internal/repository"
)

// LinkService handles link management and slug resolution.
type LinkService struct {
	repo       LinkStore
	cache      LinkCache
	config     config.ShortenerConfig
	cacheTTL   time.Duration
	logger     logrus.FieldLogger
	now        func() time.Time
	randomSlug func(length int) (string, error)
}

// NewLinkService creates a new link service. cache may be nil.
func NewLinkService(repo LinkStore, c LinkCache, cfg config.ShortenerConfig, cacheTTL time.Duration, logger logrus.FieldLogger) *LinkService {
	return &LinkService{
		repo:       repo,
		cache:      c,
		config:     cfg,
		cacheTTL:   cacheTTL,
		logger:     logger,
		now:        time.Now,
		randomSlug: generateRandomSlug,
	}
}

// WithClock replaces the time source used for expiry checks.
func (s *LinkService) WithClock(now func() time.Time) *LinkService {
	s.now = now
	return s
}

// ===========================================
// Core Business Operations
// ===========================================

// Create stores a new link for the owner.
//
// FLOW:
// 1. Use the custom slug or generate one; reserved paths are never slugs
// 2. Reject an expiry in the past
// 3. Insert; a lost race on the slug is reported as ErrSlugTaken
func (s *LinkService) Create(ctx context.Context, userID string, req models.CreateLinkRequest) (*models.CreateLinkResponse, error) {
	var slug string
	if req.CustomSlug != "" {
		slug = req.CustomSlug
		if !isValidSlug(slug, s.config.MaxCustomLength) {
			return nil, fmt.Errorf("%w: custom slug must be 3-%d alphanumeric characters", ErrInvalidInput, s.config.MaxCustomLength)
		}
		if isReservedSlug(slug) {
			return nil, fmt.Errorf("%w: %q is a reserved path", ErrInvalidInput, slug)
		}
		exists, err := s.repo.Exists(ctx, slug)
		if err != nil {
			return nil, fmt.Errorf("failed to check slug availability: %w", err)
		}
		if exists {
			return nil, ErrSlugTaken
		}
	} else {
		var err error
		slug, err = s.generateUniqueSlug(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to generate slug: %w", err)
		}
	}

	if req.ExpiresAt != nil && !req.ExpiresAt.After(s.now()) {
		return nil, fmt.Errorf("%w: expiry must be in the future", ErrInvalidInput)
	}

	link := &models.Link{
		UserID:         userID,
		Slug:           slug,
		Title:          strings.TrimSpace(req.Title),
		DestinationURL: req.DestinationURL,
		ExpiresAt:      req.ExpiresAt,
		IsActive:       true,
	}
	if err := s.repo.Create(ctx, link); err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			return nil, ErrSlugTaken
		}
		return nil, fmt.Errorf("failed to store link: %w", err)
	}

	return &models.CreateLinkResponse{
		ID:        link.ID,
		Slug:      link.Slug,
		ShortURL:  fmt.Sprintf("%s/%s", strings.TrimRight(s.config.BaseURL, "/"), link.Slug),
		Title:     link.Title,
		ExpiresAt: link.ExpiresAt,
	}, nil
}

// List returns the owner's links, newest first.
func (s *LinkService) List(ctx context.Context, userID string) ([]models.Link, error) {
	links, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list links: %w", err)
	}
	return links, nil
}

// Update changes the title or active flag of an owned link.
func (s *LinkService) Update(ctx context.Context, userID string, id uuid.UUID, req models.UpdateLinkRequest) (*models.Link, error) {
	link, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		link.Title = strings.TrimSpace(*req.Title)
	}
	if req.IsActive != nil {
		link.IsActive = *req.IsActive
	}

	if err := s.repo.Update(ctx, link); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrLinkNotFound
		}
		return nil, fmt.Errorf("failed to update link: %w", err)
	}
	s.invalidate(ctx, link.Slug)

	return link, nil
}

// Delete hard-deletes an owned link together with its clicks and earnings.
func (s *LinkService) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	link, err := s.owned(ctx, userID, id)
	if err != nil {
		return err
	}

	err = s.repo.Delete(ctx, id, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrLinkNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to delete link: %w", err)
	}
	s.invalidate(ctx, link.Slug)

	return nil
}

// Resolve looks up a slug for a visit. It returns ErrLinkNotFound,
// ErrLinkInactive or ErrLinkExpired when the link cannot be visited.
//
// PERFORMANCE CRITICAL: runs on every visit, so the lookup goes through
// the two-tier cache.
func (s *LinkService) Resolve(ctx context.Context, slug string) (*models.Link, error) {
	link, err := s.lookup(ctx, slug)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrLinkNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve link: %w", err)
	}

	if !link.IsActive {
		return link, ErrLinkInactive
	}
	if link.IsExpired(s.now()) {
		return link, ErrLinkExpired
	}
	return link, nil
}

// owned loads a link and checks that userID owns it.
func (s *LinkService) owned(ctx context.Context, userID string, id uuid.UUID) (*models.Link, error) {
	link, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrLinkNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get link: %w", err)
	}
	if link.UserID != userID {
		return nil, ErrForbidden
	}
	return link, nil
}

// ===========================================
// Caching Operations
// ===========================================

func linkCacheKey(slug string) string {
	return "link:" + slug
}

func (s *LinkService) lookup(ctx context.Context, slug string) (*models.Link, error) {
	if s.cache == nil {
		return s.repo.GetBySlug(ctx, slug)
	}

	var link *models.Link
	err := s.cache.Once(&cache.Item{
		Ctx:   ctx,
		Key:   linkCacheKey(slug),
		Value: &link,
		TTL:   s.cacheTTL,
		Do: func(*cache.Item) (interface{}, error) {
			return s.repo.GetBySlug(ctx, slug)
		},
	})
	if err != nil {
		return nil, err
	}
	return link, nil
}

// invalidate drops a cached slug. Failure only delays the change by
// the cache TTL, so it is logged and ignored.
func (s *LinkService) invalidate(ctx context.Context, slug string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, linkCacheKey(slug)); err != nil && !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.WithError(err).WithField("slug", slug).Warn("Failed to invalidate link cache")
	}
}

// ===========================================
// Slug Generation
// ===========================================
// Slugs are base62 (0-9, A-Z, a-z) from crypto/rand. With the default
// length of 6 that is 62^6 (about 56 billion) codes; collisions are
// retried a few times.

const base62Chars = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

func (s *LinkService) generateUniqueSlug(ctx context.Context) (string, error) {
	const maxRetries = 5

	for i := 0; i < maxRetries; i++ {
		slug, err := s.randomSlug(s.config.DefaultCodeLength)
		if err != nil {
			return "", err
		}
		if isReservedSlug(slug) {
			continue
		}

		exists, err := s.repo.Exists(ctx, slug)
		if err != nil {
			return "", err
		}
		if !exists {
			return slug, nil
		}
	}

	return "", errors.New("failed to generate unique slug after retries")
}

// generateRandomSlug creates a random base62 string.
func generateRandomSlug(length int) (string, error) {
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	for i := range buf {
		buf[i] = base62Chars[int(buf[i])%len(base62Chars)]
	}
	return string(buf), nil
}

// reservedSlugs are top-level paths served by the router itself. A link
// with one of these slugs could never be visited.
var reservedSlugs = map[string]struct{}{
	"health":        {},
	"ready":         {},
	"live":          {},
	"metrics":       {},
	"api":           {},
	"ads":           {},
	"link-inactive": {},
	"link-expired":  {},
}

// isReservedSlug ignores case.
func isReservedSlug(slug string) bool {
	_, ok := reservedSlugs[strings.ToLower(slug)]
	return ok
}

// isValidSlug checks a custom slug: 3..maxLength ASCII letters and digits.
func isValidSlug(slug string, maxLength int) bool {
	if len(slug) < 3 || len(slug) > maxLength {
		return false
	}
	for _, c := range slug {
		isLetter := (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
		isNumber := c >= '0' && c <= '9'
		if !isLetter && !isNumber {
			return false
		}
	}
	return true
}
