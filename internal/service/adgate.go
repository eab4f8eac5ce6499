package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/user/smartshort/internal/models"
	"github.com/user/smartshort/internal/repository"
)

// MaxViewTime is the longest accepted gap between a click and its
// completion. Longer gaps are treated as abandoned tabs.
const MaxViewTime = 300 * time.Second

// AdGate validates that an ad was actually viewed. Elapsed time is
// measured from the click's stored server timestamp; nothing the client
// sends is trusted.
type AdGate struct {
	clicks ClickStore
	now    func() time.Time
}

// NewAdGate creates a new ad gate.
func NewAdGate(clicks ClickStore) *AdGate {
	return &AdGate{clicks: clicks, now: time.Now}
}

// WithClock replaces the time source.
func (g *AdGate) WithClock(now func() time.Time) *AdGate {
	g.now = now
	return g
}

// ValidateClickCompletion checks the dwell window and marks the click
// completed. Valid and invalid clicks are both completed; only the
// minter looks at validity.
//
// The window is closed at both ends: minView <= elapsed <= MaxViewTime.
func (g *AdGate) ValidateClickCompletion(ctx context.Context, clickID uuid.UUID, minView time.Duration) (*models.Click, error) {
	click, err := g.clicks.GetByID(ctx, clickID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrClickNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get click: %w", err)
	}

	if click.IsCompleted {
		return nil, ErrAlreadyCompleted
	}

	now := g.now()
	elapsed := now.Sub(click.Timestamp)
	if elapsed < minView {
		return nil, fmt.Errorf("%w: viewed %.1fs of %.0fs", ErrViewTimeTooShort, elapsed.Seconds(), minView.Seconds())
	}
	if elapsed > MaxViewTime {
		return nil, ErrViewTimeTooLong
	}

	// Conditional update: of two concurrent completions only one flips it.
	completed, err := g.clicks.MarkCompleted(ctx, clickID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to complete click: %w", err)
	}
	if !completed {
		return nil, ErrAlreadyCompleted
	}

	click.IsCompleted = true
	click.CompletedAt = &now
	return click, nil
}
