package memstore

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/user/smartshort/internal/models"
	"github.com/user/smartshort/internal/repository"
)

// ClickStore is the in-memory click ledger.
type ClickStore struct {
	s *Store
}

func (r *ClickStore) Create(_ context.Context, c *models.Click) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.links[c.LinkID]; !ok {
		return repository.ErrNotFound
	}
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.Timestamp.IsZero() {
		c.Timestamp = time.Now().UTC()
	}
	c.IsCompleted, c.CompletedAt, c.Earnings = false, nil, 0

	stored := *c
	r.s.clicks[c.ID] = &stored
	return nil
}

func (r *ClickStore) GetByID(_ context.Context, id uuid.UUID) (*models.Click, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	c, ok := r.s.clicks[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	click := *c
	return &click, nil
}

func (r *ClickStore) MarkCompleted(_ context.Context, id uuid.UUID, at time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c, ok := r.s.clicks[id]
	if !ok || c.IsCompleted {
		return false, nil
	}
	c.IsCompleted = true
	c.CompletedAt = &at
	return true, nil
}

func (r *ClickStore) RecentClickTimes(_ context.Context, linkID uuid.UUID, ipHash string, since time.Time) ([]time.Time, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var times []time.Time
	for _, c := range r.s.clicks {
		if c.LinkID == linkID && c.IPHash == ipHash && !c.Timestamp.Before(since) {
			times = append(times, c.Timestamp)
		}
	}
	sort.Slice(times, func(i, j int) bool { return times[i].After(times[j]) })
	return times, nil
}

func (r *ClickStore) ListForAnalytics(_ context.Context, f models.ClickFilter) ([]models.Click, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	clicks := []models.Click{}
	for _, c := range r.s.clicks {
		switch {
		case c.UserID != f.UserID,
			f.LinkID != nil && c.LinkID != *f.LinkID,
			f.Since != nil && c.Timestamp.Before(*f.Since),
			f.Until != nil && !c.Timestamp.Before(*f.Until),
			f.Country != "" && c.Country != f.Country,
			f.OS != "" && c.OS != f.OS:
			continue
		}
		clicks = append(clicks, *c)
	}
	sort.Slice(clicks, func(i, j int) bool { return clicks[i].Timestamp.Before(clicks[j].Timestamp) })
	return clicks, nil
}
