package memstore

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/user/smartshort/internal/models"
	"github.com/user/smartshort/internal/repository"
)

// EarningStore is the in-memory earning ledger.
type EarningStore struct {
	s *Store
}

// Mint inserts the earning and credits click and link under one lock.
func (r *EarningStore) Mint(_ context.Context, e *models.Earning, linkID uuid.UUID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, dup := r.s.earnings[e.ClickID]; dup {
		return false, nil
	}
	c, ok := r.s.clicks[e.ClickID]
	if !ok {
		return false, repository.ErrNotFound
	}
	l, ok := r.s.links[linkID]
	if !ok {
		return false, repository.ErrNotFound
	}

	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	stored := *e
	r.s.earnings[e.ClickID] = &stored
	c.Earnings = e.Amount
	l.Earnings += e.Amount
	return true, nil
}

func (r *EarningStore) DailyTotals(_ context.Context, userID string, since time.Time) (map[string]float64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	totals := make(map[string]float64)
	for _, e := range r.s.earnings {
		if e.UserID == userID && !e.CreatedAt.Before(since) {
			totals[e.CreatedAt.UTC().Format("2006-01-02")] += e.Amount
		}
	}
	return totals, nil
}
