package memstore

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/user/smartshort/internal/models"
	"github.com/user/smartshort/internal/repository"
)

// LinkStore is the in-memory link table.
type LinkStore struct {
	s *Store
}

func (r *LinkStore) Create(_ context.Context, link *models.Link) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, taken := r.s.slugs[link.Slug]; taken {
		return repository.ErrAlreadyExists
	}
	if link.ID == uuid.Nil {
		link.ID = uuid.New()
	}
	if link.CreatedAt.IsZero() {
		link.CreatedAt = time.Now().UTC()
	}
	link.Clicks, link.Earnings = 0, 0

	stored := *link
	r.s.links[link.ID] = &stored
	r.s.slugs[link.Slug] = link.ID
	return nil
}

func (r *LinkStore) GetBySlug(_ context.Context, slug string) (*models.Link, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	id, ok := r.s.slugs[slug]
	if !ok {
		return nil, repository.ErrNotFound
	}
	link := *r.s.links[id]
	return &link, nil
}

func (r *LinkStore) GetByID(_ context.Context, id uuid.UUID) (*models.Link, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	l, ok := r.s.links[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	link := *l
	return &link, nil
}

func (r *LinkStore) ListByUser(_ context.Context, userID string) ([]models.Link, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	links := []models.Link{}
	for _, l := range r.s.links {
		if l.UserID == userID {
			links = append(links, *l)
		}
	}
	sort.Slice(links, func(i, j int) bool { return links[i].CreatedAt.After(links[j].CreatedAt) })
	return links, nil
}

func (r *LinkStore) Update(_ context.Context, link *models.Link) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	l, ok := r.s.links[link.ID]
	if !ok {
		return repository.ErrNotFound
	}
	l.Title = link.Title
	l.IsActive = link.IsActive
	return nil
}

// Delete removes the link and cascades to its clicks and their earnings.
func (r *LinkStore) Delete(_ context.Context, id uuid.UUID, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	l, ok := r.s.links[id]
	if !ok || l.UserID != userID {
		return repository.ErrNotFound
	}
	for cid, c := range r.s.clicks {
		if c.LinkID == id {
			delete(r.s.earnings, cid)
			delete(r.s.clicks, cid)
		}
	}
	delete(r.s.slugs, l.Slug)
	delete(r.s.links, id)
	return nil
}

func (r *LinkStore) IncrementClicks(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	l, ok := r.s.links[id]
	if !ok {
		return repository.ErrNotFound
	}
	l.Clicks++
	return nil
}

func (r *LinkStore) Exists(_ context.Context, slug string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	_, ok := r.s.slugs[slug]
	return ok, nil
}

func (r *LinkStore) TotalsByUser(_ context.Context, userID string) (models.LinkTotals, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var t models.LinkTotals
	for _, l := range r.s.links {
		if l.UserID == userID {
			t.Links++
			t.Clicks += l.Clicks
			t.Earnings += l.Earnings
		}
	}
	return t, nil
}

// ReconcileCounters recomputes link counters from the click and earning maps.
func (r *LinkStore) ReconcileCounters(_ context.Context) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	clicks := make(map[uuid.UUID]int64)
	earned := make(map[uuid.UUID]float64)
	for _, c := range r.s.clicks {
		clicks[c.LinkID]++
		if e, ok := r.s.earnings[c.ID]; ok {
			earned[c.LinkID] += e.Amount
		}
	}

	var fixed int64
	for id, l := range r.s.links {
		if l.Clicks != clicks[id] || l.Earnings != earned[id] {
			l.Clicks, l.Earnings = clicks[id], earned[id]
			fixed++
		}
	}
	return fixed, nil
}
