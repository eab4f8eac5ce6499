package memstore

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/user/smartshort/internal/models"
	"github.com/user/smartshort/internal/repository"
)

// WalletStore is the in-memory wallet_transactions table.
type WalletStore struct {
	s *Store
}

func (r *WalletStore) CreateInitiated(_ context.Context, t *models.WalletTransaction) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.wallet {
		if existing.UserID == t.UserID && existing.Status == models.TxStatusInitiated {
			return repository.ErrAlreadyExists
		}
	}
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	now := time.Now().UTC()
	t.Status = models.TxStatusInitiated
	t.CreatedAt, t.UpdatedAt = now, now

	stored := *t
	r.s.wallet[t.ID] = &stored
	return nil
}

func (r *WalletStore) GetByID(_ context.Context, id uuid.UUID) (*models.WalletTransaction, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	t, ok := r.s.wallet[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	tx := *t
	return &tx, nil
}

func (r *WalletStore) HasInitiated(_ context.Context, userID string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, t := range r.s.wallet {
		if t.UserID == userID && t.Status == models.TxStatusInitiated {
			return true, nil
		}
	}
	return false, nil
}

func (r *WalletStore) SumPaid(_ context.Context, userID string) (float64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var total float64
	for _, t := range r.s.wallet {
		if t.UserID == userID && t.Status == models.TxStatusPaid {
			total += t.Amount
		}
	}
	return total, nil
}

func (r *WalletStore) ListByUser(_ context.Context, userID string) ([]models.WalletTransaction, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	txs := []models.WalletTransaction{}
	for _, t := range r.s.wallet {
		if t.UserID == userID {
			txs = append(txs, *t)
		}
	}
	sort.Slice(txs, func(i, j int) bool { return txs[i].CreatedAt.After(txs[j].CreatedAt) })
	return txs, nil
}

func (r *WalletStore) AttachPaymentLink(_ context.Context, id uuid.UUID, paymentLinkID, externalStatus string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	t, ok := r.s.wallet[id]
	if !ok {
		return repository.ErrNotFound
	}
	t.PaymentLinkID = &paymentLinkID
	if t.Status == models.TxStatusInitiated {
		t.ExternalStatus = &externalStatus
	}
	t.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *WalletStore) Transition(_ context.Context, id uuid.UUID, status, externalStatus, paymentLinkID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	t, ok := r.s.wallet[id]
	if !ok || t.Status != models.TxStatusInitiated {
		return false, nil
	}
	t.Status = status
	t.ExternalStatus = &externalStatus
	if paymentLinkID != "" {
		t.PaymentLinkID = &paymentLinkID
	}
	t.UpdatedAt = time.Now().UTC()
	return true, nil
}
