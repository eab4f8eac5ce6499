package service

import (
	"context"
	"time"

	"github.com/go-redis/cache/v9"
	"github.com/google/uuid"

	"github.com/user/smartshort/internal/fraud"
	"github.com/user/smartshort/internal/models"
)

// Storage the services depend on. The PostgreSQL repositories and the
// memstore package both satisfy these.

type LinkStore interface {
	Create(ctx context.Context, link *models.Link) error
	GetBySlug(ctx context.Context, slug string) (*models.Link, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Link, error)
	ListByUser(ctx context.Context, userID string) ([]models.Link, error)
	Update(ctx context.Context, link *models.Link) error
	Delete(ctx context.Context, id uuid.UUID, userID string) error
	IncrementClicks(ctx context.Context, id uuid.UUID) error
	Exists(ctx context.Context, slug string) (bool, error)
	TotalsByUser(ctx context.Context, userID string) (models.LinkTotals, error)
}

type ClickStore interface {
	fraud.ClickHistory
	Create(ctx context.Context, c *models.Click) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Click, error)
	MarkCompleted(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
	ListForAnalytics(ctx context.Context, f models.ClickFilter) ([]models.Click, error)
}

type EarningStore interface {
	Mint(ctx context.Context, e *models.Earning, linkID uuid.UUID) (bool, error)
	DailyTotals(ctx context.Context, userID string, since time.Time) (map[string]float64, error)
}

type WalletStore interface {
	CreateInitiated(ctx context.Context, t *models.WalletTransaction) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.WalletTransaction, error)
	HasInitiated(ctx context.Context, userID string) (bool, error)
	SumPaid(ctx context.Context, userID string) (float64, error)
	ListByUser(ctx context.Context, userID string) ([]models.WalletTransaction, error)
	AttachPaymentLink(ctx context.Context, id uuid.UUID, paymentLinkID, externalStatus string) error
	Transition(ctx context.Context, id uuid.UUID, status, externalStatus, paymentLinkID string) (bool, error)
}

type SettingsStore interface {
	GetOrInit(ctx context.Context, key, defaultValue string) (string, error)
}

type CounterReconciler interface {
	ReconcileCounters(ctx context.Context) (int64, error)
}

// LinkCache is the subset of *cache.Cache used for slug lookups.
type LinkCache interface {
	Once(item *cache.Item) error
	Delete(ctx context.Context, key string) error
}
