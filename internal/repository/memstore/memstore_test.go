package memstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/smartshort/internal/models"
	"github.com/user/smartshort/internal/repository"
)

func seedLink(t *testing.T, s *Store, slug string) *models.Link {
	t.Helper()
	link := &models.Link{UserID: "owner-1", Slug: slug, Title: "t", DestinationURL: "https://example.com", IsActive: true}
	require.NoError(t, s.Links.Create(context.Background(), link))
	return link
}

func TestLinks_DuplicateSlug(t *testing.T) {
	s := New()
	seedLink(t, s, "abc123")

	err := s.Links.Create(context.Background(), &models.Link{UserID: "owner-2", Slug: "abc123"})

	assert.ErrorIs(t, err, repository.ErrAlreadyExists)
}

func TestLinks_DeleteCascadesAndChecksOwner(t *testing.T) {
	ctx := context.Background()
	s := New()
	link := seedLink(t, s, "abc123")
	click := &models.Click{LinkID: link.ID, UserID: link.UserID, IsValid: true}
	require.NoError(t, s.Clicks.Create(ctx, click))
	_, err := s.Earnings.Mint(ctx, &models.Earning{UserID: link.UserID, ClickID: click.ID, Amount: 0.01}, link.ID)
	require.NoError(t, err)

	assert.ErrorIs(t, s.Links.Delete(ctx, link.ID, "someone-else"), repository.ErrNotFound)
	require.NoError(t, s.Links.Delete(ctx, link.ID, link.UserID))

	_, err = s.Clicks.GetByID(ctx, click.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.Zero(t, s.Earnings.earningCount(click.ID))
	exists, _ := s.Links.Exists(ctx, "abc123")
	assert.False(t, exists)
}

func TestEarnings_MintOncePerClick(t *testing.T) {
	ctx := context.Background()
	s := New()
	link := seedLink(t, s, "abc123")
	click := &models.Click{LinkID: link.ID, UserID: link.UserID, IsValid: true}
	require.NoError(t, s.Clicks.Create(ctx, click))

	first, err := s.Earnings.Mint(ctx, &models.Earning{UserID: link.UserID, ClickID: click.ID, Amount: 0.01}, link.ID)
	require.NoError(t, err)
	second, err := s.Earnings.Mint(ctx, &models.Earning{UserID: link.UserID, ClickID: click.ID, Amount: 0.01}, link.ID)
	require.NoError(t, err)

	assert.True(t, first)
	assert.False(t, second)
	got, _ := s.Links.GetByID(ctx, link.ID)
	assert.InDelta(t, 0.01, got.Earnings, 1e-9)
}

func TestWallet_OneInitiatedPerOwner(t *testing.T) {
	ctx := context.Background()
	s := New()

	first := &models.WalletTransaction{UserID: "owner-1", Amount: 50}
	require.NoError(t, s.Wallet.CreateInitiated(ctx, first))
	assert.ErrorIs(t, s.Wallet.CreateInitiated(ctx, &models.WalletTransaction{UserID: "owner-1", Amount: 10}), repository.ErrAlreadyExists)

	ok, err := s.Wallet.Transition(ctx, first.ID, models.TxStatusPaid, "paid", "plink_1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Wallet.Transition(ctx, first.ID, models.TxStatusFailed, "expired", "")
	require.NoError(t, err)
	assert.False(t, ok, "terminal states are final")

	require.NoError(t, s.Wallet.CreateInitiated(ctx, &models.WalletTransaction{UserID: "owner-1", Amount: 10}))
}

func TestReconcileCounters(t *testing.T) {
	ctx := context.Background()
	s := New()
	link := seedLink(t, s, "abc123")
	click := &models.Click{LinkID: link.ID, UserID: link.UserID, IsValid: true}
	require.NoError(t, s.Clicks.Create(ctx, click))
	_, err := s.Earnings.Mint(ctx, &models.Earning{UserID: link.UserID, ClickID: click.ID, Amount: 0.01}, link.ID)
	require.NoError(t, err)

	// Counter increment is best effort; simulate the lost update.
	fixed, err := s.Links.ReconcileCounters(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, fixed)

	got, _ := s.Links.GetByID(ctx, link.ID)
	assert.EqualValues(t, 1, got.Clicks)
	assert.InDelta(t, 0.01, got.Earnings, 1e-9)

	fixed, err = s.Links.ReconcileCounters(ctx)
	require.NoError(t, err)
	assert.Zero(t, fixed)
}

func TestRecentClickTimes_NewestFirst(t *testing.T) {
	ctx := context.Background()
	s := New()
	link := seedLink(t, s, "abc123")
	now := time.Now().UTC()

	for _, age := range []time.Duration{50 * time.Minute, 5 * time.Minute, 90 * time.Minute} {
		require.NoError(t, s.Clicks.Create(ctx, &models.Click{LinkID: link.ID, IPHash: "h", Timestamp: now.Add(-age)}))
	}

	times, err := s.Clicks.RecentClickTimes(ctx, link.ID, "h", now.Add(-time.Hour))
	require.NoError(t, err)
	require.Len(t, times, 2)
	assert.True(t, times[0].After(times[1]))
}
