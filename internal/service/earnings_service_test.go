package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/smartshort/internal/models"
)

func TestEarningsService_Summary(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.earnings.WithClock(func() time.Time { return env.now })

	link := env.createLink(t, "sum001")
	env.createLink(t, "sum002")
	env.credit(t, link, 0.01)
	env.credit(t, link, 0.02)

	withdrawal := &models.WalletTransaction{UserID: testOwner, Amount: 0.01, Method: models.PayoutMethodUPI, AccountIdentifier: "me@upi"}
	require.NoError(t, env.store.Wallet.CreateInitiated(ctx, withdrawal))
	_, err := env.store.Wallet.Transition(ctx, withdrawal.ID, models.TxStatusPaid, "paid", "")
	require.NoError(t, err)

	resp, err := env.earnings.Summary(ctx, testOwner)
	require.NoError(t, err)

	assert.Equal(t, 0.03, resp.Summary.TotalEarnings)
	assert.Equal(t, 0.01, resp.Summary.WithdrawnAmount)
	assert.Equal(t, 0.02, resp.Summary.PendingAmount)
	assert.Equal(t, resp.Summary.PendingAmount, resp.Summary.AvailableBalance)
	assert.Equal(t, 2, resp.Summary.TotalLinks)
	assert.Equal(t, 1, resp.Summary.TotalWithdrawals)
	assert.Equal(t, 50.0, resp.MinWithdraw)
	require.Len(t, resp.Withdrawals, 1)

	require.Len(t, resp.Chart, ChartDays)
	today := resp.Chart[ChartDays-1]
	assert.Equal(t, env.now.UTC().Format("2006-01-02"), today.Date)
	assert.Equal(t, 0.03, today.Earnings)
	assert.Equal(t, 0.0, resp.Chart[0].Earnings)
}

func TestEarningsService_EmptyOwner(t *testing.T) {
	env := newTestEnv(t)

	resp, err := env.earnings.Summary(context.Background(), "nobody")
	require.NoError(t, err)

	assert.Zero(t, resp.Summary.TotalEarnings)
	assert.Zero(t, resp.Summary.AvailableBalance)
	assert.NotNil(t, resp.Withdrawals)
	assert.Len(t, resp.Chart, ChartDays)
}

func TestRoundCents(t *testing.T) {
	assert.Equal(t, 0.03, roundCents(0.01+0.02))
	assert.Equal(t, 1.24, roundCents(1.2351))
	assert.Equal(t, 0.0, roundCents(0.004))
}
