package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/user/smartshort/internal/models"
)

// ChartDays is the length of the daily earnings chart, today included.
const ChartDays = 30

// EarningsService builds an owner's earnings overview.
type EarningsService struct {
	links    LinkStore
	earnings EarningStore
	wallet   WalletStore
	payouts  *PayoutService
	now      func() time.Time
}

// NewEarningsService creates a new earnings service.
func NewEarningsService(links LinkStore, earnings EarningStore, wallet WalletStore, payouts *PayoutService) *EarningsService {
	return &EarningsService{links: links, earnings: earnings, wallet: wallet, payouts: payouts, now: time.Now}
}

// WithClock replaces the time source used for the chart window.
func (s *EarningsService) WithClock(now func() time.Time) *EarningsService {
	s.now = now
	return s
}

// Summary returns totals, the daily chart and the withdrawal history.
func (s *EarningsService) Summary(ctx context.Context, userID string) (*models.EarningsResponse, error) {
	totals, err := s.links.TotalsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch links: %w", err)
	}

	withdrawals, err := s.wallet.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch withdrawals: %w", err)
	}

	var withdrawn float64
	for _, tx := range withdrawals {
		if tx.Status == models.TxStatusPaid {
			withdrawn += tx.Amount
		}
	}
	pending := math.Max(0, totals.Earnings-withdrawn)

	chart, err := s.chart(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &models.EarningsResponse{
		Summary: models.EarningsSummary{
			TotalEarnings:    roundCents(totals.Earnings),
			PendingAmount:    roundCents(pending),
			WithdrawnAmount:  roundCents(withdrawn),
			AvailableBalance: roundCents(pending),
			TotalClicks:      totals.Clicks,
			TotalLinks:       totals.Links,
			TotalWithdrawals: len(withdrawals),
		},
		Chart:       chart,
		Withdrawals: withdrawals,
		MinWithdraw: s.payouts.MinWithdraw(),
	}, nil
}

// chart returns one point per UTC day for the last ChartDays days,
// oldest first, zero-filled.
func (s *EarningsService) chart(ctx context.Context, userID string) ([]models.DailyEarning, error) {
	today := s.now().UTC().Truncate(24 * time.Hour)
	start := today.AddDate(0, 0, -(ChartDays - 1))

	daily, err := s.earnings.DailyTotals(ctx, userID, start)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch earnings data: %w", err)
	}

	chart := make([]models.DailyEarning, 0, ChartDays)
	for i := 0; i < ChartDays; i++ {
		day := start.AddDate(0, 0, i).Format("2006-01-02")
		chart = append(chart, models.DailyEarning{Date: day, Earnings: roundCents(daily[day])})
	}
	return chart, nil
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
