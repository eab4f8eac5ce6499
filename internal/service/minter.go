package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/user/smartshort/internal/events"
	"github.com/user/smartshort/internal/metrics"
	"github.com/user/smartshort/internal/models"
)

// EarningsMinter completes clicks and mints at most one earning per
// valid, completed click.
type EarningsMinter struct {
	gate      *AdGate
	earnings  EarningStore
	settings  *SettingsService
	publisher events.Publisher
	logger    logrus.FieldLogger
}

// NewEarningsMinter creates a new minter.
func NewEarningsMinter(gate *AdGate, earnings EarningStore, settings *SettingsService, publisher events.Publisher, logger logrus.FieldLogger) *EarningsMinter {
	return &EarningsMinter{
		gate:      gate,
		earnings:  earnings,
		settings:  settings,
		publisher: publisher,
		logger:    logger,
	}
}

// EarningPerView converts a CPM rate into the amount earned per view.
func EarningPerView(cpm float64) float64 {
	return cpm / 1000
}

// Complete runs the ad gate for clickID and, for a valid click, mints
// its earning.
//
// FLOW:
// 1. Read min view time and CPM (before anything is written)
// 2. Ad gate: dwell window + conditional completion
// 3. Invalid click -> completed, nothing earned
// 4. Insert earning, credit click and link in one transaction
func (m *EarningsMinter) Complete(ctx context.Context, clickID uuid.UUID) (*models.CompletionResponse, error) {
	minView, err := m.settings.Int(ctx, models.SettingMinAdViewTime, models.DefaultMinAdViewSeconds)
	if err != nil {
		return nil, fmt.Errorf("failed to read min view time: %w", err)
	}
	cpm, err := m.settings.Float(ctx, models.SettingDefaultCPM, models.DefaultCPM)
	if err != nil {
		return nil, fmt.Errorf("failed to read CPM: %w", err)
	}

	click, err := m.gate.ValidateClickCompletion(ctx, clickID, time.Duration(minView)*time.Second)
	if err != nil {
		metrics.CompletionsTotal.WithLabelValues("rejected").Inc()
		return nil, err
	}

	m.publisher.Publish(ctx, events.Event{
		Type: events.TypeClickCompleted,
		Key:  click.UserID,
		Data: map[string]any{"click_id": click.ID, "link_id": click.LinkID, "is_valid": click.IsValid},
	})

	if !click.IsValid {
		metrics.CompletionsTotal.WithLabelValues("invalid").Inc()
		return &models.CompletionResponse{
			Success: true,
			Earned:  false,
			Message: "Click completed but not eligible for earnings",
		}, nil
	}

	amount := EarningPerView(cpm)
	minted, err := m.earnings.Mint(ctx, &models.Earning{
		UserID:  click.UserID,
		ClickID: click.ID,
		Amount:  amount,
		CPMRate: cpm,
	}, click.LinkID)
	if err != nil {
		m.logger.WithError(err).WithField("click_id", click.ID).Error("Failed to mint earning for completed click")
		return nil, fmt.Errorf("failed to mint earning: %w", err)
	}
	if !minted {
		metrics.CompletionsTotal.WithLabelValues("duplicate").Inc()
		return &models.CompletionResponse{
			Success: true,
			Earned:  false,
			Message: "Earning already recorded for this click",
		}, nil
	}

	metrics.CompletionsTotal.WithLabelValues("earned").Inc()
	metrics.EarningsMinted.Inc()
	metrics.EarningsAmount.Add(amount)
	m.publisher.Publish(ctx, events.Event{
		Type: events.TypeEarningMinted,
		Key:  click.UserID,
		Data: map[string]any{"click_id": click.ID, "link_id": click.LinkID, "amount": amount, "cpm": cpm},
	})

	return &models.CompletionResponse{
		Success: true,
		Earned:  true,
		Amount:  &amount,
		CPM:     &cpm,
	}, nil
}
