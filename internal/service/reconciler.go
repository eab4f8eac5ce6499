package service

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/user/smartshort/internal/metrics"
)

// Reconciler repairs links.clicks and links.earnings from the ledgers.
// The click counter increment is best effort, so drift is expected
// after partial failures; the ledgers are authoritative.
type Reconciler struct {
	store   CounterReconciler
	logger  logrus.FieldLogger
	timeout time.Duration
}

// NewReconciler creates a new reconciler.
func NewReconciler(store CounterReconciler, logger logrus.FieldLogger) *Reconciler {
	return &Reconciler{store: store, logger: logger, timeout: 5 * time.Minute}
}

// Run reconciles once and returns the number of corrected links.
func (r *Reconciler) Run(ctx context.Context) (int64, error) {
	fixed, err := r.store.ReconcileCounters(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to reconcile counters: %w", err)
	}
	if fixed > 0 {
		metrics.ReconciledLinks.Add(float64(fixed))
		r.logger.WithField("links", fixed).Warn("Corrected drifted link counters")
	}
	return fixed, nil
}

// Register schedules Run on c. An empty schedule registers nothing.
func (r *Reconciler) Register(c *cron.Cron, schedule string) error {
	if schedule == "" {
		return nil
	}
	_, err := c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()
		if _, err := r.Run(ctx); err != nil {
			r.logger.WithError(err).Error("Counter reconciliation failed")
		}
	})
	if err != nil {
		return fmt.Errorf("invalid reconcile schedule %q: %w", schedule, err)
	}
	return nil
}
