package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/user/smartshort/internal/config"
	"github.com/user/smartshort/internal/events"
	"github.com/user/smartshort/internal/lock"
	"github.com/user/smartshort/internal/metrics"
	"github.com/user/smartshort/internal/models"
	"github.com/user/smartshort/internal/payment"
	"github.com/user/smartshort/internal/repository"
)

// ExternalStatusCreateFailed marks a withdrawal whose payment link could
// not be created.
const ExternalStatusCreateFailed = "create_failed"

// PaymentLinkCreator creates payout payment links.
type PaymentLinkCreator interface {
	CreatePaymentLink(ctx context.Context, req payment.PaymentLinkRequest) (*payment.PaymentLink, error)
}

// ProviderError carries the processor's message for the client.
type ProviderError struct {
	Description string
	Err         error
}

func (e *ProviderError) Error() string { return e.Description }

func (e *ProviderError) Unwrap() []error { return []error{ErrPaymentProvider, e.Err} }

// PayoutService orchestrates withdrawals: balance checks, the single
// in-flight rule and the payment-link lifecycle.
//
// SINGLE IN-FLIGHT: a per-owner lock serializes check-and-insert, and
// the partial unique index on initiated rows backs it up if the lock
// is lost (TTL expiry, Redis failover).
type PayoutService struct {
	links         LinkStore
	wallet        WalletStore
	locker        lock.Locker
	provider      PaymentLinkCreator
	config        config.PayoutConfig
	webhookSecret string
	publisher     events.Publisher
	logger        logrus.FieldLogger
}

// NewPayoutService creates a new payout service.
func NewPayoutService(
	links LinkStore,
	wallet WalletStore,
	locker lock.Locker,
	provider PaymentLinkCreator,
	cfg config.PayoutConfig,
	webhookSecret string,
	publisher events.Publisher,
	logger logrus.FieldLogger,
) *PayoutService {
	return &PayoutService{
		links:         links,
		wallet:        wallet,
		locker:        locker,
		provider:      provider,
		config:        cfg,
		webhookSecret: webhookSecret,
		publisher:     publisher,
		logger:        logger,
	}
}

// MinWithdraw returns the configured minimum withdrawal.
func (s *PayoutService) MinWithdraw() float64 {
	return s.config.MinWithdrawAmount
}

// Balance returns total link earnings minus paid withdrawals, floored at 0.
func (s *PayoutService) Balance(ctx context.Context, userID string) (float64, error) {
	totals, err := s.links.TotalsByUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	paid, err := s.wallet.SumPaid(ctx, userID)
	if err != nil {
		return 0, err
	}
	return math.Max(0, totals.Earnings-paid), nil
}

// Payee identifies who is withdrawing.
type Payee struct {
	UserID string
	Email  string
}

// RequestPayout creates a withdrawal and its payment link.
//
// FLOW:
// 1. Validate amount and UPI id
// 2. Take the per-owner lock
// 3. Reject if a withdrawal is already in flight
// 4. Check minimum and balance
// 5. Insert the initiated row, then create the payment link
// 6. Processor failure marks the row failed (create_failed)
func (s *PayoutService) RequestPayout(ctx context.Context, payee Payee, req models.PayoutRequest) (*models.PayoutResponse, error) {
	if req.Amount <= 0 || math.IsNaN(req.Amount) || math.IsInf(req.Amount, 0) {
		return nil, ErrInvalidAmount
	}
	upiID := strings.TrimSpace(req.UPIID)
	if upiID == "" {
		return nil, ErrMissingAccount
	}

	log := s.logger.WithField("user_id", payee.UserID)

	held, err := s.locker.Obtain(ctx, "payout:"+payee.UserID, s.config.LockTTL)
	if errors.Is(err, lock.ErrNotObtained) {
		return nil, ErrPayoutInProgress
	}
	if err != nil {
		return nil, fmt.Errorf("failed to obtain payout lock: %w", err)
	}
	defer func() {
		if err := held.Release(context.WithoutCancel(ctx)); err != nil {
			log.WithError(err).Warn("Failed to release payout lock")
		}
	}()

	inFlight, err := s.wallet.HasInitiated(ctx, payee.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing payouts: %w", err)
	}
	if inFlight {
		return nil, ErrPayoutInProgress
	}

	balance, err := s.Balance(ctx, payee.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to compute balance: %w", err)
	}
	if req.Amount < s.config.MinWithdrawAmount {
		return nil, fmt.Errorf("%w: minimum withdrawal amount is %.2f", ErrBelowMinimum, s.config.MinWithdrawAmount)
	}
	// Compare in paise so float noise in the running sum cannot flip
	// an exact-balance request.
	if payment.ToPaise(req.Amount) > payment.ToPaise(balance) {
		return nil, ErrInsufficientBalance
	}

	tx := &models.WalletTransaction{
		UserID:            payee.UserID,
		Amount:            req.Amount,
		Method:            models.PayoutMethodUPI,
		AccountIdentifier: upiID,
	}
	if err := s.wallet.CreateInitiated(ctx, tx); err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			return nil, ErrPayoutInProgress
		}
		return nil, fmt.Errorf("failed to create payout record: %w", err)
	}
	metrics.PayoutsTotal.WithLabelValues(models.TxStatusInitiated).Inc()

	customer := payee.Email
	if customer == "" {
		customer = "SmartShort User"
	}
	link, err := s.provider.CreatePaymentLink(ctx, payment.PaymentLinkRequest{
		Amount:        tx.Amount,
		ReferenceID:   tx.ID.String(),
		Description:   "SmartShort Payout",
		CustomerName:  customer,
		CustomerEmail: payee.Email,
	})
	if err != nil {
		return nil, s.failCreate(ctx, tx, err)
	}

	if err := s.wallet.AttachPaymentLink(ctx, tx.ID, link.ID, link.Status); err != nil {
		// The link exists at the processor; the webhook carries its id too.
		log.WithError(err).WithField("tx_id", tx.ID).Error("Failed to store payment link id")
	}
	tx.PaymentLinkID = &link.ID
	tx.ExternalStatus = &link.Status

	s.publishPayout(ctx, tx)
	log.WithFields(logrus.Fields{"tx_id": tx.ID, "amount": tx.Amount}).Info("Payout requested")

	return &models.PayoutResponse{
		Message:       "Withdrawal request created",
		Payout:        tx,
		PaymentLinkID: link.ID,
	}, nil
}

// failCreate marks tx failed after a processor error and returns the
// error to surface.
func (s *PayoutService) failCreate(ctx context.Context, tx *models.WalletTransaction, cause error) error {
	log := s.logger.WithFields(logrus.Fields{"user_id": tx.UserID, "tx_id": tx.ID})
	log.WithError(cause).Error("Failed to create payment link")

	if _, err := s.wallet.Transition(context.WithoutCancel(ctx), tx.ID, models.TxStatusFailed, ExternalStatusCreateFailed, ""); err != nil {
		log.WithError(err).Error("Failed to mark payout as failed")
	} else {
		tx.Status = models.TxStatusFailed
		metrics.PayoutsTotal.WithLabelValues(models.TxStatusFailed).Inc()
		s.publishPayout(ctx, tx)
	}

	if errors.Is(cause, payment.ErrNotConfigured) {
		return ErrPaymentNotConfigured
	}
	var perr *payment.ProviderError
	if errors.As(cause, &perr) {
		return &ProviderError{Description: perr.Description, Err: cause}
	}
	return &ProviderError{Description: "Failed to create Razorpay payout link", Err: cause}
}

// ===========================================
// Webhook
// ===========================================

// HandleWebhook verifies and applies a payment-link webhook.
//
// paid -> paid; expired / cancelled -> failed. Only initiated rows
// move; replays and events for terminal rows are no-ops. Unknown events
// and payloads that are not JSON or carry no payment-link entity are
// acknowledged unchanged, so the processor does not redeliver them.
func (s *PayoutService) HandleWebhook(ctx context.Context, body []byte, signature string) error {
	if s.webhookSecret == "" {
		return ErrWebhookNotConfigured
	}
	if !payment.VerifySignature(body, signature, s.webhookSecret) {
		return ErrInvalidSignature
	}

	ev, err := payment.ParseWebhook(body)
	if err != nil {
		metrics.WebhooksTotal.WithLabelValues("malformed").Inc()
		s.logger.WithError(err).Warn("Signed webhook with unreadable payload ignored")
		return nil
	}
	metrics.WebhooksTotal.WithLabelValues(ev.Event).Inc()

	log := s.logger.WithFields(logrus.Fields{"event": ev.Event, "reference_id": ev.ReferenceID})
	if !ev.HasEntity || ev.ReferenceID == "" {
		log.Debug("Webhook without payment link reference ignored")
		return nil
	}

	var status, external string
	switch ev.Event {
	case payment.EventPaymentLinkPaid:
		status, external = models.TxStatusPaid, firstNonEmpty(ev.Status, "paid")
	case payment.EventPaymentLinkExpired, payment.EventPaymentLinkCancelled:
		status, external = models.TxStatusFailed, firstNonEmpty(ev.Status, ev.Event)
	default:
		log.Debug("Unhandled webhook event ignored")
		return nil
	}

	txID, err := uuid.Parse(ev.ReferenceID)
	if err != nil {
		log.Warn("Webhook reference is not a transaction id")
		return nil
	}

	moved, err := s.wallet.Transition(ctx, txID, status, external, ev.PaymentLinkID)
	if err != nil {
		return fmt.Errorf("failed to apply webhook: %w", err)
	}
	if !moved {
		log.Info("Webhook for missing or settled transaction ignored")
		return nil
	}

	metrics.PayoutsTotal.WithLabelValues(status).Inc()
	log.WithField("status", status).Info("Payout settled")
	if tx, err := s.wallet.GetByID(ctx, txID); err == nil {
		s.publishPayout(ctx, tx)
	}
	return nil
}

func (s *PayoutService) publishPayout(ctx context.Context, tx *models.WalletTransaction) {
	s.publisher.Publish(ctx, events.Event{
		Type: events.TypePayoutUpdated,
		Key:  tx.UserID,
		Data: map[string]any{"tx_id": tx.ID, "status": tx.Status, "amount": tx.Amount},
	})
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
