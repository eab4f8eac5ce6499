package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/smartshort/internal/models"
	"github.com/user/smartshort/internal/payment"
)

var payee = Payee{UserID: testOwner, Email: "owner@example.com"}

// withBalance gives testOwner earned 100 and paid 40.
func withBalance(t *testing.T, env *testEnv) {
	t.Helper()
	ctx := context.Background()
	link := env.createLink(t, "video1")
	env.credit(t, link, 100)

	paid := &models.WalletTransaction{UserID: testOwner, Amount: 40, Method: models.PayoutMethodUPI, AccountIdentifier: "old@upi"}
	require.NoError(t, env.store.Wallet.CreateInitiated(ctx, paid))
	ok, err := env.store.Wallet.Transition(ctx, paid.ID, models.TxStatusPaid, "paid", "")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestRequestPayout_BalanceBoundary(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	withBalance(t, env)

	balance, err := env.payouts.Balance(ctx, testOwner)
	require.NoError(t, err)
	assert.InDelta(t, 60, balance, 1e-9)

	_, err = env.payouts.RequestPayout(ctx, payee, models.PayoutRequest{Amount: 61, UPIID: "me@upi"})
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	resp, err := env.payouts.RequestPayout(ctx, payee, models.PayoutRequest{Amount: 60, UPIID: "me@upi"})
	require.NoError(t, err)

	assert.Equal(t, models.TxStatusInitiated, resp.Payout.Status)
	assert.NotEmpty(t, resp.PaymentLinkID)
	require.Len(t, env.provider.requests, 1)
	assert.Equal(t, resp.Payout.ID.String(), env.provider.requests[0].ReferenceID)
	assert.Equal(t, 60.0, env.provider.requests[0].Amount)

	stored, _ := env.store.Wallet.GetByID(ctx, resp.Payout.ID)
	require.NotNil(t, stored.PaymentLinkID)
	assert.Equal(t, resp.PaymentLinkID, *stored.PaymentLinkID)
	assert.Equal(t, "created", *stored.ExternalStatus)
}

func TestRequestPayout_SingleInFlight(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	withBalance(t, env)

	_, err := env.payouts.RequestPayout(ctx, payee, models.PayoutRequest{Amount: 50, UPIID: "me@upi"})
	require.NoError(t, err)

	_, err = env.payouts.RequestPayout(ctx, payee, models.PayoutRequest{Amount: 50, UPIID: "me@upi"})
	assert.ErrorIs(t, err, ErrPayoutInProgress)
	assert.Len(t, env.provider.requests, 1)
}

func TestRequestPayout_HeldLockRejects(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	withBalance(t, env)

	held, err := env.payouts.locker.Obtain(ctx, "payout:"+testOwner, env.payouts.config.LockTTL)
	require.NoError(t, err)
	defer held.Release(ctx)

	_, err = env.payouts.RequestPayout(ctx, payee, models.PayoutRequest{Amount: 50, UPIID: "me@upi"})
	assert.ErrorIs(t, err, ErrPayoutInProgress)
}

func TestRequestPayout_Validation(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	withBalance(t, env)

	tests := []struct {
		name string
		req  models.PayoutRequest
		want error
	}{
		{"zero amount", models.PayoutRequest{Amount: 0, UPIID: "me@upi"}, ErrInvalidAmount},
		{"negative amount", models.PayoutRequest{Amount: -5, UPIID: "me@upi"}, ErrInvalidAmount},
		{"missing upi", models.PayoutRequest{Amount: 55, UPIID: "  "}, ErrMissingAccount},
		{"below minimum", models.PayoutRequest{Amount: 49.99, UPIID: "me@upi"}, ErrBelowMinimum},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.payouts.RequestPayout(ctx, payee, tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
	assert.Empty(t, env.provider.requests)
}

func TestRequestPayout_ProviderFailureMarksFailed(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	withBalance(t, env)
	env.provider.err = &payment.ProviderError{StatusCode: 400, Description: "Invalid UPI handle"}

	_, err := env.payouts.RequestPayout(ctx, payee, models.PayoutRequest{Amount: 55, UPIID: "bad"})

	require.ErrorIs(t, err, ErrPaymentProvider)
	assert.Equal(t, "Invalid UPI handle", err.Error())

	txs, _ := env.store.Wallet.ListByUser(ctx, testOwner)
	var failed *models.WalletTransaction
	for i := range txs {
		if txs[i].Amount == 55 {
			failed = &txs[i]
		}
	}
	require.NotNil(t, failed)
	assert.Equal(t, models.TxStatusFailed, failed.Status)
	assert.Equal(t, ExternalStatusCreateFailed, *failed.ExternalStatus)

	// A failed attempt does not block the next one.
	env.provider.err = nil
	_, err = env.payouts.RequestPayout(ctx, payee, models.PayoutRequest{Amount: 55, UPIID: "me@upi"})
	assert.NoError(t, err)
}

func TestRequestPayout_NotConfigured(t *testing.T) {
	env := newTestEnv(t)
	withBalance(t, env)
	env.provider.err = fmt.Errorf("wrapped: %w", payment.ErrNotConfigured)

	_, err := env.payouts.RequestPayout(context.Background(), payee, models.PayoutRequest{Amount: 55, UPIID: "me@upi"})
	assert.ErrorIs(t, err, ErrPaymentNotConfigured)
}

// ===========================================
// Webhook
// ===========================================

func webhookBody(event, referenceID, status string) []byte {
	return []byte(fmt.Sprintf(`{"event":%q,"payload":{"payment_link":{"entity":{"id":"plink_9","reference_id":%q,"status":%q}}}}`,
		event, referenceID, status))
}

func initiated(t *testing.T, env *testEnv) uuid.UUID {
	t.Helper()
	withBalance(t, env)
	resp, err := env.payouts.RequestPayout(context.Background(), payee, models.PayoutRequest{Amount: 50, UPIID: "me@upi"})
	require.NoError(t, err)
	return resp.Payout.ID
}

func TestHandleWebhook_InvalidSignature(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	txID := initiated(t, env)
	body := webhookBody(payment.EventPaymentLinkPaid, txID.String(), "paid")

	err := env.payouts.HandleWebhook(ctx, body, payment.Sign(body, "wrong-secret"))
	assert.ErrorIs(t, err, ErrInvalidSignature)

	tx, _ := env.store.Wallet.GetByID(ctx, txID)
	assert.Equal(t, models.TxStatusInitiated, tx.Status)
}

func TestHandleWebhook_PaidThenReplay(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	txID := initiated(t, env)
	paid := webhookBody(payment.EventPaymentLinkPaid, txID.String(), "paid")

	require.NoError(t, env.payouts.HandleWebhook(ctx, paid, payment.Sign(paid, testWebhookSecret)))
	tx, _ := env.store.Wallet.GetByID(ctx, txID)
	assert.Equal(t, models.TxStatusPaid, tx.Status)
	assert.Equal(t, "plink_9", *tx.PaymentLinkID)

	// Terminal states are final.
	expired := webhookBody(payment.EventPaymentLinkExpired, txID.String(), "expired")
	require.NoError(t, env.payouts.HandleWebhook(ctx, expired, payment.Sign(expired, testWebhookSecret)))
	tx, _ = env.store.Wallet.GetByID(ctx, txID)
	assert.Equal(t, models.TxStatusPaid, tx.Status)

	balance, _ := env.payouts.Balance(ctx, testOwner)
	assert.InDelta(t, 10, balance, 1e-9)
}

func TestHandleWebhook_ExpiredAndCancelledFail(t *testing.T) {
	for _, event := range []string{payment.EventPaymentLinkExpired, payment.EventPaymentLinkCancelled} {
		t.Run(event, func(t *testing.T) {
			ctx := context.Background()
			env := newTestEnv(t)
			txID := initiated(t, env)
			body := webhookBody(event, txID.String(), "")

			require.NoError(t, env.payouts.HandleWebhook(ctx, body, payment.Sign(body, testWebhookSecret)))

			tx, _ := env.store.Wallet.GetByID(ctx, txID)
			assert.Equal(t, models.TxStatusFailed, tx.Status)
			assert.Equal(t, event, *tx.ExternalStatus)
		})
	}
}

func TestHandleWebhook_NoOps(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	txID := initiated(t, env)

	bodies := [][]byte{
		webhookBody("payment.captured", txID.String(), "captured"),
		webhookBody(payment.EventPaymentLinkPaid, "", "paid"),
		webhookBody(payment.EventPaymentLinkPaid, "not-a-uuid", "paid"),
		webhookBody(payment.EventPaymentLinkPaid, uuid.NewString(), "paid"),
		[]byte(`{"event":"payment_link.paid","payload":{}}`),
	}
	for _, body := range bodies {
		assert.NoError(t, env.payouts.HandleWebhook(ctx, body, payment.Sign(body, testWebhookSecret)))
	}

	tx, _ := env.store.Wallet.GetByID(ctx, txID)
	assert.Equal(t, models.TxStatusInitiated, tx.Status)
}

func TestHandleWebhook_BadPayloadAndConfig(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	txID := initiated(t, env)

	body := []byte(`not json`)
	assert.NoError(t, env.payouts.HandleWebhook(ctx, body, payment.Sign(body, testWebhookSecret)))
	tx, _ := env.store.Wallet.GetByID(ctx, txID)
	assert.Equal(t, models.TxStatusInitiated, tx.Status)

	env.payouts.webhookSecret = ""
	err := env.payouts.HandleWebhook(ctx, body, "anything")
	assert.True(t, errors.Is(err, ErrWebhookNotConfigured))
}
