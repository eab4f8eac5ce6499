package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/user/smartshort/internal/models"
)

// WalletRepository handles withdrawal transactions.
type WalletRepository struct {
	db *pgxpool.Pool
}

// NewWalletRepository creates a new wallet repository.
func NewWalletRepository(db *pgxpool.Pool) *WalletRepository {
	return &WalletRepository{db: db}
}

const walletColumns = `id, user_id, amount, status, method, account_identifier, payment_link_id, razorpay_status, created_at, updated_at`

func scanWalletTx(row pgx.Row) (*models.WalletTransaction, error) {
	t := &models.WalletTransaction{}
	err := row.Scan(
		&t.ID,
		&t.UserID,
		&t.Amount,
		&t.Status,
		&t.Method,
		&t.AccountIdentifier,
		&t.PaymentLinkID,
		&t.ExternalStatus,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	return t, err
}

// CreateInitiated inserts a transaction in the initiated state.
// Returns ErrAlreadyExists when the owner already has one in flight
// (partial unique index on user_id WHERE status = 'initiated').
func (r *WalletRepository) CreateInitiated(ctx context.Context, t *models.WalletTransaction) error {
	query := `
		INSERT INTO wallet_transactions (id, user_id, amount, status, method, account_identifier, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
	`

	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	now := time.Now().UTC()
	t.Status = models.TxStatusInitiated
	t.CreatedAt, t.UpdatedAt = now, now

	_, err := r.db.Exec(ctx, query, t.ID, t.UserID, t.Amount, t.Status, t.Method, t.AccountIdentifier, now)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("failed to create wallet transaction: %w", err)
	}
	return nil
}

// GetByID retrieves a wallet transaction.
func (r *WalletRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.WalletTransaction, error) {
	query := `SELECT ` + walletColumns + ` FROM wallet_transactions WHERE id = $1`

	t, err := scanWalletTx(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get wallet transaction: %w", err)
	}
	return t, nil
}

// HasInitiated reports whether the owner has a withdrawal in flight.
func (r *WalletRepository) HasInitiated(ctx context.Context, userID string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM wallet_transactions WHERE user_id = $1 AND status = 'initiated')`

	var exists bool
	if err := r.db.QueryRow(ctx, query, userID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check in-flight payouts: %w", err)
	}
	return exists, nil
}

// SumPaid returns the total amount of the owner's paid withdrawals.
func (r *WalletRepository) SumPaid(ctx context.Context, userID string) (float64, error) {
	query := `SELECT COALESCE(SUM(amount), 0) FROM wallet_transactions WHERE user_id = $1 AND status = 'paid'`

	var total float64
	if err := r.db.QueryRow(ctx, query, userID).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to sum paid withdrawals: %w", err)
	}
	return total, nil
}

// ListByUser returns an owner's withdrawals, newest first.
func (r *WalletRepository) ListByUser(ctx context.Context, userID string) ([]models.WalletTransaction, error) {
	query := `SELECT ` + walletColumns + ` FROM wallet_transactions WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list wallet transactions: %w", err)
	}
	defer rows.Close()

	txs := []models.WalletTransaction{}
	for rows.Next() {
		t, err := scanWalletTx(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan wallet transaction: %w", err)
		}
		txs = append(txs, *t)
	}
	return txs, rows.Err()
}

// AttachPaymentLink stores the processor's payment link id. The external
// status is only overwritten while the row is still initiated, so a
// webhook that raced ahead is not clobbered.
func (r *WalletRepository) AttachPaymentLink(ctx context.Context, id uuid.UUID, paymentLinkID, externalStatus string) error {
	query := `
		UPDATE wallet_transactions
		SET payment_link_id = $2,
		    razorpay_status = CASE WHEN status = 'initiated' THEN $3 ELSE razorpay_status END,
		    updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.Exec(ctx, query, id, paymentLinkID, externalStatus)
	if err != nil {
		return fmt.Errorf("failed to attach payment link: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Transition moves an initiated transaction to a terminal status.
// An empty paymentLinkID keeps the stored one. It reports false when the
// row is missing or already terminal.
func (r *WalletRepository) Transition(ctx context.Context, id uuid.UUID, status, externalStatus, paymentLinkID string) (bool, error) {
	query := `
		UPDATE wallet_transactions
		SET status = $2,
		    razorpay_status = $3,
		    payment_link_id = COALESCE(NULLIF($4, ''), payment_link_id),
		    updated_at = NOW()
		WHERE id = $1 AND status = 'initiated'
	`

	result, err := r.db.Exec(ctx, query, id, status, externalStatus, paymentLinkID)
	if err != nil {
		return false, fmt.Errorf("failed to transition wallet transaction: %w", err)
	}
	return result.RowsAffected() == 1, nil
}
