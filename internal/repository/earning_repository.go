package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/user/smartshort/internal/database"
	"github.com/user/smartshort/internal/models"
)

// EarningRepository handles the earning ledger.
type EarningRepository struct {
	db *pgxpool.Pool
}

// NewEarningRepository creates a new earning repository.
func NewEarningRepository(db *pgxpool.Pool) *EarningRepository {
	return &EarningRepository{db: db}
}

// Mint records an earning for a completed click and credits the click and
// its link in one transaction. It reports false, with no writes, when an
// earning for the click already exists.
func (r *EarningRepository) Mint(ctx context.Context, e *models.Earning, linkID uuid.UUID) (bool, error) {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	minted := false
	err := database.WithTransaction(ctx, r.db, func(tx pgx.Tx) error {
		result, err := tx.Exec(ctx, `
			INSERT INTO earnings (id, user_id, click_id, amount, cpm_rate, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (click_id) DO NOTHING
		`, e.ID, e.UserID, e.ClickID, e.Amount, e.CPMRate, e.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert earning: %w", err)
		}
		if result.RowsAffected() == 0 {
			return nil
		}

		if _, err := tx.Exec(ctx, `UPDATE clicks SET earnings = $2 WHERE id = $1`, e.ClickID, e.Amount); err != nil {
			return fmt.Errorf("failed to credit click: %w", err)
		}
		if _, err := tx.Exec(ctx, `UPDATE links SET earnings = earnings + $2 WHERE id = $1`, linkID, e.Amount); err != nil {
			return fmt.Errorf("failed to credit link: %w", err)
		}

		minted = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return minted, nil
}

// DailyTotals sums an owner's earnings per UTC day since the given time.
// Keys are YYYY-MM-DD; days without earnings are absent.
func (r *EarningRepository) DailyTotals(ctx context.Context, userID string, since time.Time) (map[string]float64, error) {
	query := `
		SELECT to_char(created_at AT TIME ZONE 'UTC', 'YYYY-MM-DD') AS day, SUM(amount)
		FROM earnings
		WHERE user_id = $1 AND created_at >= $2
		GROUP BY day
	`

	rows, err := r.db.Query(ctx, query, userID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily earnings: %w", err)
	}
	defer rows.Close()

	totals := make(map[string]float64)
	for rows.Next() {
		var day string
		var amount float64
		if err := rows.Scan(&day, &amount); err != nil {
			return nil, fmt.Errorf("failed to scan daily earnings: %w", err)
		}
		totals[day] = amount
	}
	return totals, rows.Err()
}
