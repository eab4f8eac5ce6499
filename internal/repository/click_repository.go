package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/user/smartshort/internal/models"
)

// ClickRepository handles the click ledger.
type ClickRepository struct {
	db *pgxpool.Pool
}

// NewClickRepository creates a new click repository.
func NewClickRepository(db *pgxpool.Pool) *ClickRepository {
	return &ClickRepository{db: db}
}

// Create inserts a click row. The timestamp is assigned here when unset
// and is the only clock the ad gate trusts.
func (r *ClickRepository) Create(ctx context.Context, c *models.Click) error {
	query := `
		INSERT INTO clicks (id, link_id, user_id, timestamp, device, os, referrer, country, city,
		                    ip_hash, user_agent, is_valid, is_completed, earnings)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, false, 0)
	`

	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.Timestamp.IsZero() {
		c.Timestamp = time.Now().UTC()
	}

	_, err := r.db.Exec(ctx, query,
		c.ID,
		c.LinkID,
		c.UserID,
		c.Timestamp,
		c.Device,
		c.OS,
		c.Referrer,
		c.Country,
		c.City,
		c.IPHash,
		c.UserAgent,
		c.IsValid,
	)
	if err != nil {
		return fmt.Errorf("failed to create click: %w", err)
	}
	return nil
}

const clickColumns = `id, link_id, user_id, timestamp, device, os, referrer, country, city,
	ip_hash, user_agent, is_valid, is_completed, completed_at, earnings`

func scanClick(row pgx.Row) (*models.Click, error) {
	c := &models.Click{}
	err := row.Scan(
		&c.ID,
		&c.LinkID,
		&c.UserID,
		&c.Timestamp,
		&c.Device,
		&c.OS,
		&c.Referrer,
		&c.Country,
		&c.City,
		&c.IPHash,
		&c.UserAgent,
		&c.IsValid,
		&c.IsCompleted,
		&c.CompletedAt,
		&c.Earnings,
	)
	return c, err
}

// GetByID retrieves a click.
func (r *ClickRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Click, error) {
	query := `SELECT ` + clickColumns + ` FROM clicks WHERE id = $1`

	c, err := scanClick(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get click: %w", err)
	}
	return c, nil
}

// MarkCompleted flips is_completed for a click that is not yet completed.
// It reports false when another request already completed it; the
// conditional WHERE makes concurrent completions race-free.
func (r *ClickRepository) MarkCompleted(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	query := `
		UPDATE clicks
		SET is_completed = true, completed_at = $2
		WHERE id = $1 AND is_completed = false
	`

	result, err := r.db.Exec(ctx, query, id, at)
	if err != nil {
		return false, fmt.Errorf("failed to complete click: %w", err)
	}
	return result.RowsAffected() == 1, nil
}

// RecentClickTimes returns timestamps of clicks on linkID from ipHash at
// or after since, newest first.
func (r *ClickRepository) RecentClickTimes(ctx context.Context, linkID uuid.UUID, ipHash string, since time.Time) ([]time.Time, error) {
	query := `
		SELECT timestamp
		FROM clicks
		WHERE link_id = $1 AND ip_hash = $2 AND timestamp >= $3
		ORDER BY timestamp DESC
	`

	rows, err := r.db.Query(ctx, query, linkID, ipHash, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent clicks: %w", err)
	}

	times, err := pgx.CollectRows(rows, pgx.RowTo[time.Time])
	if err != nil {
		return nil, fmt.Errorf("failed to scan recent clicks: %w", err)
	}
	return times, nil
}

// ListForAnalytics returns the owner's clicks matching f, oldest first.
// Only the conditions that are set are added to the WHERE clause.
func (r *ClickRepository) ListForAnalytics(ctx context.Context, f models.ClickFilter) ([]models.Click, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT ` + clickColumns + ` FROM clicks WHERE user_id = $1`)
	args := []any{f.UserID}
	where := func(cond string, v any) {
		args = append(args, v)
		fmt.Fprintf(&sb, " AND %s $%d", cond, len(args))
	}

	if f.LinkID != nil {
		where("link_id =", *f.LinkID)
	}
	if f.Since != nil {
		where("timestamp >=", *f.Since)
	}
	if f.Until != nil {
		where("timestamp <", *f.Until)
	}
	if f.Country != "" {
		where("country =", f.Country)
	}
	if f.OS != "" {
		where("os =", f.OS)
	}
	sb.WriteString(" ORDER BY timestamp")

	rows, err := r.db.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query clicks: %w", err)
	}
	defer rows.Close()

	clicks := []models.Click{}
	for rows.Next() {
		c, err := scanClick(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan click: %w", err)
		}
		clicks = append(clicks, *c)
	}
	return clicks, rows.Err()
}
