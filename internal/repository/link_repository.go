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

// LinkRepository handles all link database operations.
type LinkRepository struct {
	db *pgxpool.Pool
}

// NewLinkRepository creates a new link repository.
func NewLinkRepository(db *pgxpool.Pool) *LinkRepository {
	return &LinkRepository{db: db}
}

const linkColumns = `id, user_id, slug, title, destination_url, expires_at, is_active, clicks, earnings, created_at`

func scanLink(row pgx.Row) (*models.Link, error) {
	l := &models.Link{}
	err := row.Scan(
		&l.ID,
		&l.UserID,
		&l.Slug,
		&l.Title,
		&l.DestinationURL,
		&l.ExpiresAt,
		&l.IsActive,
		&l.Clicks,
		&l.Earnings,
		&l.CreatedAt,
	)
	return l, err
}

// Create inserts a new link.
// Returns ErrAlreadyExists if the slug is taken.
func (r *LinkRepository) Create(ctx context.Context, link *models.Link) error {
	query := `
		INSERT INTO links (id, user_id, slug, title, destination_url, expires_at, is_active, clicks, earnings, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 0, 0, $8)
	`

	if link.ID == uuid.Nil {
		link.ID = uuid.New()
	}
	if link.CreatedAt.IsZero() {
		link.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.Exec(ctx, query,
		link.ID,
		link.UserID,
		link.Slug,
		link.Title,
		link.DestinationURL,
		link.ExpiresAt,
		link.IsActive,
		link.CreatedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("failed to create link: %w", err)
	}

	return nil
}

// GetBySlug retrieves a link by its slug.
// Returns ErrNotFound if the link doesn't exist.
func (r *LinkRepository) GetBySlug(ctx context.Context, slug string) (*models.Link, error) {
	query := `SELECT ` + linkColumns + ` FROM links WHERE slug = $1`

	link, err := scanLink(r.db.QueryRow(ctx, query, slug))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get link: %w", err)
	}
	return link, nil
}

// GetByID retrieves a link by its id.
func (r *LinkRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Link, error) {
	query := `SELECT ` + linkColumns + ` FROM links WHERE id = $1`

	link, err := scanLink(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get link: %w", err)
	}
	return link, nil
}

// ListByUser returns an owner's links, newest first.
func (r *LinkRepository) ListByUser(ctx context.Context, userID string) ([]models.Link, error) {
	query := `SELECT ` + linkColumns + ` FROM links WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list links: %w", err)
	}
	defer rows.Close()

	links := []models.Link{}
	for rows.Next() {
		link, err := scanLink(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan link: %w", err)
		}
		links = append(links, *link)
	}
	return links, rows.Err()
}

// Update writes the mutable fields (title, active flag) of a link.
func (r *LinkRepository) Update(ctx context.Context, link *models.Link) error {
	query := `UPDATE links SET title = $2, is_active = $3 WHERE id = $1`

	result, err := r.db.Exec(ctx, query, link.ID, link.Title, link.IsActive)
	if err != nil {
		return fmt.Errorf("failed to update link: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete hard-deletes a link owned by userID. Clicks and earnings
// cascade. Returns ErrNotFound if no such link belongs to the owner.
func (r *LinkRepository) Delete(ctx context.Context, id uuid.UUID, userID string) error {
	query := `DELETE FROM links WHERE id = $1 AND user_id = $2`

	result, err := r.db.Exec(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete link: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// IncrementClicks atomically increments the click counter.
// clicks = clicks + 1 is evaluated by the database, so concurrent
// visits never lose an update.
func (r *LinkRepository) IncrementClicks(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE links SET clicks = clicks + 1 WHERE id = $1`

	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to increment clicks: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Exists checks if a slug is already taken.
func (r *LinkRepository) Exists(ctx context.Context, slug string) (bool, error) {
	query := `SELECT 1 FROM links WHERE slug = $1 LIMIT 1`

	var exists int
	err := r.db.QueryRow(ctx, query, slug).Scan(&exists)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check existence: %w", err)
	}
	return true, nil
}

// TotalsByUser sums the running totals over an owner's links.
func (r *LinkRepository) TotalsByUser(ctx context.Context, userID string) (models.LinkTotals, error) {
	query := `
		SELECT COUNT(*), COALESCE(SUM(clicks), 0), COALESCE(SUM(earnings), 0)
		FROM links
		WHERE user_id = $1
	`

	var t models.LinkTotals
	if err := r.db.QueryRow(ctx, query, userID).Scan(&t.Links, &t.Clicks, &t.Earnings); err != nil {
		return t, fmt.Errorf("failed to sum link totals: %w", err)
	}
	return t, nil
}

// ReconcileCounters recomputes links.clicks and links.earnings from the
// click and earning ledgers. Returns how many links were corrected.
func (r *LinkRepository) ReconcileCounters(ctx context.Context) (int64, error) {
	query := `
		WITH ledger AS (
			SELECT l.id,
			       (SELECT COUNT(*) FROM clicks c WHERE c.link_id = l.id) AS clicks,
			       (SELECT COALESCE(SUM(e.amount), 0)
			          FROM earnings e JOIN clicks c ON c.id = e.click_id
			         WHERE c.link_id = l.id) AS earnings
			FROM links l
		)
		UPDATE links
		SET clicks = ledger.clicks, earnings = ledger.earnings
		FROM ledger
		WHERE links.id = ledger.id
		  AND (links.clicks <> ledger.clicks OR links.earnings <> ledger.earnings)
	`

	result, err := r.db.Exec(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to reconcile link counters: %w", err)
	}
	return result.RowsAffected(), nil
}
