package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// SettingsRepository handles the key/value settings table.
type SettingsRepository struct {
	db *pgxpool.Pool
}

// NewSettingsRepository creates a new settings repository.
func NewSettingsRepository(db *pgxpool.Pool) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// GetOrInit returns the stored value for key, persisting defaultValue
// first if the key is absent. Concurrent first reads agree on one value.
func (r *SettingsRepository) GetOrInit(ctx context.Context, key, defaultValue string) (string, error) {
	insert := `INSERT INTO settings (key, value) VALUES ($1, $2) ON CONFLICT (key) DO NOTHING`
	if _, err := r.db.Exec(ctx, insert, key, defaultValue); err != nil {
		return "", fmt.Errorf("failed to init setting %s: %w", key, err)
	}

	var value string
	if err := r.db.QueryRow(ctx, `SELECT value FROM settings WHERE key = $1`, key).Scan(&value); err != nil {
		return "", fmt.Errorf("failed to read setting %s: %w", key, err)
	}
	return value, nil
}
