package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// SettingsRepository provides access to the system_setting key/value table.
type SettingsRepository struct {
	db *sql.DB
}

// NewSettingsRepository creates a new SettingsRepository with the provided database connection.
func NewSettingsRepository(db *sql.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// Get retrieves a setting value. Returns ok=false when the key is absent.
func (r *SettingsRepository) Get(key string) (string, bool, error) {
	var value string
	err := r.db.QueryRow(`SELECT value FROM system_setting WHERE "key" = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to query system_setting table: %w", err)
	}
	return value, true, nil
}

// Set stores a setting value, overwriting any existing value for the key.
func (r *SettingsRepository) Set(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO system_setting ("key", value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT("key") DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`

	_, err := r.db.ExecContext(ctx, query, key, value, FormatTime(time.Now()))
	if err != nil {
		return fmt.Errorf("failed to upsert system_setting: %w", err)
	}
	return nil
}
