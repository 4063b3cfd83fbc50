// Package settings manages runtime configuration stored in the
// system_config table. Values are strings with typed accessors on top,
// and override environment defaults without a restart.
package settings

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Repository handles system_config rows in the brokerage store
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new settings repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "settings").Logger(),
	}
}

// Get retrieves a config value by key. Returns nil when the key is
// not set.
func (r *Repository) Get(key string) (*string, error) {
	var value string
	err := r.db.QueryRow(
		"SELECT config_value FROM system_config WHERE config_key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get config %s: %w", key, err)
	}
	return &value, nil
}

// Set upserts a config value, recording who changed it. Pass zero for
// updatedBy when the change comes from the system itself.
func (r *Repository) Set(key, value string, updatedBy int64) error {
	var by sql.NullInt64
	if updatedBy > 0 {
		by = sql.NullInt64{Int64: updatedBy, Valid: true}
	}

	_, err := r.db.Exec(`
		INSERT INTO system_config (config_key, config_value, updated_by, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(config_key) DO UPDATE SET
			config_value = excluded.config_value,
			updated_by = excluded.updated_by,
			updated_at = excluded.updated_at
	`, key, value, by, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to set config %s: %w", key, err)
	}
	return nil
}

// GetAll retrieves every config value as a map
func (r *Repository) GetAll() (map[string]string, error) {
	rows, err := r.db.Query("SELECT config_key, config_value FROM system_config")
	if err != nil {
		return nil, fmt.Errorf("failed to get all config values: %w", err)
	}
	defer rows.Close()

	result := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			r.log.Warn().Err(err).Msg("Failed to scan config row")
			continue
		}
		result[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate config values: %w", err)
	}

	return result, nil
}

// GetFloat retrieves a config value as float64, falling back to the
// default when unset or unparseable.
func (r *Repository) GetFloat(key string, defaultValue float64) (float64, error) {
	value, err := r.Get(key)
	if err != nil {
		return defaultValue, err
	}
	if value == nil {
		return defaultValue, nil
	}

	floatVal, err := strconv.ParseFloat(*value, 64)
	if err != nil {
		r.log.Warn().Err(err).Str("key", key).Str("value", *value).Msg("Failed to parse float config")
		return defaultValue, nil
	}
	return floatVal, nil
}

// GetInt retrieves a config value as int. Parses via float so "30.0"
// round-trips.
func (r *Repository) GetInt(key string, defaultValue int) (int, error) {
	value, err := r.Get(key)
	if err != nil {
		return defaultValue, err
	}
	if value == nil {
		return defaultValue, nil
	}

	floatVal, err := strconv.ParseFloat(*value, 64)
	if err != nil {
		r.log.Warn().Err(err).Str("key", key).Str("value", *value).Msg("Failed to parse int config")
		return defaultValue, nil
	}
	return int(floatVal), nil
}

// GetBool retrieves a config value as bool. "true", "1", "yes", and
// "on" are truthy.
func (r *Repository) GetBool(key string, defaultValue bool) (bool, error) {
	value, err := r.Get(key)
	if err != nil {
		return defaultValue, err
	}
	if value == nil {
		return defaultValue, nil
	}

	switch strings.ToLower(*value) {
	case "true", "1", "yes", "on":
		return true, nil
	}
	return false, nil
}

// Delete removes a config key. Deleting an absent key is not an error.
func (r *Repository) Delete(key string) error {
	_, err := r.db.Exec("DELETE FROM system_config WHERE config_key = ?", key)
	if err != nil {
		return fmt.Errorf("failed to delete config %s: %w", key, err)
	}
	return nil
}
