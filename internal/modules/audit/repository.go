// Package audit persists the activity, access, and error trails. The
// activity trail is fed by the event bus; access rows come from HTTP
// middleware. Old rows age out on a schedule.
package audit

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Repository handles audit log rows in the brokerage store
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new audit repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "audit").Logger(),
	}
}

// RecordActivity appends an activity row
func (r *Repository) RecordActivity(entry ActivityEntry) error {
	_, err := r.db.Exec(`
		INSERT INTO activity_logs (user_id, event_type, source, description, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		nullInt64(entry.UserID),
		entry.EventType,
		entry.Source,
		nullString(entry.Description),
		nullString(entry.Metadata),
		entry.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to record activity: %w", err)
	}
	return nil
}

// RecordAccess appends an access row
func (r *Repository) RecordAccess(entry AccessEntry) error {
	_, err := r.db.Exec(`
		INSERT INTO access_logs
		(user_id, ip_address, request_method, request_path, response_status, response_time_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		nullInt64(entry.UserID),
		nullString(entry.IPAddress),
		entry.RequestMethod,
		entry.RequestPath,
		entry.ResponseStatus,
		entry.ResponseTimeMS,
		entry.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to record access: %w", err)
	}
	return nil
}

// RecordError appends an error row
func (r *Repository) RecordError(entry ErrorEntry) error {
	_, err := r.db.Exec(`
		INSERT INTO error_logs (user_id, error_type, error_message, request_path, created_at)
		VALUES (?, ?, ?, ?, ?)
	`,
		nullInt64(entry.UserID),
		entry.ErrorType,
		entry.ErrorMessage,
		nullString(entry.RequestPath),
		entry.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to record error: %w", err)
	}
	return nil
}

// RecentActivity returns activity rows, most recent first. A user ID
// of zero returns activity for all users.
func (r *Repository) RecentActivity(userID int64, limit int) ([]ActivityEntry, error) {
	query := `
		SELECT id, user_id, event_type, source, description, metadata, created_at
		FROM activity_logs
	`
	args := []interface{}{}
	if userID > 0 {
		query += " WHERE user_id = ?"
		args = append(args, userID)
	}
	query += " ORDER BY created_at DESC, id DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get activity: %w", err)
	}
	defer rows.Close()

	entries := []ActivityEntry{}
	for rows.Next() {
		var e ActivityEntry
		var userID sql.NullInt64
		var description, metadata sql.NullString
		var createdAt int64

		err := rows.Scan(&e.ID, &userID, &e.EventType, &e.Source, &description, &metadata, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan activity row: %w", err)
		}

		e.UserID = userID.Int64
		e.Description = description.String
		e.Metadata = metadata.String
		e.CreatedAt = time.Unix(createdAt, 0).UTC()
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate activity rows: %w", err)
	}

	return entries, nil
}

// PurgeOlderThan drops audit rows past the retention cutoff across all
// three trails. Returns the total number of rows removed.
func (r *Repository) PurgeOlderThan(cutoff time.Time) (int64, error) {
	var total int64
	for _, table := range []string{"activity_logs", "access_logs", "error_logs"} {
		result, err := r.db.Exec(
			"DELETE FROM "+table+" WHERE created_at < ?", cutoff.Unix())
		if err != nil {
			return total, fmt.Errorf("failed to purge %s: %w", table, err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return total, fmt.Errorf("failed to count purged %s rows: %w", table, err)
		}
		total += rows
	}
	return total, nil
}

func nullInt64(v int64) sql.NullInt64 {
	return sql.NullInt64{Int64: v, Valid: v > 0}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
