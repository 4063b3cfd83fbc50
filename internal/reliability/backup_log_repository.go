package reliability

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// BackupLogRepository records completed backups in the brokerage store
type BackupLogRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewBackupLogRepository creates a new backup log repository
func NewBackupLogRepository(db *sql.DB, log zerolog.Logger) *BackupLogRepository {
	return &BackupLogRepository{
		db:  db,
		log: log.With().Str("repo", "backup_logs").Logger(),
	}
}

// Record appends one backup log row
func (r *BackupLogRepository) Record(result *BackupResult) error {
	_, err := r.db.Exec(`
		INSERT INTO backup_logs (backup_id, backup_path, size_bytes, checksum, uploaded, completed_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		result.BackupID,
		result.Path,
		result.SizeBytes,
		result.Checksum,
		boolToInt(result.Uploaded),
		result.Timestamp.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to record backup: %w", err)
	}
	return nil
}

// Recent returns backup log rows, newest first
func (r *BackupLogRepository) Recent(limit int) ([]BackupResult, error) {
	query := `
		SELECT backup_id, backup_path, size_bytes, checksum, uploaded, completed_at
		FROM backup_logs ORDER BY completed_at DESC, id DESC
	`
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get backup logs: %w", err)
	}
	defer rows.Close()

	results := []BackupResult{}
	for rows.Next() {
		var result BackupResult
		var uploaded int
		var completedAt int64

		err := rows.Scan(&result.BackupID, &result.Path, &result.SizeBytes,
			&result.Checksum, &uploaded, &completedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan backup log: %w", err)
		}

		result.Uploaded = uploaded != 0
		result.Timestamp = time.Unix(completedAt, 0).UTC()
		results = append(results, result)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate backup logs: %w", err)
	}

	return results, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
