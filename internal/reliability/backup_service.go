// Package reliability owns backups and store maintenance. Backups are
// taken with VACUUM INTO so they are consistent snapshots, checksummed,
// logged in backup_logs, and optionally shipped to S3-compatible storage.
package reliability

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/apetros/paperbroker/internal/database"
	"github.com/apetros/paperbroker/internal/events"
)

const backupPrefix = "brokerage-backup-"

// minBackupsToKeep is the floor rotation never deletes below
const minBackupsToKeep = 3

// BackupService snapshots the brokerage store
type BackupService struct {
	db        *database.DB
	repo      *BackupLogRepository
	s3        *S3Client
	backupDir string
	events    *events.Manager
	log       zerolog.Logger
}

// BackupResult describes one completed backup
type BackupResult struct {
	BackupID  string    `json:"backup_id"`
	Path      string    `json:"path"`
	SizeBytes int64     `json:"size_bytes"`
	Checksum  string    `json:"checksum"`
	Uploaded  bool      `json:"uploaded"`
	Timestamp time.Time `json:"timestamp"`
}

// BackupInfo describes a backup found on disk
type BackupInfo struct {
	Filename  string    `json:"filename"`
	Timestamp time.Time `json:"timestamp"`
	SizeBytes int64     `json:"size_bytes"`
}

// NewBackupService creates a new backup service. The S3 client may be
// nil for local-only deployments.
func NewBackupService(
	db *database.DB,
	repo *BackupLogRepository,
	s3 *S3Client,
	backupDir string,
	eventManager *events.Manager,
	log zerolog.Logger,
) *BackupService {
	return &BackupService{
		db:        db,
		repo:      repo,
		s3:        s3,
		backupDir: backupDir,
		events:    eventManager,
		log:       log.With().Str("service", "backup").Logger(),
	}
}

// CreateBackup snapshots the store, records the result, and uploads
// the snapshot when an S3 client is configured.
func (s *BackupService) CreateBackup(ctx context.Context) (*BackupResult, error) {
	s.log.Info().Msg("Starting backup")
	startTime := time.Now()

	if err := os.MkdirAll(s.backupDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create backup directory: %w", err)
	}

	now := time.Now().UTC()
	filename := fmt.Sprintf("%s%s.db", backupPrefix, now.Format("2006-01-02-150405"))
	backupPath := filepath.Join(s.backupDir, filename)

	// VACUUM INTO produces a consistent snapshot without blocking
	// readers for the duration.
	if _, err := s.db.Exec("VACUUM INTO ?", backupPath); err != nil {
		return nil, fmt.Errorf("failed to snapshot store: %w", err)
	}

	info, err := os.Stat(backupPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat backup: %w", err)
	}

	checksum, err := fileChecksum(backupPath)
	if err != nil {
		return nil, fmt.Errorf("failed to checksum backup: %w", err)
	}

	result := &BackupResult{
		BackupID:  uuid.New().String(),
		Path:      backupPath,
		SizeBytes: info.Size(),
		Checksum:  checksum,
		Timestamp: now,
	}

	if s.s3 != nil {
		file, err := os.Open(backupPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open backup for upload: %w", err)
		}
		uploadErr := s.s3.Upload(ctx, filename, file, info.Size())
		file.Close()
		if uploadErr != nil {
			s.log.Error().Err(uploadErr).Str("filename", filename).Msg("Backup upload failed")
		} else {
			result.Uploaded = true
		}
	}

	if err := s.repo.Record(result); err != nil {
		s.log.Error().Err(err).Msg("Failed to record backup log")
	}

	s.log.Info().
		Dur("duration_ms", time.Since(startTime)).
		Str("backup_id", result.BackupID).
		Int64("size_bytes", result.SizeBytes).
		Bool("uploaded", result.Uploaded).
		Msg("Backup completed")

	if s.events != nil {
		s.events.Emit("reliability", &events.BackupCompletedData{
			BackupID:  result.BackupID,
			SizeBytes: result.SizeBytes,
			Uploaded:  result.Uploaded,
		})
	}

	return result, nil
}

// ListLocalBackups returns on-disk backups, newest first
func (s *BackupService) ListLocalBackups() ([]BackupInfo, error) {
	entries, err := os.ReadDir(s.backupDir)
	if os.IsNotExist(err) {
		return []BackupInfo{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	backups := []BackupInfo{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		timestamp, ok := parseBackupName(entry.Name())
		if !ok {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		backups = append(backups, BackupInfo{
			Filename:  entry.Name(),
			Timestamp: timestamp,
			SizeBytes: info.Size(),
		})
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].Timestamp.After(backups[j].Timestamp)
	})

	return backups, nil
}

// RotateOldBackups deletes local backups past the retention window.
// The newest minBackupsToKeep survive regardless of age, and a
// retention of zero keeps everything.
func (s *BackupService) RotateOldBackups(retentionDays int) error {
	backups, err := s.ListLocalBackups()
	if err != nil {
		return err
	}
	if len(backups) <= minBackupsToKeep || retentionDays == 0 {
		return nil
	}

	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	deleted := 0

	for i, backup := range backups {
		if i < minBackupsToKeep {
			continue
		}
		if !backup.Timestamp.Before(cutoff) {
			continue
		}

		if err := os.Remove(filepath.Join(s.backupDir, backup.Filename)); err != nil {
			s.log.Error().Err(err).Str("filename", backup.Filename).Msg("Failed to delete old backup")
			continue
		}
		deleted++
	}

	if deleted > 0 {
		s.log.Info().
			Int("deleted", deleted).
			Int("remaining", len(backups)-deleted).
			Msg("Backup rotation completed")
	}

	return nil
}

func parseBackupName(filename string) (time.Time, bool) {
	if !strings.HasPrefix(filename, backupPrefix) || !strings.HasSuffix(filename, ".db") {
		return time.Time{}, false
	}

	stamp := strings.TrimSuffix(strings.TrimPrefix(filename, backupPrefix), ".db")
	timestamp, err := time.Parse("2006-01-02-150405", stamp)
	if err != nil {
		return time.Time{}, false
	}
	return timestamp, true
}

func fileChecksum(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}
	return fmt.Sprintf("sha256:%x", hash.Sum(nil)), nil
}
