package reliability

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/apetros/paperbroker/internal/database"
)

// BackupJob is the nightly backup and rotation run
type BackupJob struct {
	service       *BackupService
	retentionDays int
	log           zerolog.Logger
}

// NewBackupJob creates the nightly backup job
func NewBackupJob(service *BackupService, retentionDays int, log zerolog.Logger) *BackupJob {
	return &BackupJob{
		service:       service,
		retentionDays: retentionDays,
		log:           log.With().Str("job", "nightly_backup").Logger(),
	}
}

// Name returns the job name
func (j *BackupJob) Name() string { return "nightly_backup" }

// Run creates a backup and rotates old ones
func (j *BackupJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	if _, err := j.service.CreateBackup(ctx); err != nil {
		return err
	}
	return j.service.RotateOldBackups(j.retentionDays)
}

// MaintenanceJob keeps the store healthy: integrity check plus a WAL
// checkpoint to stop the log growing without bound.
type MaintenanceJob struct {
	db  *database.DB
	log zerolog.Logger
}

// NewMaintenanceJob creates the store maintenance job
func NewMaintenanceJob(db *database.DB, log zerolog.Logger) *MaintenanceJob {
	return &MaintenanceJob{
		db:  db,
		log: log.With().Str("job", "store_maintenance").Logger(),
	}
}

// Name returns the job name
func (j *MaintenanceJob) Name() string { return "store_maintenance" }

// Run checks integrity and truncates the WAL
func (j *MaintenanceJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := j.db.HealthCheck(ctx); err != nil {
		return err
	}

	if err := j.db.WALCheckpoint("TRUNCATE"); err != nil {
		// Checkpoint contention is routine under write load.
		j.log.Warn().Err(err).Msg("WAL checkpoint failed")
	}

	return nil
}
