package audit

import (
	"time"

	"github.com/rs/zerolog"
)

// RetentionJob ages out audit rows past the configured retention window
type RetentionJob struct {
	repo      *Repository
	retention time.Duration
	log       zerolog.Logger
}

// NewRetentionJob creates the audit retention job
func NewRetentionJob(repo *Repository, retention time.Duration, log zerolog.Logger) *RetentionJob {
	return &RetentionJob{
		repo:      repo,
		retention: retention,
		log:       log.With().Str("job", "audit_retention").Logger(),
	}
}

// Name returns the job name
func (j *RetentionJob) Name() string { return "audit_retention" }

// Run purges rows older than the retention window
func (j *RetentionJob) Run() error {
	cutoff := time.Now().UTC().Add(-j.retention)
	removed, err := j.repo.PurgeOlderThan(cutoff)
	if err != nil {
		return err
	}
	if removed > 0 {
		j.log.Info().Int64("removed", removed).Time("cutoff", cutoff).Msg("Purged aged audit rows")
	}
	return nil
}
