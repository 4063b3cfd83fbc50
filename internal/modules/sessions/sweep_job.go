package sessions

// SweepJob is the scheduled cleanup of expired sessions
type SweepJob struct {
	service *Service
}

// NewSweepJob creates the session sweep job
func NewSweepJob(service *Service) *SweepJob {
	return &SweepJob{service: service}
}

// Name returns the job name
func (j *SweepJob) Name() string { return "session_sweep" }

// Run removes expired sessions
func (j *SweepJob) Run() error {
	_, err := j.service.SweepExpired()
	return err
}
