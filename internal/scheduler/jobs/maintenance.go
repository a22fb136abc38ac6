package jobs

import (
	"context"

	"github.com/wonny/dipscan/pkg/logger"
)

// Sweeper drops expired entries and reports how many went
type Sweeper interface {
	Sweep(ctx context.Context) (int, error)
}

// SessionSweepJob evicts expired in-memory analysis sessions
type SessionSweepJob struct {
	store  Sweeper
	logger *logger.Logger
}

// NewSessionSweepJob creates a new session sweep job
func NewSessionSweepJob(store Sweeper, log *logger.Logger) *SessionSweepJob {
	return &SessionSweepJob{
		store:  store,
		logger: log,
	}
}

// Name returns the job name
func (j *SessionSweepJob) Name() string {
	return "session_sweep"
}

// Schedule returns the cron schedule (every 5 minutes)
func (j *SessionSweepJob) Schedule() string {
	return "0 */5 * * * *"
}

// Run executes the sweep
func (j *SessionSweepJob) Run(ctx context.Context) error {
	j.logger.Debug("Starting scheduled session sweep")

	count, err := j.store.Sweep(ctx)
	if err != nil {
		return err
	}

	if count > 0 {
		j.logger.WithField("removed", count).Info("Session sweep completed")
	}

	return nil
}
