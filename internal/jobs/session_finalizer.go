package jobs

import (
	"log/slog"
	"time"

	"sitepulse/internal/config"
	"sitepulse/internal/database"
	"sitepulse/internal/tracking"
)

// SessionFinalizerJob closes sessions that stopped receiving beacons. The
// ingest path bumps a session's end on every later beacon, so this job only
// matters for sessions whose tail beacons never arrived.
type SessionFinalizerJob struct {
	dbManager *database.DBManager
	logger    *slog.Logger
	cfg       *config.Config
}

// NewSessionFinalizerJob creates a new session finalizer job
func NewSessionFinalizerJob(dbManager *database.DBManager, logger *slog.Logger, cfg *config.Config) *SessionFinalizerJob {
	return &SessionFinalizerJob{
		dbManager: dbManager,
		logger:    logger,
		cfg:       cfg,
	}
}

// Run executes one finalization pass
func (j *SessionFinalizerJob) Run() error {
	timeout := time.Duration(j.cfg.SessionTimeoutSeconds) * time.Second

	closed, err := tracking.FinalizeStaleSessions(j.dbManager, j.logger, timeout)
	if err != nil {
		return err
	}

	if closed > 0 {
		j.logger.Debug("Session finalization pass completed", slog.Int64("closed", closed))
	}
	return nil
}
