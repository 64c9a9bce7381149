package jobs

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"sitepulse/internal/config"
	"sitepulse/internal/database"
)

// Scheduler is responsible for running background jobs
type Scheduler struct {
	dbManager *database.DBManager
	logger    *slog.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	enabled   bool
	isRunning bool
	cfg       *config.Config

	// Mutex to prevent concurrent job executions
	processingMutex sync.Mutex
	isProcessing    bool

	// Job instances
	sessionFinalizer *SessionFinalizerJob
	geoIPReloader    *GeoIPReloaderJob

	// Tickers for each job type
	finalizerTicker *time.Ticker
	geoIPTicker     *time.Ticker
}

func NewScheduler(dbManager *database.DBManager, logger *slog.Logger) (*Scheduler, error) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := config.GetConfig()

	s := &Scheduler{
		dbManager: dbManager,
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
		enabled:   true,
		isRunning: false,
		cfg:       cfg,
	}

	s.sessionFinalizer = NewSessionFinalizerJob(dbManager, logger, cfg)
	s.geoIPReloader = NewGeoIPReloaderJob(logger, cfg)

	return s, nil
}

// executeJobSafely runs a job only if no other job is currently executing
func (s *Scheduler) executeJobSafely(jobName string, jobFunc func() error) {
	s.processingMutex.Lock()
	if s.isProcessing {
		s.logger.Debug("Skipping job execution - previous job still running", slog.String("job", jobName))
		s.processingMutex.Unlock()
		return
	}
	s.isProcessing = true
	s.processingMutex.Unlock()

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Panic recovered in background job",
				slog.String("job", jobName),
				slog.Any("panic", r))
		}

		s.processingMutex.Lock()
		s.isProcessing = false
		s.processingMutex.Unlock()
	}()

	if err := jobFunc(); err != nil {
		s.logger.Error("Error executing job", slog.String("job", jobName), slog.Any("error", err))
	}
}

// Start begins all background jobs
func (s *Scheduler) Start() error {
	if !s.enabled {
		s.logger.Info("Background jobs are disabled.")
		return nil
	}

	if s.isRunning {
		s.logger.Info("Background jobs already running.")
		return nil
	}

	s.logger.Info("Starting background jobs...")

	s.isRunning = true

	s.startSessionFinalizerJob()
	s.startGeoIPReloaderJob()

	s.logger.Info("Background jobs started",
		slog.Bool("enabled", s.enabled),
		slog.Bool("isRunning", s.isRunning))

	return nil
}

func (s *Scheduler) startSessionFinalizerJob() {
	interval := time.Duration(s.cfg.JobIntervalSeconds) * time.Second
	s.logger.Info("Starting session finalizer job", slog.Duration("interval", interval))
	s.finalizerTicker = time.NewTicker(interval)

	go func() {
		// Catch up on sessions left open by a previous run
		s.logger.Info("Running initial session finalization...")
		s.executeJobSafely("session_finalizer", s.sessionFinalizer.Run)

		for {
			select {
			case <-s.finalizerTicker.C:
				s.executeJobSafely("session_finalizer", s.sessionFinalizer.Run)
			case <-s.ctx.Done():
				s.logger.Info("Session finalizer job stopped")
				return
			}
		}
	}()
}

func (s *Scheduler) startGeoIPReloaderJob() {
	interval := time.Hour
	s.logger.Info("Starting GeoIP reloader job", slog.Duration("interval", interval))
	s.geoIPTicker = time.NewTicker(interval)

	go func() {
		for {
			select {
			case <-s.geoIPTicker.C:
				if err := s.geoIPReloader.Run(); err != nil {
					s.logger.Error("Error in GeoIP reloader job", slog.Any("error", err))
				}
			case <-s.ctx.Done():
				s.logger.Info("GeoIP reloader job stopped")
				return
			}
		}
	}()
}

// Stop halts all background jobs.
// Implements cartridge.BackgroundWorker interface.
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping background jobs...")
	s.enabled = false

	if s.finalizerTicker != nil {
		s.finalizerTicker.Stop()
	}
	if s.geoIPTicker != nil {
		s.geoIPTicker.Stop()
	}

	s.cancel()
	s.isRunning = false
	s.logger.Info("Background jobs stopped")
}

// IsRunning returns whether jobs are currently running
func (s *Scheduler) IsRunning() bool {
	return s.isRunning
}

// FinalizeSessions allows manual triggering of session finalization
func (s *Scheduler) FinalizeSessions() error {
	if !s.enabled {
		return nil
	}
	return s.sessionFinalizer.Run()
}
