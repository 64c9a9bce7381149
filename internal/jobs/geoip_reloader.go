package jobs

import (
	"log/slog"
	"os"
	"time"

	"sitepulse/internal/config"
	"sitepulse/internal/pkg/geoip"
)

// GeoIPReloaderJob reloads the in-memory GeoIP database when the file on
// disk is replaced. The mmdb itself is provisioned externally; this job only
// notices the swap.
type GeoIPReloaderJob struct {
	logger      *slog.Logger
	cfg         *config.Config
	lastModTime time.Time
}

// NewGeoIPReloaderJob creates a new GeoIP reloader job
func NewGeoIPReloaderJob(logger *slog.Logger, cfg *config.Config) *GeoIPReloaderJob {
	job := &GeoIPReloaderJob{
		logger: logger,
		cfg:    cfg,
	}

	if info, err := os.Stat(cfg.GeoDBPath); err == nil {
		job.lastModTime = info.ModTime()
	}
	return job
}

// Run reloads the database if the file changed since the last pass
func (j *GeoIPReloaderJob) Run() error {
	info, err := os.Stat(j.cfg.GeoDBPath)
	if err != nil {
		// Missing file is a configuration state, not a job failure
		j.logger.Debug("GeoIP database not present, skipping reload",
			slog.String("path", j.cfg.GeoDBPath))
		return nil
	}

	if !info.ModTime().After(j.lastModTime) {
		return nil
	}

	j.logger.Info("GeoIP database file changed, reloading",
		slog.String("path", j.cfg.GeoDBPath),
		slog.Time("modified", info.ModTime()))

	geoip.ReloadGeoDB()
	j.lastModTime = info.ModTime()
	return nil
}
