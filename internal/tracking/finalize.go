package tracking

import (
	"log/slog"
	"time"

	"github.com/karloscodes/cartridge"
	"gorm.io/gorm"

	"sitepulse/internal/models"
)

// FinalizeStaleSessions closes open sessions that have seen no beacon for
// longer than the timeout. The end is stamped from the session's last
// recorded page view; sessions whose only activity is their start keep a
// null end and null duration, so they never skew the average session
// duration.
//
// Returns the number of sessions closed.
func FinalizeStaleSessions(dbManager cartridge.DBManager, logger *slog.Logger, timeout time.Duration) (int64, error) {
	db := dbManager.GetConnection()
	cutoff := time.Now().UTC().Add(-timeout)

	var closed int64
	err := models.PerformWrite(logger, db, func(tx *gorm.DB) error {
		result := tx.Exec(`
            UPDATE sessions
            SET ended_at = (
                    SELECT MAX(p.viewed_at) FROM page_views p
                    WHERE p.session_id = sessions.session_id
                ),
                duration = CAST((JULIANDAY((
                    SELECT MAX(p.viewed_at) FROM page_views p
                    WHERE p.session_id = sessions.session_id
                )) - JULIANDAY(started_at)) * 86400 AS INTEGER)
            WHERE ended_at IS NULL
            AND started_at < ?
            AND EXISTS (
                SELECT 1 FROM page_views p
                WHERE p.session_id = sessions.session_id
                AND p.viewed_at > sessions.started_at
            )
        `, cutoff)
		if result.Error != nil {
			return result.Error
		}
		closed = result.RowsAffected
		return nil
	})
	if err != nil {
		return 0, err
	}

	if closed > 0 {
		logger.Info("Finalized stale sessions", slog.Int64("closed", closed))
	}
	return closed, nil
}
