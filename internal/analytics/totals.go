package analytics

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// GetTotalVisitorsInTimeFrame counts distinct visitors with a session
// started inside the window.
func GetTotalVisitorsInTimeFrame(db *gorm.DB, params QueryParams) (int64, error) {
	var result struct {
		Count int64
	}

	query := `
    SELECT COUNT(DISTINCT visitor_id) as count
    FROM sessions
    WHERE started_at BETWEEN ? AND ?
    `

	err := db.Raw(query, params.TimeFrame.From.UTC(), params.TimeFrame.To.UTC()).Scan(&result).Error
	if err != nil {
		return 0, fmt.Errorf("error counting visitors: %w", err)
	}
	return result.Count, nil
}

// GetTotalSessionsInTimeFrame counts sessions started inside the window
func GetTotalSessionsInTimeFrame(db *gorm.DB, params QueryParams) (int64, error) {
	var result struct {
		Count int64
	}

	query := `
    SELECT COUNT(*) as count
    FROM sessions
    WHERE started_at BETWEEN ? AND ?
    `

	err := db.Raw(query, params.TimeFrame.From.UTC(), params.TimeFrame.To.UTC()).Scan(&result).Error
	if err != nil {
		return 0, fmt.Errorf("error counting sessions: %w", err)
	}
	return result.Count, nil
}

// GetTotalPageViewsInTimeFrame counts page views recorded inside the window
func GetTotalPageViewsInTimeFrame(db *gorm.DB, params QueryParams) (int64, error) {
	var result struct {
		Count int64
	}

	query := `
    SELECT COUNT(*) as count
    FROM page_views
    WHERE viewed_at BETWEEN ? AND ?
    `

	err := db.Raw(query, params.TimeFrame.From.UTC(), params.TimeFrame.To.UTC()).Scan(&result).Error
	if err != nil {
		return 0, fmt.Errorf("error counting page views: %w", err)
	}
	return result.Count, nil
}

// GetUniqueVisitorsInTimeFrame counts distinct visitors with a page view
// inside the window. Backs the calendar-day "unique today" metric.
func GetUniqueVisitorsInTimeFrame(db *gorm.DB, params QueryParams) (int64, error) {
	var result struct {
		Count int64
	}

	query := `
    SELECT COUNT(DISTINCT visitor_id) as count
    FROM page_views
    WHERE viewed_at BETWEEN ? AND ?
    `

	err := db.Raw(query, params.TimeFrame.From.UTC(), params.TimeFrame.To.UTC()).Scan(&result).Error
	if err != nil {
		return 0, fmt.Errorf("error counting unique visitors: %w", err)
	}
	return result.Count, nil
}

// GetActiveSessionCount counts distinct sessions with a page view since the
// given time.
func GetActiveSessionCount(db *gorm.DB, since time.Time) (int64, error) {
	var result struct {
		Count int64
	}

	query := `
    SELECT COUNT(DISTINCT session_id) as count
    FROM page_views
    WHERE viewed_at >= ?
    `

	err := db.Raw(query, since.UTC()).Scan(&result).Error
	if err != nil {
		return 0, fmt.Errorf("error counting active sessions: %w", err)
	}
	return result.Count, nil
}

// GetBounceRateInTimeFrame returns the percentage of sessions in the window
// with exactly one page view, 0 when the window holds no sessions.
func GetBounceRateInTimeFrame(db *gorm.DB, params QueryParams) (float64, error) {
	var result struct {
		BounceRate float64
	}

	query := `
    SELECT COALESCE(
        CAST(SUM(CASE WHEN page_views = 1 THEN 1 ELSE 0 END) AS FLOAT) * 100.0 /
        NULLIF(CAST(COUNT(*) AS FLOAT), 0),
    0) as bounce_rate
    FROM sessions
    WHERE started_at BETWEEN ? AND ?
    `

	err := db.Raw(query, params.TimeFrame.From.UTC(), params.TimeFrame.To.UTC()).Scan(&result).Error
	if err != nil {
		return 0, fmt.Errorf("error calculating bounce rate: %w", err)
	}
	return result.BounceRate, nil
}

// GetReturnVisitorsInTimeFrame counts distinct visitors in the window that
// also have at least one session started strictly before it. A visitor whose
// very first session falls inside the window is new, even when they come
// back within the same window.
func GetReturnVisitorsInTimeFrame(db *gorm.DB, params QueryParams) (int64, error) {
	var result struct {
		Count int64
	}

	query := `
    SELECT COUNT(DISTINCT s.visitor_id) as count
    FROM sessions s
    WHERE s.started_at BETWEEN ? AND ?
    AND EXISTS (
        SELECT 1 FROM sessions earlier
        WHERE earlier.visitor_id = s.visitor_id
        AND earlier.started_at < ?
    )
    `

	err := db.Raw(query,
		params.TimeFrame.From.UTC(),
		params.TimeFrame.To.UTC(),
		params.TimeFrame.From.UTC(),
	).Scan(&result).Error
	if err != nil {
		return 0, fmt.Errorf("error counting return visitors: %w", err)
	}
	return result.Count, nil
}

// GetAvgSessionDurationInTimeFrame averages duration over sessions that have
// one. Sessions without an explicit end are excluded, not counted as zero.
func GetAvgSessionDurationInTimeFrame(db *gorm.DB, params QueryParams) (float64, error) {
	var result struct {
		AverageDuration float64
	}

	query := `
    SELECT COALESCE(AVG(duration), 0) as average_duration
    FROM sessions
    WHERE started_at BETWEEN ? AND ?
    AND duration IS NOT NULL
    `

	err := db.Raw(query, params.TimeFrame.From.UTC(), params.TimeFrame.To.UTC()).Scan(&result).Error
	if err != nil {
		return 0, fmt.Errorf("error calculating average session duration: %w", err)
	}
	return result.AverageDuration, nil
}

// GetAvgPagesPerSessionInTimeFrame averages the page_views counter over all
// sessions in the window.
func GetAvgPagesPerSessionInTimeFrame(db *gorm.DB, params QueryParams) (float64, error) {
	var result struct {
		AveragePages float64
	}

	query := `
    SELECT COALESCE(AVG(CAST(page_views AS FLOAT)), 0) as average_pages
    FROM sessions
    WHERE started_at BETWEEN ? AND ?
    `

	err := db.Raw(query, params.TimeFrame.From.UTC(), params.TimeFrame.To.UTC()).Scan(&result).Error
	if err != nil {
		return 0, fmt.Errorf("error calculating average pages per session: %w", err)
	}
	return result.AveragePages, nil
}
