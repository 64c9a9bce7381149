package analytics

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// GetHourlyTrends buckets the last 24 hours by hour-of-day (00-23), giving
// session and distinct-visitor counts per bucket. Hours without traffic are
// simply absent from the result.
func GetHourlyTrends(db *gorm.DB, now time.Time) ([]HourlyTrendResult, error) {
	var results []HourlyTrendResult

	query := `
    SELECT
        strftime('%H', started_at) as hour,
        COUNT(*) as sessions,
        COUNT(DISTINCT visitor_id) as visitors
    FROM sessions
    WHERE started_at BETWEEN ? AND ?
    GROUP BY strftime('%H', started_at)
    ORDER BY hour ASC
    `

	from := now.UTC().Add(-24 * time.Hour)
	err := db.Raw(query, from, now.UTC()).Scan(&results).Error
	if err != nil {
		return nil, fmt.Errorf("error fetching hourly trends: %w", err)
	}

	return results, nil
}

// GetDailyTrends buckets the last 30 days by calendar date, giving session,
// distinct-visitor, and page-view counts per day.
func GetDailyTrends(db *gorm.DB, now time.Time) ([]DailyTrendResult, error) {
	var results []DailyTrendResult

	query := `
    SELECT
        strftime('%Y-%m-%d', s.started_at) as date,
        COUNT(DISTINCT s.session_id) as sessions,
        COUNT(DISTINCT s.visitor_id) as visitors,
        COALESCE(SUM(s.page_views), 0) as page_views
    FROM sessions s
    WHERE s.started_at BETWEEN ? AND ?
    GROUP BY strftime('%Y-%m-%d', s.started_at)
    ORDER BY date ASC
    `

	from := now.UTC().AddDate(0, 0, -30)
	err := db.Raw(query, from, now.UTC()).Scan(&results).Error
	if err != nil {
		return nil, fmt.Errorf("error fetching daily trends: %w", err)
	}

	return results, nil
}

// GetPeakHours ranks the all-time top 5 hours of day by session count
func GetPeakHours(db *gorm.DB) ([]MetricCountResult, error) {
	var results []MetricCountResult

	query := `
    SELECT
        strftime('%H', started_at) as name,
        COUNT(*) as count
    FROM sessions
    GROUP BY strftime('%H', started_at)
    ORDER BY count DESC
    LIMIT 5
    `

	err := db.Raw(query).Scan(&results).Error
	if err != nil {
		return nil, fmt.Errorf("error fetching peak hours: %w", err)
	}

	return results, nil
}
