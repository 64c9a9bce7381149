package analytics

import (
	"fmt"

	"gorm.io/gorm"
)

// GetEntryPagesInTimeFrame ranks the first page of each session in the
// window, top 10. The entry page is the view with the minimum viewed_at.
func GetEntryPagesInTimeFrame(db *gorm.DB, params QueryParams) ([]MetricCountResult, error) {
	return sessionBoundaryPages(db, params, "ASC")
}

// GetExitPagesInTimeFrame ranks the last page of each session in the
// window, top 10. The exit page is the view with the maximum viewed_at.
func GetExitPagesInTimeFrame(db *gorm.DB, params QueryParams) ([]MetricCountResult, error) {
	return sessionBoundaryPages(db, params, "DESC")
}

func sessionBoundaryPages(db *gorm.DB, params QueryParams, order string) ([]MetricCountResult, error) {
	// order is a fixed literal chosen above, never caller input
	if order != "ASC" && order != "DESC" {
		return nil, fmt.Errorf("invalid boundary order: %s", order)
	}

	var results []MetricCountResult

	query := fmt.Sprintf(`
    WITH ranked_views AS (
        SELECT
            p.session_id,
            p.page_path,
            ROW_NUMBER() OVER (
                PARTITION BY p.session_id
                ORDER BY p.viewed_at %s, p.id %s
            ) as position
        FROM page_views p
        JOIN sessions s ON s.session_id = p.session_id
        WHERE s.started_at BETWEEN ? AND ?
    )
    SELECT
        page_path as name,
        COUNT(*) as count
    FROM ranked_views
    WHERE position = 1
    GROUP BY page_path
    ORDER BY count DESC
    LIMIT 10
    `, order, order)

	err := db.Raw(query,
		params.TimeFrame.From.UTC(),
		params.TimeFrame.To.UTC(),
	).Scan(&results).Error
	if err != nil {
		return nil, fmt.Errorf("error fetching session boundary pages: %w", err)
	}

	return results, nil
}
