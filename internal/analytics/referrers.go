package analytics

import (
	"fmt"
	"sort"

	"gorm.io/gorm"

	"sitepulse/internal/pkg/referrers"
)

// GetReferrerSourcesInTimeFrame groups the window's sessions by normalized
// referrer source. Regional domain variants collapse into one source and
// sessions with no referrer bucket under "Direct"; the grouping happens
// after the query since source naming is application logic.
func GetReferrerSourcesInTimeFrame(db *gorm.DB, params QueryParams) ([]MetricCountResult, error) {
	var rawResults []struct {
		ReferrerDomain string
		Count          int64
	}

	query := `
    SELECT
        referrer_domain,
        COUNT(*) as count
    FROM sessions
    WHERE started_at BETWEEN ? AND ?
    GROUP BY referrer_domain
    `

	err := db.Raw(query,
		params.TimeFrame.From.UTC(),
		params.TimeFrame.To.UTC(),
	).Scan(&rawResults).Error
	if err != nil {
		return nil, fmt.Errorf("error fetching referrer sources: %w", err)
	}

	counts := make(map[string]int64)
	for _, r := range rawResults {
		counts[referrers.SourceName(r.ReferrerDomain)] += r.Count
	}

	results := make([]MetricCountResult, 0, len(counts))
	for name, count := range counts {
		results = append(results, MetricCountResult{Name: name, Count: count})
	}
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Count != results[j].Count {
			return results[i].Count > results[j].Count
		}
		return results[i].Name < results[j].Name
	})

	if params.Limit > 0 && len(results) > params.Limit {
		results = results[:params.Limit]
	}
	return results, nil
}

// GetUTMSourcesInTimeFrame groups sessions by utm_source, missing → "none"
func GetUTMSourcesInTimeFrame(db *gorm.DB, params QueryParams) ([]MetricCountResult, error) {
	return utmBreakdown(db, params, "utm_source")
}

// GetUTMMediumsInTimeFrame groups sessions by utm_medium, missing → "none"
func GetUTMMediumsInTimeFrame(db *gorm.DB, params QueryParams) ([]MetricCountResult, error) {
	return utmBreakdown(db, params, "utm_medium")
}

func utmBreakdown(db *gorm.DB, params QueryParams, column string) ([]MetricCountResult, error) {
	// column is one of two fixed literals chosen above, never caller input
	if column != "utm_source" && column != "utm_medium" {
		return nil, fmt.Errorf("unknown utm column: %s", column)
	}

	var results []MetricCountResult

	query := fmt.Sprintf(`
    SELECT
        COALESCE(NULLIF(%s, ''), 'none') as name,
        COUNT(*) as count
    FROM sessions
    WHERE started_at BETWEEN ? AND ?
    GROUP BY COALESCE(NULLIF(%s, ''), 'none')
    ORDER BY count DESC
    LIMIT ?
    `, column, column)

	err := db.Raw(query,
		params.TimeFrame.From.UTC(),
		params.TimeFrame.To.UTC(),
		params.Limit,
	).Scan(&results).Error
	if err != nil {
		return nil, fmt.Errorf("error fetching %s breakdown: %w", column, err)
	}

	return results, nil
}
