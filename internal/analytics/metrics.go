package analytics

import (
	"fmt"

	"gorm.io/gorm"
)

// GetTopPagesInTimeFrame ranks pages by view count inside the window
func GetTopPagesInTimeFrame(db *gorm.DB, params QueryParams) ([]MetricCountResult, error) {
	var results []MetricCountResult

	query := `
    SELECT
        page_path as name,
        COUNT(*) as count
    FROM page_views
    WHERE viewed_at BETWEEN ? AND ?
    AND page_path != ''
    GROUP BY page_path
    ORDER BY count DESC
    LIMIT ?
    `

	err := db.Raw(query,
		params.TimeFrame.From.UTC(),
		params.TimeFrame.To.UTC(),
		params.Limit,
	).Scan(&results).Error
	if err != nil {
		return nil, fmt.Errorf("error fetching top pages: %w", err)
	}

	return results, nil
}

// detailColumns enumerates the visitor-detail fields a breakdown may group
// by. Only names from this table ever reach SQL text; caller input never
// selects a raw column string.
var detailColumns = map[string]string{
	"country_code":    "country_code",
	"city":            "city",
	"browser":         "browser",
	"browser_version": "browser_version",
	"os":              "os",
	"os_version":      "os_version",
	"device_type":     "device_type",
	"device_brand":    "device_brand",
	"device_model":    "device_model",
	"language":        "language",
}

// topDetailBreakdown ranks one visitor-detail column by distinct visitors
// with a session inside the window. Rows with an empty classification value
// are excluded from the breakdown rather than shown as an unknown bucket.
func topDetailBreakdown(db *gorm.DB, params QueryParams, field string) ([]MetricCountResult, error) {
	column, ok := detailColumns[field]
	if !ok {
		return nil, fmt.Errorf("unknown breakdown field: %s", field)
	}

	var results []MetricCountResult

	query := fmt.Sprintf(`
    SELECT
        d.%s as name,
        COUNT(DISTINCT s.visitor_id) as count
    FROM sessions s
    JOIN visitor_details d ON d.visitor_id = s.visitor_id
    WHERE s.started_at BETWEEN ? AND ?
    AND d.%s != ''
    GROUP BY d.%s
    ORDER BY count DESC
    LIMIT ?
    `, column, column, column)

	err := db.Raw(query,
		params.TimeFrame.From.UTC(),
		params.TimeFrame.To.UTC(),
		params.Limit,
	).Scan(&results).Error
	if err != nil {
		return nil, fmt.Errorf("error fetching top %s: %w", field, err)
	}

	return results, nil
}

// GetTopCountriesInTimeFrame ranks ISO country codes by distinct visitors.
// Display-name resolution happens at assembly time, not here.
func GetTopCountriesInTimeFrame(db *gorm.DB, params QueryParams) ([]MetricCountResult, error) {
	return topDetailBreakdown(db, params, "country_code")
}

// GetTopCitiesInTimeFrame ranks cities by distinct visitors
func GetTopCitiesInTimeFrame(db *gorm.DB, params QueryParams) ([]MetricCountResult, error) {
	return topDetailBreakdown(db, params, "city")
}

// GetTopBrowsersInTimeFrame ranks browsers by distinct visitors
func GetTopBrowsersInTimeFrame(db *gorm.DB, params QueryParams) ([]MetricCountResult, error) {
	return topDetailBreakdown(db, params, "browser")
}

// GetTopBrowserVersionsInTimeFrame ranks browser versions by distinct visitors
func GetTopBrowserVersionsInTimeFrame(db *gorm.DB, params QueryParams) ([]MetricCountResult, error) {
	return topDetailBreakdown(db, params, "browser_version")
}

// GetTopOSInTimeFrame ranks operating systems by distinct visitors
func GetTopOSInTimeFrame(db *gorm.DB, params QueryParams) ([]MetricCountResult, error) {
	return topDetailBreakdown(db, params, "os")
}

// GetTopOSVersionsInTimeFrame ranks OS versions by distinct visitors
func GetTopOSVersionsInTimeFrame(db *gorm.DB, params QueryParams) ([]MetricCountResult, error) {
	return topDetailBreakdown(db, params, "os_version")
}

// GetDeviceTypesInTimeFrame ranks device types by distinct visitors
func GetDeviceTypesInTimeFrame(db *gorm.DB, params QueryParams) ([]MetricCountResult, error) {
	return topDetailBreakdown(db, params, "device_type")
}

// GetTopDeviceBrandsInTimeFrame ranks device brands by distinct visitors
func GetTopDeviceBrandsInTimeFrame(db *gorm.DB, params QueryParams) ([]MetricCountResult, error) {
	return topDetailBreakdown(db, params, "device_brand")
}

// GetTopDeviceModelsInTimeFrame ranks device models by distinct visitors
func GetTopDeviceModelsInTimeFrame(db *gorm.DB, params QueryParams) ([]MetricCountResult, error) {
	return topDetailBreakdown(db, params, "device_model")
}

// GetTopLanguagesInTimeFrame ranks reported languages by distinct visitors
func GetTopLanguagesInTimeFrame(db *gorm.DB, params QueryParams) ([]MetricCountResult, error) {
	return topDetailBreakdown(db, params, "language")
}

// GetTopScreenResolutionsInTimeFrame ranks "WxH" screen resolutions by
// distinct visitors. Visitors that never reported a screen are excluded.
func GetTopScreenResolutionsInTimeFrame(db *gorm.DB, params QueryParams) ([]MetricCountResult, error) {
	var results []MetricCountResult

	query := `
    SELECT
        CAST(d.screen_width AS TEXT) || 'x' || CAST(d.screen_height AS TEXT) as name,
        COUNT(DISTINCT s.visitor_id) as count
    FROM sessions s
    JOIN visitor_details d ON d.visitor_id = s.visitor_id
    WHERE s.started_at BETWEEN ? AND ?
    AND d.screen_width > 0
    AND d.screen_height > 0
    GROUP BY d.screen_width, d.screen_height
    ORDER BY count DESC
    LIMIT ?
    `

	err := db.Raw(query,
		params.TimeFrame.From.UTC(),
		params.TimeFrame.To.UTC(),
		params.Limit,
	).Scan(&results).Error
	if err != nil {
		return nil, fmt.Errorf("error fetching top screen resolutions: %w", err)
	}

	return results, nil
}
