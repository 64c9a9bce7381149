// Package analytics computes the reporting aggregates over the raw
// visitor/session/page-view record set.
//
// The package is organized into focused modules:
//   - totals.go: cardinality metrics, ratios, and averages
//   - metrics.go: top-N breakdowns over visitor classification fields
//   - entryexit.go: per-session entry and exit page rankings
//   - trends.go: hourly/daily trend buckets and peak hours
//   - referrers.go: referrer source and UTM groupings
//   - stats.go: basic/enhanced stat payload assembly
//
// Every query is read-only, parameterized by a timeframe.TimeFrame, and
// built with placeholder arguments only; caller input is never concatenated
// into SQL text.
package analytics

import (
	"sitepulse/internal/timeframe"
)

// QueryParams carries the reporting window and the top-N cap shared by
// every aggregate query.
type QueryParams struct {
	TimeFrame timeframe.TimeFrame
	Limit     int
}

// DefaultTopN caps breakdown listings when the caller does not say otherwise
const DefaultTopN = 10

// MetricCountResult represents a generic key-count pair for query results
type MetricCountResult struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

// HourlyTrendResult is one hour-of-day bucket of the 24h trend
type HourlyTrendResult struct {
	Hour     string `json:"hour"`
	Sessions int64  `json:"sessions"`
	Visitors int64  `json:"visitors"`
}

// DailyTrendResult is one calendar-day bucket of the 30d trend
type DailyTrendResult struct {
	Date      string `json:"date"`
	Sessions  int64  `json:"sessions"`
	Visitors  int64  `json:"visitors"`
	PageViews int64  `json:"pageViews"`
}
