package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pariz/gountries"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/gorm"

	"sitepulse/internal/pkg/async"
	"sitepulse/internal/timeframe"
)

// BasicStats is the compact reporting payload
type BasicStats struct {
	TotalVisitors  int64               `json:"totalVisitors"`
	TotalSessions  int64               `json:"totalSessions"`
	TotalPageViews int64               `json:"totalPageViews"`
	UniqueToday    int64               `json:"uniqueToday"`
	TopPages       []MetricCountResult `json:"topPages"`
	TopCountries   []MetricCountResult `json:"topCountries"`
	TopBrowsers    []MetricCountResult `json:"topBrowsers"`
	DeviceTypes    []MetricCountResult `json:"deviceTypes"`
}

// EnhancedStats is the full reporting payload, a superset of BasicStats
type EnhancedStats struct {
	BasicStats
	BounceRate         float64             `json:"bounceRate"`
	AvgSessionDuration float64             `json:"avgSessionDuration"`
	AvgPagesPerSession float64             `json:"avgPagesPerSession"`
	ReturnVisitors     int64               `json:"returnVisitors"`
	NewVisitors        int64               `json:"newVisitors"`
	ActiveSessions     int64               `json:"activeSessions"`
	HourlyTrends       []HourlyTrendResult `json:"hourlyTrends"`
	DailyTrends        []DailyTrendResult  `json:"dailyTrends"`
	PeakHours          []MetricCountResult `json:"peakHours"`
	EntryPages         []MetricCountResult `json:"entryPages"`
	ExitPages          []MetricCountResult `json:"exitPages"`
	Referrers          []MetricCountResult `json:"referrers"`
	UTMSources         []MetricCountResult `json:"utmSources"`
	UTMMediums         []MetricCountResult `json:"utmMediums"`
	TopCities          []MetricCountResult `json:"topCities"`
	TopOS              []MetricCountResult `json:"topOS"`
	OSVersions         []MetricCountResult `json:"osVersions"`
	BrowserVersions    []MetricCountResult `json:"browserVersions"`
	DeviceBrands       []MetricCountResult `json:"deviceBrands"`
	DeviceModels       []MetricCountResult `json:"deviceModels"`
	ScreenResolutions  []MetricCountResult `json:"screenResolutions"`
	Languages          []MetricCountResult `json:"languages"`
}

// GetBasicStats assembles the compact payload for the given window
func GetBasicStats(db *gorm.DB, tf timeframe.TimeFrame, logger *slog.Logger) (*BasicStats, error) {
	params := QueryParams{TimeFrame: tf, Limit: DefaultTopN}
	parser := timeframe.NewParser()

	stats := &BasicStats{}
	var err error

	if stats.TotalVisitors, err = GetTotalVisitorsInTimeFrame(db, params); err != nil {
		return nil, err
	}
	if stats.TotalSessions, err = GetTotalSessionsInTimeFrame(db, params); err != nil {
		return nil, err
	}
	if stats.TotalPageViews, err = GetTotalPageViewsInTimeFrame(db, params); err != nil {
		return nil, err
	}
	todayParams := QueryParams{TimeFrame: *parser.Today(), Limit: DefaultTopN}
	if stats.UniqueToday, err = GetUniqueVisitorsInTimeFrame(db, todayParams); err != nil {
		return nil, err
	}
	if stats.TopPages, err = GetTopPagesInTimeFrame(db, params); err != nil {
		return nil, err
	}
	countries, err := GetTopCountriesInTimeFrame(db, params)
	if err != nil {
		return nil, err
	}
	stats.TopCountries = convertCountryStats(countries)
	browsers, err := GetTopBrowsersInTimeFrame(db, params)
	if err != nil {
		return nil, err
	}
	stats.TopBrowsers = titleCased(browsers)
	devices, err := GetDeviceTypesInTimeFrame(db, params)
	if err != nil {
		return nil, err
	}
	stats.DeviceTypes = titleCased(devices)

	logger.Debug("Assembled basic stats",
		slog.Int64("visitors", stats.TotalVisitors),
		slog.Int64("sessions", stats.TotalSessions))
	return stats, nil
}

// GetEnhancedStats assembles the full payload. The aggregate queries are
// independent reads, so they fan out on a worker pool the same way the
// basic dashboard used to be too slow without.
func GetEnhancedStats(db *gorm.DB, tf timeframe.TimeFrame, logger *slog.Logger) (*EnhancedStats, error) {
	params := QueryParams{TimeFrame: tf, Limit: DefaultTopN}
	parser := timeframe.NewParser()
	now := time.Now().UTC()

	tasks := []async.Task{
		{Name: "totalVisitors", Execute: func() (interface{}, error) {
			return GetTotalVisitorsInTimeFrame(db, params)
		}},
		{Name: "totalSessions", Execute: func() (interface{}, error) {
			return GetTotalSessionsInTimeFrame(db, params)
		}},
		{Name: "totalPageViews", Execute: func() (interface{}, error) {
			return GetTotalPageViewsInTimeFrame(db, params)
		}},
		{Name: "uniqueToday", Execute: func() (interface{}, error) {
			return GetUniqueVisitorsInTimeFrame(db, QueryParams{TimeFrame: *parser.Today(), Limit: DefaultTopN})
		}},
		{Name: "activeSessions", Execute: func() (interface{}, error) {
			return GetActiveSessionCount(db, now.Add(-timeframe.ActiveWindow))
		}},
		{Name: "bounceRate", Execute: func() (interface{}, error) {
			return GetBounceRateInTimeFrame(db, params)
		}},
		{Name: "avgSessionDuration", Execute: func() (interface{}, error) {
			return GetAvgSessionDurationInTimeFrame(db, params)
		}},
		{Name: "avgPagesPerSession", Execute: func() (interface{}, error) {
			return GetAvgPagesPerSessionInTimeFrame(db, params)
		}},
		{Name: "returnVisitors", Execute: func() (interface{}, error) {
			return GetReturnVisitorsInTimeFrame(db, params)
		}},
		{Name: "topPages", Execute: func() (interface{}, error) {
			return GetTopPagesInTimeFrame(db, params)
		}},
		{Name: "topCountries", Execute: func() (interface{}, error) {
			return GetTopCountriesInTimeFrame(db, params)
		}},
		{Name: "topCities", Execute: func() (interface{}, error) {
			return GetTopCitiesInTimeFrame(db, params)
		}},
		{Name: "topBrowsers", Execute: func() (interface{}, error) {
			return GetTopBrowsersInTimeFrame(db, params)
		}},
		{Name: "browserVersions", Execute: func() (interface{}, error) {
			return GetTopBrowserVersionsInTimeFrame(db, params)
		}},
		{Name: "topOS", Execute: func() (interface{}, error) {
			return GetTopOSInTimeFrame(db, params)
		}},
		{Name: "osVersions", Execute: func() (interface{}, error) {
			return GetTopOSVersionsInTimeFrame(db, params)
		}},
		{Name: "deviceTypes", Execute: func() (interface{}, error) {
			return GetDeviceTypesInTimeFrame(db, params)
		}},
		{Name: "deviceBrands", Execute: func() (interface{}, error) {
			return GetTopDeviceBrandsInTimeFrame(db, params)
		}},
		{Name: "deviceModels", Execute: func() (interface{}, error) {
			return GetTopDeviceModelsInTimeFrame(db, params)
		}},
		{Name: "screenResolutions", Execute: func() (interface{}, error) {
			return GetTopScreenResolutionsInTimeFrame(db, params)
		}},
		{Name: "languages", Execute: func() (interface{}, error) {
			return GetTopLanguagesInTimeFrame(db, params)
		}},
		{Name: "entryPages", Execute: func() (interface{}, error) {
			return GetEntryPagesInTimeFrame(db, params)
		}},
		{Name: "exitPages", Execute: func() (interface{}, error) {
			return GetExitPagesInTimeFrame(db, params)
		}},
		{Name: "referrers", Execute: func() (interface{}, error) {
			return GetReferrerSourcesInTimeFrame(db, params)
		}},
		{Name: "utmSources", Execute: func() (interface{}, error) {
			return GetUTMSourcesInTimeFrame(db, params)
		}},
		{Name: "utmMediums", Execute: func() (interface{}, error) {
			return GetUTMMediumsInTimeFrame(db, params)
		}},
		{Name: "hourlyTrends", Execute: func() (interface{}, error) {
			return GetHourlyTrends(db, now)
		}},
		{Name: "dailyTrends", Execute: func() (interface{}, error) {
			return GetDailyTrends(db, now)
		}},
		{Name: "peakHours", Execute: func() (interface{}, error) {
			return GetPeakHours(db)
		}},
	}

	pool := async.NewPool(12)
	results := pool.Execute(context.Background(), tasks)

	for name, result := range results {
		if result.Err != nil {
			logger.Error("Error assembling enhanced stats",
				slog.String("metric", name),
				slog.Any("error", result.Err))
			return nil, fmt.Errorf("error fetching %s: %w", name, result.Err)
		}
	}

	stats := &EnhancedStats{
		BasicStats: BasicStats{
			TotalVisitors:  results["totalVisitors"].Data.(int64),
			TotalSessions:  results["totalSessions"].Data.(int64),
			TotalPageViews: results["totalPageViews"].Data.(int64),
			UniqueToday:    results["uniqueToday"].Data.(int64),
			TopPages:       results["topPages"].Data.([]MetricCountResult),
			TopCountries:   convertCountryStats(results["topCountries"].Data.([]MetricCountResult)),
			TopBrowsers:    titleCased(results["topBrowsers"].Data.([]MetricCountResult)),
			DeviceTypes:    titleCased(results["deviceTypes"].Data.([]MetricCountResult)),
		},
		BounceRate:         results["bounceRate"].Data.(float64),
		AvgSessionDuration: results["avgSessionDuration"].Data.(float64),
		AvgPagesPerSession: results["avgPagesPerSession"].Data.(float64),
		ReturnVisitors:     results["returnVisitors"].Data.(int64),
		ActiveSessions:     results["activeSessions"].Data.(int64),
		HourlyTrends:       results["hourlyTrends"].Data.([]HourlyTrendResult),
		DailyTrends:        results["dailyTrends"].Data.([]DailyTrendResult),
		PeakHours:          results["peakHours"].Data.([]MetricCountResult),
		EntryPages:         results["entryPages"].Data.([]MetricCountResult),
		ExitPages:          results["exitPages"].Data.([]MetricCountResult),
		Referrers:          results["referrers"].Data.([]MetricCountResult),
		UTMSources:         results["utmSources"].Data.([]MetricCountResult),
		UTMMediums:         results["utmMediums"].Data.([]MetricCountResult),
		TopCities:          results["topCities"].Data.([]MetricCountResult),
		TopOS:              titleCased(results["topOS"].Data.([]MetricCountResult)),
		OSVersions:         results["osVersions"].Data.([]MetricCountResult),
		BrowserVersions:    results["browserVersions"].Data.([]MetricCountResult),
		DeviceBrands:       results["deviceBrands"].Data.([]MetricCountResult),
		DeviceModels:       results["deviceModels"].Data.([]MetricCountResult),
		ScreenResolutions:  results["screenResolutions"].Data.([]MetricCountResult),
		Languages:          results["languages"].Data.([]MetricCountResult),
	}

	// Derived, never stored
	stats.NewVisitors = stats.TotalVisitors - stats.ReturnVisitors

	return stats, nil
}

// convertCountryStats resolves ISO alpha codes to common country names.
// Unresolvable codes are upper-cased and passed through.
func convertCountryStats(items []MetricCountResult) []MetricCountResult {
	caser := cases.Upper(language.AmericanEnglish)
	countries := gountries.New()

	result := make([]MetricCountResult, len(items))
	for i, item := range items {
		country, err := countries.FindCountryByAlpha(item.Name)
		if err != nil {
			result[i] = MetricCountResult{Name: caser.String(item.Name), Count: item.Count}
			continue
		}
		result[i] = MetricCountResult{Name: country.Name.Common, Count: item.Count}
	}
	return result
}

// titleCased normalizes lowercase classification names for display
func titleCased(items []MetricCountResult) []MetricCountResult {
	caser := cases.Title(language.AmericanEnglish)

	result := make([]MetricCountResult, len(items))
	for i, item := range items {
		result[i] = MetricCountResult{Name: caser.String(item.Name), Count: item.Count}
	}
	return result
}
