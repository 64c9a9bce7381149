package analytics_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitepulse/internal/analytics"
	"sitepulse/internal/beacons"
	"sitepulse/internal/testsupport"
	"sitepulse/internal/tracking"
)

func recordClassifiedVisit(t *testing.T, dbManager *testsupport.TestDBManager, visitorID, sessionID string, ts time.Time, detail *beacons.DetailData) {
	t.Helper()
	logger := testsupport.GetLogger()
	beacon := testsupport.PageViewBeacon(visitorID, sessionID, "/", ts)
	beacon.Detail = detail
	require.NoError(t, tracking.RecordBeacon(dbManager, logger, beacon))
}

func TestTopPagesRankedByViews(t *testing.T) {
	dbManager, logger := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	testsupport.RecordPageView(t, dbManager, logger, "v1", "s1", "/popular", base)
	testsupport.RecordPageView(t, dbManager, logger, "v2", "s2", "/popular", base)
	testsupport.RecordPageView(t, dbManager, logger, "v3", "s3", "/niche", base)

	pages, err := analytics.GetTopPagesInTimeFrame(db, windowAround(base.Add(-time.Hour), base.Add(time.Hour)))
	require.NoError(t, err)
	require.Len(t, pages, 2)
	assert.Equal(t, "/popular", pages[0].Name)
	assert.Equal(t, int64(2), pages[0].Count)
	assert.Equal(t, "/niche", pages[1].Name)
}

func TestDetailBreakdownsCountDistinctVisitors(t *testing.T) {
	dbManager, _ := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	chromeDE := &beacons.DetailData{CountryCode: "DE", Browser: "Chrome", OS: "Windows", DeviceType: "desktop", ScreenWidth: 1920, ScreenHeight: 1080, Language: "de-DE"}
	safariUS := &beacons.DetailData{CountryCode: "US", Browser: "Safari", OS: "iOS", DeviceType: "mobile", ScreenWidth: 390, ScreenHeight: 844, Language: "en-US"}

	recordClassifiedVisit(t, dbManager, "v1", "s1", base, chromeDE)
	// Same visitor, second session: still one distinct visitor for Chrome
	recordClassifiedVisit(t, dbManager, "v1", "s2", base.Add(time.Hour), chromeDE)
	recordClassifiedVisit(t, dbManager, "v2", "s3", base, safariUS)

	params := windowAround(base.Add(-time.Hour), base.Add(2*time.Hour))

	browsers, err := analytics.GetTopBrowsersInTimeFrame(db, params)
	require.NoError(t, err)
	require.Len(t, browsers, 2)
	for _, b := range browsers {
		assert.Equal(t, int64(1), b.Count)
	}

	resolutions, err := analytics.GetTopScreenResolutionsInTimeFrame(db, params)
	require.NoError(t, err)
	require.Len(t, resolutions, 2)
	names := []string{resolutions[0].Name, resolutions[1].Name}
	assert.Contains(t, names, "1920x1080")
	assert.Contains(t, names, "390x844")

	languages, err := analytics.GetTopLanguagesInTimeFrame(db, params)
	require.NoError(t, err)
	assert.Len(t, languages, 2)
}

func TestBreakdownExcludesEmptyValues(t *testing.T) {
	dbManager, _ := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	recordClassifiedVisit(t, dbManager, "v1", "s1", base, &beacons.DetailData{CountryCode: "FR", Browser: "Firefox"})
	// Visitor with no country reported is absent from the country
	// breakdown, not shown as an unknown bucket
	recordClassifiedVisit(t, dbManager, "v2", "s2", base, &beacons.DetailData{Browser: "Firefox"})

	countries, err := analytics.GetTopCountriesInTimeFrame(db, windowAround(base.Add(-time.Hour), base.Add(time.Hour)))
	require.NoError(t, err)
	require.Len(t, countries, 1)
	assert.Equal(t, "FR", countries[0].Name)
}

func TestEntryAndExitPages(t *testing.T) {
	dbManager, logger := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	testsupport.RecordPageView(t, dbManager, logger, "v1", "s1", "/landing", base)
	testsupport.RecordPageView(t, dbManager, logger, "v1", "s1", "/product", base.Add(time.Minute))
	testsupport.RecordPageView(t, dbManager, logger, "v1", "s1", "/checkout", base.Add(2*time.Minute))
	testsupport.RecordPageView(t, dbManager, logger, "v2", "s2", "/landing", base)

	params := windowAround(base.Add(-time.Hour), base.Add(time.Hour))

	entries, err := analytics.GetEntryPagesInTimeFrame(db, params)
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	assert.Equal(t, "/landing", entries[0].Name)
	assert.Equal(t, int64(2), entries[0].Count)

	exits, err := analytics.GetExitPagesInTimeFrame(db, params)
	require.NoError(t, err)
	require.Len(t, exits, 2)
	for _, e := range exits {
		switch e.Name {
		case "/checkout", "/landing":
			assert.Equal(t, int64(1), e.Count)
		default:
			t.Fatalf("unexpected exit page %q", e.Name)
		}
	}
}

func TestReferrerSourceGrouping(t *testing.T) {
	dbManager, logger := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	sessions := []struct {
		visitor, session, domain string
	}{
		{"v1", "s1", "google.com"},
		{"v2", "s2", "www.google.co.uk"},
		{"v3", "s3", "news.ycombinator.com"},
		{"v4", "s4", ""},
	}
	for _, s := range sessions {
		beacon := testsupport.PageViewBeacon(s.visitor, s.session, "/", base)
		beacon.ReferrerDomain = s.domain
		if s.domain != "" {
			beacon.Referrer = "https://" + s.domain + "/"
		}
		require.NoError(t, tracking.RecordBeacon(dbManager, logger, beacon))
	}

	results, err := analytics.GetReferrerSourcesInTimeFrame(db, windowAround(base.Add(-time.Hour), base.Add(time.Hour)))
	require.NoError(t, err)

	counts := make(map[string]int64)
	for _, r := range results {
		counts[r.Name] = r.Count
	}
	assert.Equal(t, int64(2), counts["Google"])
	assert.Equal(t, int64(1), counts["news.ycombinator.com"])
	assert.Equal(t, int64(1), counts["Direct"])
}

func TestUTMBreakdownCoalescesMissingToNone(t *testing.T) {
	dbManager, logger := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	withUTM := testsupport.PageViewBeacon("v1", "s1", "/", base)
	withUTM.UTMSource = "newsletter"
	require.NoError(t, tracking.RecordBeacon(dbManager, logger, withUTM))
	testsupport.RecordPageView(t, dbManager, logger, "v2", "s2", "/", base)

	sources, err := analytics.GetUTMSourcesInTimeFrame(db, windowAround(base.Add(-time.Hour), base.Add(time.Hour)))
	require.NoError(t, err)

	counts := make(map[string]int64)
	for _, r := range sources {
		counts[r.Name] = r.Count
	}
	assert.Equal(t, int64(1), counts["newsletter"])
	assert.Equal(t, int64(1), counts["none"])
}

func TestHourlyAndDailyTrends(t *testing.T) {
	dbManager, logger := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()

	now := time.Now().UTC()
	testsupport.RecordPageView(t, dbManager, logger, "v1", "s1", "/", now.Add(-2*time.Hour))
	testsupport.RecordPageView(t, dbManager, logger, "v2", "s2", "/", now.Add(-2*time.Hour))
	testsupport.RecordPageView(t, dbManager, logger, "v3", "s3", "/", now.Add(-26*time.Hour))

	hourly, err := analytics.GetHourlyTrends(db, now)
	require.NoError(t, err)
	var hourlySessions int64
	for _, h := range hourly {
		hourlySessions += h.Sessions
	}
	assert.Equal(t, int64(2), hourlySessions)

	daily, err := analytics.GetDailyTrends(db, now)
	require.NoError(t, err)
	var dailySessions, dailyViews int64
	for _, d := range daily {
		dailySessions += d.Sessions
		dailyViews += d.PageViews
	}
	assert.Equal(t, int64(3), dailySessions)
	assert.Equal(t, int64(3), dailyViews)

	peak, err := analytics.GetPeakHours(db)
	require.NoError(t, err)
	require.NotEmpty(t, peak)
	assert.LessOrEqual(t, len(peak), 5)
}

func TestEnhancedStatsAssembly(t *testing.T) {
	dbManager, logger := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()

	base := time.Now().UTC().Add(-time.Hour)
	recordClassifiedVisit(t, dbManager, "v1", "s1", base, &beacons.DetailData{CountryCode: "DE", Browser: "Chrome", DeviceType: "desktop"})
	testsupport.RecordPageView(t, dbManager, logger, "v2", "s2", "/a", base)
	testsupport.RecordPageView(t, dbManager, logger, "v2", "s2", "/b", base.Add(time.Minute))

	tf := windowAround(base.Add(-time.Hour), time.Now().UTC()).TimeFrame
	stats, err := analytics.GetEnhancedStats(db, tf, logger)
	require.NoError(t, err)

	assert.Equal(t, int64(2), stats.TotalVisitors)
	assert.Equal(t, int64(2), stats.TotalSessions)
	assert.Equal(t, int64(3), stats.TotalPageViews)
	assert.Equal(t, stats.TotalVisitors-stats.ReturnVisitors, stats.NewVisitors)
	assert.Equal(t, 50.0, stats.BounceRate)

	require.NotEmpty(t, stats.TopCountries)
	assert.Equal(t, "Germany", stats.TopCountries[0].Name)
	require.NotEmpty(t, stats.DeviceTypes)
	assert.Equal(t, "Desktop", stats.DeviceTypes[0].Name)
}
