package analytics_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitepulse/internal/analytics"
	"sitepulse/internal/testsupport"
	"sitepulse/internal/timeframe"
)

func windowAround(from, to time.Time) analytics.QueryParams {
	return analytics.QueryParams{
		TimeFrame: timeframe.TimeFrame{From: from, To: to},
		Limit:     analytics.DefaultTopN,
	}
}

func TestBounceRate(t *testing.T) {
	dbManager, logger := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	// One single-view session and one three-view session
	testsupport.RecordPageView(t, dbManager, logger, "v1", "s1", "/only", base)
	testsupport.RecordPageView(t, dbManager, logger, "v2", "s2", "/a", base)
	testsupport.RecordPageView(t, dbManager, logger, "v2", "s2", "/b", base.Add(time.Minute))
	testsupport.RecordPageView(t, dbManager, logger, "v2", "s2", "/c", base.Add(2*time.Minute))

	rate, err := analytics.GetBounceRateInTimeFrame(db, windowAround(base.Add(-time.Hour), base.Add(time.Hour)))
	require.NoError(t, err)
	assert.Equal(t, 50.0, rate)
}

func TestBounceRateEmptyWindow(t *testing.T) {
	dbManager, _ := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()

	rate, err := analytics.GetBounceRateInTimeFrame(db, windowAround(
		time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC),
	))
	require.NoError(t, err)
	assert.Equal(t, 0.0, rate)
}

func TestReturnVisitorClassification(t *testing.T) {
	dbManager, logger := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()

	t1 := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	t2 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	// v1 visits at t1 and again at t2; v2 visits for the first time at t2
	testsupport.RecordPageView(t, dbManager, logger, "v1", "old-session", "/", t1)
	testsupport.RecordPageView(t, dbManager, logger, "v1", "new-session", "/", t2)
	testsupport.RecordPageView(t, dbManager, logger, "v2", "first-session", "/", t2)

	params := windowAround(t2.Add(-time.Hour), t2.Add(time.Hour))

	total, err := analytics.GetTotalVisitorsInTimeFrame(db, params)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	returning, err := analytics.GetReturnVisitorsInTimeFrame(db, params)
	require.NoError(t, err)
	assert.Equal(t, int64(1), returning)
}

func TestReturnVisitorBothSessionsInsideWindow(t *testing.T) {
	dbManager, logger := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	testsupport.RecordPageView(t, dbManager, logger, "v1", "s1", "/", base)
	testsupport.RecordPageView(t, dbManager, logger, "v1", "s2", "/", base.Add(2*time.Hour))

	// The visitor's first-ever session is inside the window: still new
	returning, err := analytics.GetReturnVisitorsInTimeFrame(db, windowAround(base.Add(-time.Hour), base.Add(3*time.Hour)))
	require.NoError(t, err)
	assert.Equal(t, int64(0), returning)
}

func TestAvgSessionDurationExcludesOpenSessions(t *testing.T) {
	dbManager, logger := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	// Two sessions with durations (100s and 200s) and one single-view
	// session with no end at all
	testsupport.RecordPageView(t, dbManager, logger, "v1", "s1", "/a", base)
	testsupport.RecordPageView(t, dbManager, logger, "v1", "s1", "/b", base.Add(100*time.Second))
	testsupport.RecordPageView(t, dbManager, logger, "v2", "s2", "/a", base)
	testsupport.RecordPageView(t, dbManager, logger, "v2", "s2", "/b", base.Add(200*time.Second))
	testsupport.RecordPageView(t, dbManager, logger, "v3", "s3", "/a", base)

	avg, err := analytics.GetAvgSessionDurationInTimeFrame(db, windowAround(base.Add(-time.Hour), base.Add(time.Hour)))
	require.NoError(t, err)
	assert.Equal(t, 150.0, avg)
}

func TestAvgPagesPerSession(t *testing.T) {
	dbManager, logger := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	testsupport.RecordPageView(t, dbManager, logger, "v1", "s1", "/a", base)
	testsupport.RecordPageView(t, dbManager, logger, "v2", "s2", "/a", base)
	testsupport.RecordPageView(t, dbManager, logger, "v2", "s2", "/b", base.Add(time.Minute))
	testsupport.RecordPageView(t, dbManager, logger, "v2", "s2", "/c", base.Add(2*time.Minute))

	avg, err := analytics.GetAvgPagesPerSessionInTimeFrame(db, windowAround(base.Add(-time.Hour), base.Add(time.Hour)))
	require.NoError(t, err)
	assert.Equal(t, 2.0, avg)
}

func TestCardinalityTotals(t *testing.T) {
	dbManager, logger := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	testsupport.RecordPageView(t, dbManager, logger, "v1", "s1", "/a", base)
	testsupport.RecordPageView(t, dbManager, logger, "v1", "s2", "/b", base.Add(time.Hour))
	testsupport.RecordPageView(t, dbManager, logger, "v2", "s3", "/a", base)

	params := windowAround(base.Add(-time.Hour), base.Add(2*time.Hour))

	visitors, err := analytics.GetTotalVisitorsInTimeFrame(db, params)
	require.NoError(t, err)
	assert.Equal(t, int64(2), visitors)

	sessions, err := analytics.GetTotalSessionsInTimeFrame(db, params)
	require.NoError(t, err)
	assert.Equal(t, int64(3), sessions)

	pageViews, err := analytics.GetTotalPageViewsInTimeFrame(db, params)
	require.NoError(t, err)
	assert.Equal(t, int64(3), pageViews)
}

func TestActiveSessionCount(t *testing.T) {
	dbManager, logger := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()

	now := time.Now().UTC()
	testsupport.RecordPageView(t, dbManager, logger, "v1", "s1", "/a", now.Add(-time.Minute))
	testsupport.RecordPageView(t, dbManager, logger, "v1", "s1", "/b", now.Add(-30*time.Second))
	testsupport.RecordPageView(t, dbManager, logger, "v2", "s2", "/a", now.Add(-time.Hour))

	active, err := analytics.GetActiveSessionCount(db, now.Add(-timeframe.ActiveWindow))
	require.NoError(t, err)
	assert.Equal(t, int64(1), active)
}
