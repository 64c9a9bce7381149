package beacons_test

import (
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitepulse/internal/beacons"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func normalize(t *testing.T, payload *beacons.Payload) *beacons.Normalized {
	t.Helper()
	n, err := beacons.Normalize(testLogger(), &beacons.NormalizeInput{
		Payload:   payload,
		IPAddress: "93.184.216.34",
		UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) Chrome/120.0.0.0 Safari/537.36",
		Timestamp: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	return n
}

func TestNormalizeRejectsMissingVisitorID(t *testing.T) {
	_, err := beacons.Normalize(testLogger(), &beacons.NormalizeInput{
		Payload: &beacons.Payload{SessionID: "s1", Type: beacons.TypePageView},
	})
	require.Error(t, err)

	var validationErr *beacons.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "visitorId", validationErr.Field)
}

func TestNormalizeRejectsMissingSessionID(t *testing.T) {
	_, err := beacons.Normalize(testLogger(), &beacons.NormalizeInput{
		Payload: &beacons.Payload{VisitorID: "v1"},
	})
	require.Error(t, err)

	var validationErr *beacons.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "sessionId", validationErr.Field)
}

func TestNormalizeRejectsBlankIdentifiers(t *testing.T) {
	_, err := beacons.Normalize(testLogger(), &beacons.NormalizeInput{
		Payload: &beacons.Payload{VisitorID: "   ", SessionID: "s1"},
	})
	assert.Error(t, err)
}

func TestNormalizePageViewBeacon(t *testing.T) {
	n := normalize(t, &beacons.Payload{
		VisitorID: "v1",
		SessionID: "s1",
		Type:      beacons.TypePageView,
		Page:      &beacons.PagePayload{Path: "/pricing", Title: "Pricing"},
	})

	require.NotNil(t, n.PageView)
	assert.Equal(t, "/pricing", n.PageView.Path)
	assert.Equal(t, "Pricing", n.PageView.Title)
	assert.Nil(t, n.Event)
}

func TestNormalizeNonPageViewProducesNoPageView(t *testing.T) {
	n := normalize(t, &beacons.Payload{
		VisitorID: "v1",
		SessionID: "s1",
		Type:      "heartbeat",
	})
	assert.Nil(t, n.PageView)
	assert.Nil(t, n.Event)
}

func TestNormalizePageViewDefaultsPath(t *testing.T) {
	n := normalize(t, &beacons.Payload{
		VisitorID: "v1",
		SessionID: "s1",
		Type:      beacons.TypePageView,
	})
	require.NotNil(t, n.PageView)
	assert.Equal(t, "/", n.PageView.Path)
}

func TestNormalizeReferrerParsing(t *testing.T) {
	n := normalize(t, &beacons.Payload{
		VisitorID: "v1",
		SessionID: "s1",
		Type:      beacons.TypePageView,
		Page:      &beacons.PagePayload{Path: "/", Referrer: "https://www.Google.com/search?q=x"},
	})
	assert.Equal(t, "https://www.Google.com/search?q=x", n.Referrer)
	assert.Equal(t, "www.google.com", n.ReferrerDomain)
}

func TestNormalizeMalformedReferrerKeptRaw(t *testing.T) {
	n := normalize(t, &beacons.Payload{
		VisitorID: "v1",
		SessionID: "s1",
		Type:      beacons.TypePageView,
		Page:      &beacons.PagePayload{Path: "/", Referrer: "not a url"},
	})
	assert.Equal(t, "not a url", n.Referrer)
	assert.Empty(t, n.ReferrerDomain)
}

func TestNormalizeUTMFromExplicitObject(t *testing.T) {
	n := normalize(t, &beacons.Payload{
		VisitorID: "v1",
		SessionID: "s1",
		UTM:       &beacons.UTMPayload{Source: "newsletter", Medium: "email", Campaign: "launch"},
	})
	assert.Equal(t, "newsletter", n.UTMSource)
	assert.Equal(t, "email", n.UTMMedium)
	assert.Equal(t, "launch", n.UTMCampaign)
}

func TestNormalizeUTMFromPagePathQuery(t *testing.T) {
	n := normalize(t, &beacons.Payload{
		VisitorID: "v1",
		SessionID: "s1",
		Type:      beacons.TypePageView,
		Page:      &beacons.PagePayload{Path: "/landing?utm_source=google&utm_medium=cpc"},
	})
	assert.Equal(t, "google", n.UTMSource)
	assert.Equal(t, "cpc", n.UTMMedium)
	assert.Empty(t, n.UTMCampaign)
}

func TestNormalizeCustomEvent(t *testing.T) {
	n := normalize(t, &beacons.Payload{
		VisitorID: "v1",
		SessionID: "s1",
		Type:      beacons.TypeCustomEvent,
		Event: &beacons.EventPayload{
			Type: "click",
			Name: "signup_button",
			Data: map[string]interface{}{"plan": "pro"},
		},
	})
	require.NotNil(t, n.Event)
	assert.Equal(t, "click", n.Event.EventType)
	assert.Equal(t, "signup_button", n.Event.EventName)
	assert.JSONEq(t, `{"plan":"pro"}`, string(n.Event.EventData))
	assert.Nil(t, n.PageView)
}

func TestNormalizeCustomEventWithoutNameSkipped(t *testing.T) {
	n := normalize(t, &beacons.Payload{
		VisitorID: "v1",
		SessionID: "s1",
		Type:      beacons.TypeCustomEvent,
		Event:     &beacons.EventPayload{Type: "scroll"},
	})
	assert.Nil(t, n.Event)
}

func TestNormalizeDeviceClassification(t *testing.T) {
	n := normalize(t, &beacons.Payload{
		VisitorID: "v1",
		SessionID: "s1",
		Browser: &beacons.BrowserPayload{
			UserAgent: "Mozilla/5.0 (iPhone; CPU iPhone OS 17_1 like Mac OS X) Version/17.1 Mobile/15E148 Safari/604.1",
			Language:  "en-US",
		},
		Screen: &beacons.ScreenPayload{Width: 390, Height: 844},
	})

	require.NotNil(t, n.Detail)
	assert.Equal(t, "mobile", n.Detail.DeviceType)
	assert.Equal(t, "Apple", n.Detail.DeviceBrand)
	assert.Equal(t, "en-US", n.Detail.Language)
	assert.Equal(t, 390, n.Detail.ScreenWidth)
	assert.Equal(t, 844, n.Detail.ScreenHeight)
}

func TestNormalizePrivateIPSkipsGeo(t *testing.T) {
	n, err := beacons.Normalize(testLogger(), &beacons.NormalizeInput{
		Payload:   &beacons.Payload{VisitorID: "v1", SessionID: "s1", Type: beacons.TypePageView},
		IPAddress: "192.168.1.10",
		UserAgent: "Mozilla/5.0 (Windows NT 10.0) Chrome/120.0.0.0 Safari/537.36",
	})
	require.NoError(t, err)
	require.NotNil(t, n.Detail)
	assert.Empty(t, n.Detail.Country)
	assert.Empty(t, n.Detail.CountryCode)
}

func TestNormalizeUsesPayloadUserAgentOverHeader(t *testing.T) {
	n, err := beacons.Normalize(testLogger(), &beacons.NormalizeInput{
		Payload: &beacons.Payload{
			VisitorID: "v1",
			SessionID: "s1",
			Browser:   &beacons.BrowserPayload{UserAgent: "Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0"},
		},
		UserAgent: "curl/8.4.0",
	})
	require.NoError(t, err)
	assert.Equal(t, "Firefox", n.Detail.Browser)
}

func TestNormalizeZeroTimestampDefaultsToNow(t *testing.T) {
	before := time.Now().UTC()
	n, err := beacons.Normalize(testLogger(), &beacons.NormalizeInput{
		Payload: &beacons.Payload{VisitorID: "v1", SessionID: "s1"},
	})
	require.NoError(t, err)
	assert.False(t, n.Timestamp.Before(before))
}
