package beacons

import (
	"encoding/json"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"sitepulse/internal/pkg/geoip"
	"sitepulse/internal/pkg/useragent"
)

// NormalizeInput carries the raw payload plus the request-scoped context the
// payload itself cannot be trusted to report.
type NormalizeInput struct {
	Payload   *Payload
	IPAddress string
	UserAgent string // effective UA: header value, overridable by payload
	Timestamp time.Time
}

// Normalize validates a beacon and shapes it into typed records.
// The only failure mode is a ValidationError for a missing required field;
// every classification step (referrer parsing, UA parsing, geo lookup) is
// isolated and degrades to empty values instead of aborting the beacon.
func Normalize(logger *slog.Logger, input *NormalizeInput) (*Normalized, error) {
	p := input.Payload
	if p == nil {
		return nil, NewValidationError("payload")
	}
	if strings.TrimSpace(p.VisitorID) == "" {
		return nil, NewValidationError("visitorId")
	}
	if strings.TrimSpace(p.SessionID) == "" {
		return nil, NewValidationError("sessionId")
	}

	ts := input.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	userAgent := input.UserAgent
	if p.Browser != nil && p.Browser.UserAgent != "" {
		userAgent = p.Browser.UserAgent
	}

	n := &Normalized{
		VisitorID: strings.TrimSpace(p.VisitorID),
		SessionID: strings.TrimSpace(p.SessionID),
		IPAddress: input.IPAddress,
		UserAgent: userAgent,
		Timestamp: ts.UTC(),
	}

	if p.Page != nil {
		n.Referrer, n.ReferrerDomain = parseReferrer(logger, p.Page.Referrer)
	}

	n.UTMSource, n.UTMMedium, n.UTMCampaign = resolveUTM(p)

	if p.Type == TypePageView {
		path := "/"
		title := ""
		if p.Page != nil {
			if p.Page.Path != "" {
				path = p.Page.Path
			}
			title = p.Page.Title
		}
		n.PageView = &PageViewData{Path: path, Title: title}
	}

	if p.Type == TypeCustomEvent && p.Event != nil && p.Event.Name != "" {
		eventType := p.Event.Type
		if eventType == "" {
			eventType = "custom"
		}
		var data json.RawMessage
		if p.Event.Data != nil {
			if encoded, err := json.Marshal(p.Event.Data); err == nil {
				data = encoded
			} else {
				logger.Warn("Failed to encode custom event data",
					slog.String("event", p.Event.Name),
					slog.Any("error", err))
			}
		}
		n.Event = &CustomEventData{
			EventType: eventType,
			EventName: p.Event.Name,
			EventData: data,
		}
	}

	n.Detail = classify(p, input.IPAddress, userAgent)

	return n, nil
}

// parseReferrer attempts to extract a hostname from the referrer URL.
// On failure the raw string is kept and the domain stays empty - a broken
// referrer never aborts beacon processing.
func parseReferrer(logger *slog.Logger, referrer string) (string, string) {
	if referrer == "" {
		return "", ""
	}

	parsed, err := url.Parse(referrer)
	if err != nil || parsed.Hostname() == "" {
		logger.Debug("Failed to parse referrer URL, keeping raw value",
			slog.String("referrer", referrer))
		return referrer, ""
	}

	return referrer, strings.ToLower(parsed.Hostname())
}

// resolveUTM prefers an explicit utm object, falling back to utm_* query
// parameters embedded in the page path
func resolveUTM(p *Payload) (source, medium, campaign string) {
	if p.UTM != nil {
		source = p.UTM.Source
		medium = p.UTM.Medium
		campaign = p.UTM.Campaign
	}
	if source != "" || medium != "" || campaign != "" {
		return source, medium, campaign
	}

	if p.Page == nil || !strings.Contains(p.Page.Path, "?") {
		return "", "", ""
	}
	parsed, err := url.Parse(p.Page.Path)
	if err != nil {
		return "", "", ""
	}
	query := parsed.Query()
	return query.Get("utm_source"), query.Get("utm_medium"), query.Get("utm_campaign")
}

// classify builds the visitor's detail snapshot from the user agent, the
// client IP, and the client-reported screen/language hints. Private and
// loopback IPs are never sent to the geo classifier.
func classify(p *Payload, ipAddress, rawUA string) *DetailData {
	detail := &DetailData{}

	parsed := useragent.Parse(rawUA)
	detail.Browser = parsed.Browser
	detail.BrowserVersion = parsed.BrowserVersion
	detail.OS = parsed.OS
	detail.OSVersion = parsed.OSVersion
	detail.DeviceType = parsed.DeviceType
	detail.DeviceBrand = parsed.DeviceBrand
	detail.DeviceModel = parsed.DeviceModel

	if loc := geoip.Lookup(ipAddress); loc != nil {
		detail.Country = loc.Country
		detail.CountryCode = loc.CountryCode
		detail.City = loc.City
		detail.Region = loc.Region
		detail.Latitude = loc.Latitude
		detail.Longitude = loc.Longitude
		detail.Timezone = loc.Timezone
	}

	if p.Browser != nil {
		detail.Language = p.Browser.Language
	}
	if p.Screen != nil {
		detail.ScreenWidth = p.Screen.Width
		detail.ScreenHeight = p.Screen.Height
	}

	return detail
}
