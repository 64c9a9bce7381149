// Package beacons validates and shapes raw tracking payloads into the typed
// records the upsert engine applies. Nothing past this boundary sees the
// untyped client payload.
package beacons

import (
	"encoding/json"
	"fmt"
	"time"
)

// Beacon type discriminators sent by the tracking client
const (
	TypePageView    = "pageview"
	TypeCustomEvent = "event"
)

// Payload is the raw beacon as submitted by the tracking client. Every
// field except visitorId/sessionId is optional; clients send whatever they
// managed to collect.
type Payload struct {
	VisitorID    string          `json:"visitorId"`
	SessionID    string          `json:"sessionId"`
	IsNewSession bool            `json:"isNewSession"`
	Type         string          `json:"type"`
	Page         *PagePayload    `json:"page"`
	Browser      *BrowserPayload `json:"browser"`
	Screen       *ScreenPayload  `json:"screen"`
	UTM          *UTMPayload     `json:"utm"`
	Event        *EventPayload   `json:"event"`
}

// PagePayload carries the page the beacon was fired from
type PagePayload struct {
	Path     string `json:"path"`
	Title    string `json:"title"`
	Referrer string `json:"referrer"`
}

// BrowserPayload carries client-reported browser attributes
type BrowserPayload struct {
	UserAgent string `json:"userAgent"`
	Language  string `json:"language"`
}

// ScreenPayload carries the reported screen dimensions
type ScreenPayload struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// UTMPayload carries explicit campaign parameters. When absent, utm_* query
// parameters embedded in the page path are used instead.
type UTMPayload struct {
	Source   string `json:"source"`
	Medium   string `json:"medium"`
	Campaign string `json:"campaign"`
}

// EventPayload describes a custom event (click, scroll, form_submit, ...)
type EventPayload struct {
	Type string                 `json:"type"`
	Name string                 `json:"name"`
	Data map[string]interface{} `json:"data"`
}

// ValidationError marks a beacon rejected before any write
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing required beacon field: %s", e.Field)
}

// NewValidationError creates a validation error for a missing field
func NewValidationError(field string) *ValidationError {
	return &ValidationError{Field: field}
}

// Normalized is the typed output of the normalizer: one visitor upsert, one
// session upsert, at most one page-view or custom-event insert, and one
// detail replacement.
type Normalized struct {
	VisitorID string
	SessionID string

	IPAddress string
	UserAgent string
	Timestamp time.Time

	// Session attributes, honored only on first write for this session
	Referrer       string
	ReferrerDomain string
	UTMSource      string
	UTMMedium      string
	UTMCampaign    string

	PageView *PageViewData
	Event    *CustomEventData
	Detail   *DetailData
}

// PageViewData is produced only for type == "pageview" beacons
type PageViewData struct {
	Path  string
	Title string
}

// CustomEventData is produced only for type == "event" beacons with a name
type CustomEventData struct {
	EventType string
	EventName string
	EventData json.RawMessage
}

// DetailData is the latest-known classification snapshot for the visitor.
// The whole struct replaces the stored row per beacon; zero values mean
// "not reported this time" and overwrite whatever was known before.
type DetailData struct {
	Country        string
	CountryCode    string
	City           string
	Region         string
	Latitude       float64
	Longitude      float64
	Timezone       string
	Browser        string
	BrowserVersion string
	OS             string
	OSVersion      string
	DeviceType     string
	DeviceBrand    string
	DeviceModel    string
	ScreenWidth    int
	ScreenHeight   int
	Language       string
}
