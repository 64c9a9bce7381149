// Package tracking owns the visitor/session/page-view record set and the
// rules for applying normalized beacons to it.
package tracking

import (
	"fmt"
	"time"

	"sitepulse/internal/models"
)

// Visitor is the root entity: one row per client-generated visitor ID.
// IPAddress and UserAgent are first-write-wins; LastSeen only ever moves
// forward.
type Visitor struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"`
	VisitorID string    `gorm:"uniqueIndex;size:64;not null"`
	IPAddress string    `gorm:"size:45"`
	UserAgent string    `gorm:"type:text"`
	CreatedAt time.Time `gorm:"not null"`
	LastSeen  time.Time `gorm:"index;not null"`
}

// Session groups page views under one client-generated session ID.
// Identity fields (StartedAt, Referrer, UTM) are first-write-wins; only the
// lifecycle fields (EndedAt, Duration, PageViews) move after creation.
type Session struct {
	ID             uint       `gorm:"primaryKey;autoIncrement"`
	SessionID      string     `gorm:"uniqueIndex;size:64;not null"`
	VisitorID      string     `gorm:"index;size:64;not null"`
	StartedAt      time.Time  `gorm:"index;not null"`
	EndedAt        *time.Time `gorm:"index"`
	Duration       *int       // seconds; nil until the session has an end
	PageViews      int        `gorm:"not null;default:0"`
	Referrer       string     `gorm:"type:text"`
	ReferrerDomain string     `gorm:"index"`
	UTMSource      string     `gorm:"index"`
	UTMMedium      string     `gorm:"index"`
	UTMCampaign    string     `gorm:"index"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// PageView is append-only: one row per tracked page-view beacon, never
// updated after insert.
type PageView struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"`
	SessionID string    `gorm:"index;size:64;not null"`
	VisitorID string    `gorm:"index;size:64;not null"`
	PagePath  string    `gorm:"index;not null"`
	PageTitle string    `gorm:"type:text"`
	ViewedAt  time.Time `gorm:"index;not null"`
	IsBounce  bool      `gorm:"not null;default:false"`
	CreatedAt time.Time
}

// CustomEvent is append-only: clicks, scrolls, form submissions and other
// client-defined events with an opaque payload.
type CustomEvent struct {
	ID        uint        `gorm:"primaryKey;autoIncrement"`
	SessionID string      `gorm:"index;size:64;not null"`
	VisitorID string      `gorm:"index;size:64;not null"`
	EventType string      `gorm:"index;not null"`
	EventName string      `gorm:"index;not null"`
	EventData models.JSON `gorm:"type:text"`
	CreatedAt time.Time   `gorm:"index"`
}

// VisitorDetail is the latest-known classification snapshot per visitor.
// At most one row per visitor ID; every beacon carrying classification data
// replaces the entire row, last write wins.
type VisitorDetail struct {
	ID             uint    `gorm:"primaryKey;autoIncrement"`
	VisitorID      string  `gorm:"uniqueIndex;size:64;not null"`
	Country        string  `gorm:"index"`
	CountryCode    string  `gorm:"index;size:2"`
	City           string  `gorm:"index"`
	Region         string
	Latitude       float64
	Longitude      float64
	Timezone       string
	Browser        string `gorm:"index"`
	BrowserVersion string
	OS             string `gorm:"index"`
	OSVersion      string
	DeviceType     string `gorm:"index"`
	DeviceBrand    string
	DeviceModel    string
	ScreenWidth    int
	ScreenHeight   int
	Language       string `gorm:"index"`
	UpdatedAt      time.Time
}

// VisitorNotFoundError marks a lookup for a visitor ID with no row
type VisitorNotFoundError struct {
	VisitorID string
}

func (e *VisitorNotFoundError) Error() string {
	return fmt.Sprintf("visitor not found: %s", e.VisitorID)
}

// NewVisitorNotFoundError creates a not-found error for a visitor ID
func NewVisitorNotFoundError(visitorID string) *VisitorNotFoundError {
	return &VisitorNotFoundError{VisitorID: visitorID}
}
