package tracking

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// VisitorSummary is one row of the raw visitor listing: the visitor record
// joined with its latest classification snapshot.
type VisitorSummary struct {
	VisitorID  string    `json:"visitorId"`
	IPAddress  string    `json:"ipAddress"`
	UserAgent  string    `json:"userAgent"`
	CreatedAt  time.Time `json:"createdAt"`
	LastSeen   time.Time `json:"lastSeen"`
	Country    string    `json:"country"`
	City       string    `json:"city"`
	Browser    string    `json:"browser"`
	OS         string    `json:"os"`
	DeviceType string    `json:"deviceType"`
}

// ListVisitors returns the most recently seen visitors, newest first,
// capped by limit.
func ListVisitors(db *gorm.DB, limit int) ([]VisitorSummary, error) {
	var results []VisitorSummary

	query := `
    SELECT
        v.visitor_id,
        v.ip_address,
        v.user_agent,
        v.created_at,
        v.last_seen,
        COALESCE(d.country, '') AS country,
        COALESCE(d.city, '') AS city,
        COALESCE(d.browser, '') AS browser,
        COALESCE(d.os, '') AS os,
        COALESCE(d.device_type, '') AS device_type
    FROM visitors v
    LEFT JOIN visitor_details d ON d.visitor_id = v.visitor_id
    ORDER BY v.last_seen DESC
    LIMIT ?
    `

	err := db.Raw(query, limit).Scan(&results).Error
	if err != nil {
		return nil, fmt.Errorf("error listing visitors: %w", err)
	}

	return results, nil
}

// GetVisitor returns one visitor's summary by ID, or VisitorNotFoundError
// when no such visitor has been seen.
func GetVisitor(db *gorm.DB, visitorID string) (*VisitorSummary, error) {
	var results []VisitorSummary

	query := `
    SELECT
        v.visitor_id,
        v.ip_address,
        v.user_agent,
        v.created_at,
        v.last_seen,
        COALESCE(d.country, '') AS country,
        COALESCE(d.city, '') AS city,
        COALESCE(d.browser, '') AS browser,
        COALESCE(d.os, '') AS os,
        COALESCE(d.device_type, '') AS device_type
    FROM visitors v
    LEFT JOIN visitor_details d ON d.visitor_id = v.visitor_id
    WHERE v.visitor_id = ?
    LIMIT 1
    `

	err := db.Raw(query, visitorID).Scan(&results).Error
	if err != nil {
		return nil, fmt.Errorf("error fetching visitor: %w", err)
	}
	if len(results) == 0 {
		return nil, NewVisitorNotFoundError(visitorID)
	}

	return &results[0], nil
}

// ActiveVisitor is one entry of the real-time "who's active" listing: a
// recent page view joined with visitor and detail metadata.
type ActiveVisitor struct {
	VisitorID  string    `json:"visitorId"`
	SessionID  string    `json:"sessionId"`
	PagePath   string    `json:"pagePath"`
	PageTitle  string    `json:"pageTitle"`
	ViewedAt   time.Time `json:"viewedAt"`
	Country    string    `json:"country"`
	City       string    `json:"city"`
	Browser    string    `json:"browser"`
	OS         string    `json:"os"`
	DeviceType string    `json:"deviceType"`
}

// ActiveVisitors returns page views recorded since the given time, newest
// first, capped by limit, joined with whatever visitor metadata is known.
func ActiveVisitors(db *gorm.DB, since time.Time, limit int) ([]ActiveVisitor, error) {
	var results []ActiveVisitor

	query := `
    SELECT
        p.visitor_id,
        p.session_id,
        p.page_path,
        p.page_title,
        p.viewed_at,
        COALESCE(d.country, '') AS country,
        COALESCE(d.city, '') AS city,
        COALESCE(d.browser, '') AS browser,
        COALESCE(d.os, '') AS os,
        COALESCE(d.device_type, '') AS device_type
    FROM page_views p
    LEFT JOIN visitor_details d ON d.visitor_id = p.visitor_id
    WHERE p.viewed_at >= ?
    ORDER BY p.viewed_at DESC
    LIMIT ?
    `

	err := db.Raw(query, since.UTC(), limit).Scan(&results).Error
	if err != nil {
		return nil, fmt.Errorf("error listing active visitors: %w", err)
	}

	return results, nil
}
