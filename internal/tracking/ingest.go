package tracking

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/karloscodes/cartridge"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"sitepulse/internal/beacons"
	"sitepulse/internal/models"
)

// RecordBeacon applies a normalized beacon to storage.
//
// The primary write path (visitor upsert, session upsert, page-view insert
// plus counter increment, custom-event insert) runs inside one write
// transaction, so the session's page_views counter can never drift from the
// actual page-view rows. The detail replacement is auxiliary: its failure
// is logged and the beacon still counts as accepted.
func RecordBeacon(dbManager cartridge.DBManager, logger *slog.Logger, n *beacons.Normalized) error {
	db := dbManager.GetConnection()

	err := models.PerformWrite(logger, db, func(tx *gorm.DB) error {
		if err := upsertVisitor(tx, n); err != nil {
			return fmt.Errorf("visitor upsert: %w", err)
		}

		session, owned, err := upsertSession(tx, logger, n)
		if err != nil {
			return fmt.Errorf("session upsert: %w", err)
		}
		if !owned {
			// Session belongs to a different visitor; never mutate it on
			// their behalf. The visitor bump above already happened.
			return nil
		}

		if n.PageView != nil {
			if err := insertPageView(tx, session, n); err != nil {
				return fmt.Errorf("page view insert: %w", err)
			}
		}

		if n.Event != nil {
			if err := insertCustomEvent(tx, n); err != nil {
				return fmt.Errorf("custom event insert: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		logger.Error("Failed to record beacon",
			slog.String("visitor", n.VisitorID),
			slog.String("session", n.SessionID),
			slog.Any("error", err))
		return fmt.Errorf("failed to record beacon: %w", err)
	}

	// Auxiliary write: last-write-wins classification snapshot. A failure
	// here must not fail the beacon.
	if n.Detail != nil {
		if err := ReplaceDetail(db, logger, n); err != nil {
			logger.Error("Failed to replace visitor detail, beacon still accepted",
				slog.String("visitor", n.VisitorID),
				slog.Any("error", err))
		}
	}

	return nil
}

// upsertVisitor creates the visitor on first contact, otherwise only bumps
// last_seen. IP address and user agent are first-write-wins, and last_seen
// never moves backwards regardless of beacon arrival order.
func upsertVisitor(tx *gorm.DB, n *beacons.Normalized) error {
	var visitor Visitor
	err := tx.Where("visitor_id = ?", n.VisitorID).First(&visitor).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		visitor = Visitor{
			VisitorID: n.VisitorID,
			IPAddress: n.IPAddress,
			UserAgent: n.UserAgent,
			CreatedAt: n.Timestamp,
			LastSeen:  n.Timestamp,
		}
		return tx.Create(&visitor).Error
	}
	if err != nil {
		return err
	}

	if n.Timestamp.After(visitor.LastSeen) {
		return tx.Model(&Visitor{}).
			Where("visitor_id = ?", n.VisitorID).
			UpdateColumn("last_seen", n.Timestamp).Error
	}
	return nil
}

// upsertSession creates the session lazily on the first beacon referencing
// its ID. An existing session is never re-created and its identity fields
// are never overwritten; the client's isNewSession flag is advisory only
// since retries can repeat it. Returns owned=false when the session exists
// under a different visitor.
func upsertSession(tx *gorm.DB, logger *slog.Logger, n *beacons.Normalized) (*Session, bool, error) {
	var session Session
	err := tx.Where("session_id = ?", n.SessionID).First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		session = Session{
			SessionID:      n.SessionID,
			VisitorID:      n.VisitorID,
			StartedAt:      n.Timestamp,
			Referrer:       n.Referrer,
			ReferrerDomain: n.ReferrerDomain,
			UTMSource:      n.UTMSource,
			UTMMedium:      n.UTMMedium,
			UTMCampaign:    n.UTMCampaign,
		}
		if err := tx.Create(&session).Error; err != nil {
			return nil, false, err
		}
		return &session, true, nil
	}
	if err != nil {
		return nil, false, err
	}

	if session.VisitorID != n.VisitorID {
		logger.Warn("Beacon references a session owned by another visitor, skipping session writes",
			slog.String("session", n.SessionID),
			slog.String("owner", session.VisitorID),
			slog.String("visitor", n.VisitorID))
		return &session, false, nil
	}

	// Lifecycle bump: every later beacon extends the session's end
	if n.Timestamp.After(session.StartedAt) {
		if session.EndedAt == nil || n.Timestamp.After(*session.EndedAt) {
			duration := int(n.Timestamp.Sub(session.StartedAt).Seconds())
			err := tx.Model(&Session{}).
				Where("session_id = ?", n.SessionID).
				UpdateColumns(map[string]interface{}{
					"ended_at": n.Timestamp,
					"duration": duration,
				}).Error
			if err != nil {
				return nil, false, err
			}
		}
	}

	return &session, true, nil
}

// insertPageView appends the page-view row and increments the owning
// session's counter by exactly one. Both run inside the caller's
// transaction: either both happen or neither.
func insertPageView(tx *gorm.DB, session *Session, n *beacons.Normalized) error {
	pageView := PageView{
		SessionID: n.SessionID,
		VisitorID: n.VisitorID,
		PagePath:  n.PageView.Path,
		PageTitle: n.PageView.Title,
		ViewedAt:  n.Timestamp,
		IsBounce:  session.PageViews == 0,
		CreatedAt: time.Now().UTC(),
	}
	if err := tx.Create(&pageView).Error; err != nil {
		return err
	}

	return tx.Model(&Session{}).
		Where("session_id = ?", n.SessionID).
		UpdateColumn("page_views", gorm.Expr("page_views + ?", 1)).Error
}

func insertCustomEvent(tx *gorm.DB, n *beacons.Normalized) error {
	event := CustomEvent{
		SessionID: n.SessionID,
		VisitorID: n.VisitorID,
		EventType: n.Event.EventType,
		EventName: n.Event.EventName,
		EventData: models.JSON(n.Event.EventData),
		CreatedAt: n.Timestamp,
	}
	return tx.Create(&event).Error
}

// ReplaceDetail overwrites the visitor's entire classification snapshot.
// Last write wins per beacon, not per field: a later beacon carrying less
// information still replaces everything that was known before.
func ReplaceDetail(db *gorm.DB, logger *slog.Logger, n *beacons.Normalized) error {
	detail := VisitorDetail{
		VisitorID:      n.VisitorID,
		Country:        n.Detail.Country,
		CountryCode:    n.Detail.CountryCode,
		City:           n.Detail.City,
		Region:         n.Detail.Region,
		Latitude:       n.Detail.Latitude,
		Longitude:      n.Detail.Longitude,
		Timezone:       n.Detail.Timezone,
		Browser:        n.Detail.Browser,
		BrowserVersion: n.Detail.BrowserVersion,
		OS:             n.Detail.OS,
		OSVersion:      n.Detail.OSVersion,
		DeviceType:     n.Detail.DeviceType,
		DeviceBrand:    n.Detail.DeviceBrand,
		DeviceModel:    n.Detail.DeviceModel,
		ScreenWidth:    n.Detail.ScreenWidth,
		ScreenHeight:   n.Detail.ScreenHeight,
		Language:       n.Detail.Language,
		UpdatedAt:      time.Now().UTC(),
	}

	return models.PerformWrite(logger, db, func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "visitor_id"}},
			UpdateAll: true,
		}).Create(&detail).Error
	})
}
