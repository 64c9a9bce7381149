// Package seeder generates demo traffic for local development: a spread of
// visitors, sessions, page views, and custom events over the past 30 days.
package seeder

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/karloscodes/cartridge"

	"sitepulse/internal/beacons"
	"sitepulse/internal/tracking"
)

// Seeder handles the demo data seeding process
type Seeder struct {
	DBManager    cartridge.DBManager
	Logger       *slog.Logger
	VisitorCount int
}

// NewSeeder creates a new seeder instance
func NewSeeder(dbManager cartridge.DBManager, logger *slog.Logger, visitorCount int) *Seeder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Seeder{
		DBManager:    dbManager,
		Logger:       logger,
		VisitorCount: visitorCount,
	}
}

var seedPages = []string{"/", "/pricing", "/docs", "/blog", "/about", "/signup", "/features"}

var seedReferrers = []struct {
	raw    string
	domain string
}{
	{"", ""},
	{"https://www.google.com/search", "www.google.com"},
	{"https://news.ycombinator.com/item", "news.ycombinator.com"},
	{"https://t.co/abc123", "t.co"},
	{"https://www.linkedin.com/feed/", "www.linkedin.com"},
}

var seedDetails = []beacons.DetailData{
	{Country: "Germany", CountryCode: "DE", City: "Berlin", Browser: "Chrome", BrowserVersion: "126.0", OS: "Windows", OSVersion: "10.0", DeviceType: "desktop", ScreenWidth: 1920, ScreenHeight: 1080, Language: "de-DE"},
	{Country: "United States", CountryCode: "US", City: "New York", Browser: "Safari", BrowserVersion: "17.5", OS: "iOS", OSVersion: "17.5", DeviceType: "mobile", DeviceBrand: "Apple", DeviceModel: "iPhone", ScreenWidth: 390, ScreenHeight: 844, Language: "en-US"},
	{Country: "Spain", CountryCode: "ES", City: "Madrid", Browser: "Firefox", BrowserVersion: "127.0", OS: "Linux", DeviceType: "desktop", ScreenWidth: 2560, ScreenHeight: 1440, Language: "es-ES"},
	{Country: "United Kingdom", CountryCode: "GB", City: "London", Browser: "Chrome", BrowserVersion: "126.0", OS: "Android", OSVersion: "14", DeviceType: "mobile", DeviceBrand: "Samsung", DeviceModel: "SM-S918B", ScreenWidth: 412, ScreenHeight: 915, Language: "en-GB"},
}

// Seed writes demo traffic through the regular ingestion path so counters
// and derived fields come out exactly as they would in production.
func (s *Seeder) Seed(ctx context.Context) error {
	start := time.Now()
	s.Logger.Info("Seeding demo traffic...", slog.Int("visitors", s.VisitorCount))

	now := time.Now().UTC()
	for i := 0; i < s.VisitorCount; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		visitorID := uuid.NewString()
		detail := seedDetails[rand.IntN(len(seedDetails))]

		sessionCount := 1 + rand.IntN(3)
		for sn := 0; sn < sessionCount; sn++ {
			sessionID := uuid.NewString()
			ref := seedReferrers[rand.IntN(len(seedReferrers))]
			sessionStart := now.Add(-time.Duration(rand.IntN(30*24)) * time.Hour)

			viewCount := 1 + rand.IntN(4)
			for vn := 0; vn < viewCount; vn++ {
				beacon := &beacons.Normalized{
					VisitorID:      visitorID,
					SessionID:      sessionID,
					IPAddress:      fmt.Sprintf("203.0.113.%d", 1+rand.IntN(250)),
					UserAgent:      "Mozilla/5.0 (seeded)",
					Timestamp:      sessionStart.Add(time.Duration(vn) * time.Duration(20+rand.IntN(120)) * time.Second),
					Referrer:       ref.raw,
					ReferrerDomain: ref.domain,
					PageView: &beacons.PageViewData{
						Path:  seedPages[rand.IntN(len(seedPages))],
						Title: "Seeded Page",
					},
					Detail: &detail,
				}
				if err := tracking.RecordBeacon(s.DBManager, s.Logger, beacon); err != nil {
					return fmt.Errorf("failed to seed page view: %w", err)
				}
			}

			if rand.IntN(4) == 0 {
				event := &beacons.Normalized{
					VisitorID: visitorID,
					SessionID: sessionID,
					IPAddress: "203.0.113.1",
					UserAgent: "Mozilla/5.0 (seeded)",
					Timestamp: sessionStart.Add(time.Minute),
					Event: &beacons.CustomEventData{
						EventType: "custom",
						EventName: "signup_click",
						EventData: []byte(`{"seeded":true}`),
					},
				}
				if err := tracking.RecordBeacon(s.DBManager, s.Logger, event); err != nil {
					return fmt.Errorf("failed to seed custom event: %w", err)
				}
			}
		}
	}

	s.Logger.Info("Seeding completed",
		slog.Int("visitors", s.VisitorCount),
		slog.Duration("elapsed", time.Since(start)))
	return nil
}
