// Package timeframe models the reporting window every aggregate query is
// parameterized by: one of the enumerated period presets or an explicit
// start/end pair supplied by the caller.
package timeframe

import (
	"fmt"
	"time"
)

// Period is an enumerated reporting window preset
type Period string

const (
	PeriodLast24Hours Period = "24h"
	PeriodLast7Days   Period = "7d"
	PeriodLast30Days  Period = "30d"
	PeriodAllTime     Period = "all"
)

// DefaultPeriod is applied when the caller does not select a window
const DefaultPeriod = PeriodLast24Hours

// ActiveWindow is the lookback used for "active now" metrics and the
// real-time visitor listing.
const ActiveWindow = 5 * time.Minute

// TimeFrame represents a period between two points in time. From/To are
// always UTC; queries filter with half-open-ish BETWEEN semantics so To is
// inclusive.
type TimeFrame struct {
	From   time.Time
	To     time.Time
	Period Period
}

// TimeProvider abstracts the clock so window boundaries are testable
type TimeProvider interface {
	Now() time.Time
}

// DefaultTimeProvider uses the system clock in UTC
type DefaultTimeProvider struct{}

func (p *DefaultTimeProvider) Now() time.Time {
	return time.Now().UTC()
}

// ValidPeriod reports whether s names one of the enumerated presets
func ValidPeriod(s string) bool {
	switch Period(s) {
	case PeriodLast24Hours, PeriodLast7Days, PeriodLast30Days, PeriodAllTime:
		return true
	}
	return false
}

// Parser turns caller-supplied window selectors into TimeFrames
type Parser struct {
	timeProvider TimeProvider
}

func NewParser(timeProvider ...TimeProvider) *Parser {
	var provider TimeProvider = &DefaultTimeProvider{}
	if len(timeProvider) > 0 && timeProvider[0] != nil {
		provider = timeProvider[0]
	}
	return &Parser{timeProvider: provider}
}

// ParserParams carries the raw query-surface window selector. StartDate and
// EndDate, when both present, override Period entirely.
type ParserParams struct {
	Period    string
	StartDate string
	EndDate   string
}

// acceptedDateLayouts are tried in order when parsing explicit date literals
var acceptedDateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Parse resolves the window selector into a concrete TimeFrame.
// An unknown period string falls back to the default rather than erroring:
// the reporting surface treats a bad selector as "show me the default view".
// Explicit dates, in contrast, fail loudly when malformed.
func (p *Parser) Parse(params ParserParams) (*TimeFrame, error) {
	if params.StartDate != "" && params.EndDate != "" {
		from, err := parseDateLiteral(params.StartDate)
		if err != nil {
			return nil, fmt.Errorf("invalid startDate: %w", err)
		}
		to, err := parseDateLiteral(params.EndDate)
		if err != nil {
			return nil, fmt.Errorf("invalid endDate: %w", err)
		}
		if from.After(to) {
			return nil, fmt.Errorf("startDate must be before endDate")
		}
		return &TimeFrame{From: from, To: to}, nil
	}

	period := Period(params.Period)
	if !ValidPeriod(params.Period) {
		period = DefaultPeriod
	}
	return p.ForPeriod(period), nil
}

// ForPeriod builds the TimeFrame for an enumerated preset ending now
func (p *Parser) ForPeriod(period Period) *TimeFrame {
	now := p.timeProvider.Now()

	tf := &TimeFrame{To: now, Period: period}
	switch period {
	case PeriodLast7Days:
		tf.From = now.AddDate(0, 0, -7)
	case PeriodLast30Days:
		tf.From = now.AddDate(0, 0, -30)
	case PeriodAllTime:
		tf.From = time.Unix(0, 0).UTC()
	default:
		tf.From = now.Add(-24 * time.Hour)
		tf.Period = PeriodLast24Hours
	}
	return tf
}

// Today returns the calendar-day window containing now, in UTC.
// Used for the "unique today" metric, which is day-boundary based rather
// than a rolling 24 hours.
func (p *Parser) Today() *TimeFrame {
	now := p.timeProvider.Now()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return &TimeFrame{From: start, To: now}
}

// LastMinutes returns a rolling window of the given length ending now
func (p *Parser) LastMinutes(d time.Duration) *TimeFrame {
	now := p.timeProvider.Now()
	return &TimeFrame{From: now.Add(-d), To: now}
}

func parseDateLiteral(s string) (time.Time, error) {
	for _, layout := range acceptedDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date literal: %q", s)
}
