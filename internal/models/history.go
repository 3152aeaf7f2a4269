package models

import "time"

// TimeRange represents the selected history time range.
type TimeRange int

const (
	// TimeRange24Hours shows data from the last 24 hours.
	TimeRange24Hours TimeRange = iota
	// TimeRange7Days shows data from the last 7 days.
	TimeRange7Days
	// TimeRange30Days shows data from the last 30 days.
	TimeRange30Days
	// TimeRangeAllTime shows all available historical data.
	TimeRangeAllTime
)

// String returns the display name for a time range.
func (t TimeRange) String() string {
	switch t {
	case TimeRange24Hours:
		return "24 Hours"
	case TimeRange7Days:
		return "7 Days"
	case TimeRange30Days:
		return "30 Days"
	case TimeRangeAllTime:
		return "All Time"
	default:
		return "Unknown"
	}
}

// Days returns the number of days for the time range (0 = unlimited).
func (t TimeRange) Days() int {
	switch t {
	case TimeRange24Hours:
		return 1
	case TimeRange7Days:
		return 7
	case TimeRange30Days:
		return 30
	case TimeRangeAllTime:
		return 0
	default:
		return 30
	}
}

// Next cycles to the next time range.
func (t TimeRange) Next() TimeRange {
	return (t + 1) % 4
}

// QuotaSnapshot is a point-in-time remaining-percent reading for one
// (provider, entry key) pair, persisted for trend charts.
type QuotaSnapshot struct {
	Timestamp        time.Time
	Provider         string
	Key              string
	RemainingPercent float64
}

// SeriesPoint is one charted point of a remaining-percent series.
type SeriesPoint struct {
	Timestamp        time.Time
	RemainingPercent float64
}

// DepletionEstimate is a linear projection of when a series reaches zero,
// derived from the first and last points of the charted window.
type DepletionEstimate struct {
	RatePerHour float64 // percent consumed per hour; <= 0 means not depleting
	DepleteAt   time.Time
	Valid       bool
}
