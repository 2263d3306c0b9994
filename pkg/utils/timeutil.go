package utils

import (
	"time"
)

// PHT is Philippine Standard Time (UTC+8). Price reports are dated in PHT.
var PHT *time.Location

func init() {
	var err error
	PHT, err = time.LoadLocation("Asia/Manila")
	if err != nil {
		// Fallback: create fixed zone if tz database is not available
		PHT = time.FixedZone("PHT", 8*60*60)
	}
}

// DateLayout is the calendar-date layout used by price records.
const DateLayout = "2006-01-02"

// NowPHT returns the current time in PHT.
func NowPHT() time.Time {
	return time.Now().In(PHT)
}

// ToPHT converts a time.Time to PHT.
func ToPHT(t time.Time) time.Time {
	return t.In(PHT)
}

// DateString formats t as a PHT calendar date ("2006-01-02").
func DateString(t time.Time) string {
	return t.In(PHT).Format(DateLayout)
}

// ParseDatePHT parses a date string in "2006-01-02" format and returns it in PHT.
func ParseDatePHT(dateStr string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, dateStr, PHT)
}

// StartOfDay returns midnight PHT of t's calendar day.
func StartOfDay(t time.Time) time.Time {
	d := t.In(PHT)
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, PHT)
}

// --- Agricultural calendar ---

// IsRainySeason reports whether month falls in the June–October wet season,
// when produce supply is high.
func IsRainySeason(month time.Month) bool {
	return month >= time.June && month <= time.October
}

// IsDrySeason reports whether month falls in the November–February dry
// season, when produce supply is low.
func IsDrySeason(month time.Month) bool {
	return month >= time.November || month <= time.February
}

// IsWeekend checks if t falls on a Saturday or Sunday in PHT.
func IsWeekend(t time.Time) bool {
	wd := t.In(PHT).Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// IsMonthEnd reports whether t is past the 25th of the month in PHT.
func IsMonthEnd(t time.Time) bool {
	return t.In(PHT).Day() > 25
}

// SeasonName returns a short label for the season of the given month.
func SeasonName(month time.Month) string {
	switch {
	case IsRainySeason(month):
		return "rainy"
	case IsDrySeason(month):
		return "dry"
	default:
		return "summer"
	}
}
