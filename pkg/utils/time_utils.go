package utils

import (
	"math"
	"time"
)

// DateLayout is the calendar date format used by billing APIs
const DateLayout = "2006-01-02"

// CalculateUptimeHours returns the whole hours elapsed between launch and now.
// It returns 0 for a launch time in the future.
func CalculateUptimeHours(launch, now time.Time) int {
	hours := math.Floor(now.Sub(launch).Hours())
	if hours < 0 {
		return 0
	}
	return int(hours)
}

// LookbackPeriod returns the inclusive calendar date range covering the
// lookbackDays full days before now (today excluded), in UTC.
func LookbackPeriod(now time.Time, lookbackDays int) (start, end time.Time) {
	u := now.UTC()
	today := time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
	return today.AddDate(0, 0, -lookbackDays), today.AddDate(0, 0, -1)
}

// FormatDate formats t as YYYY-MM-DD
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// GetMonthlyDays returns the number of days used for monthly projections
func GetMonthlyDays() float64 {
	return 30.0
}
