package pto

import "time"

// BusinessDaysInclusive counts Monday-Friday days in [start, end], both
// endpoints included. Holidays are not observed.
func BusinessDaysInclusive(start, end time.Time) int {
	if end.Before(start) {
		return 0
	}
	start = truncateToDay(start)
	end = truncateToDay(end)

	days := 0
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		switch d.Weekday() {
		case time.Saturday, time.Sunday:
		default:
			days++
		}
	}
	return days
}

// TotalHours derives the hours a request consumes: a partial-day override
// wins outright, otherwise inclusive business days times the workday length.
func TotalHours(start, end time.Time, partialDayHours *float64, workdayHours float64) float64 {
	if partialDayHours != nil {
		return *partialDayHours
	}
	return float64(BusinessDaysInclusive(start, end)) * workdayHours
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
