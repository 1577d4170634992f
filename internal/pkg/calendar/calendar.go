package calendar

import "time"

// MaxBillingDay is the highest day-of-month accepted for billing and renewal
// anchors. Days 29-31 are rejected at validation time so month arithmetic
// never has to reason about short months.
const MaxBillingDay = 28

// At returns midnight UTC of the given calendar day.
func At(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// AnchorInMonth returns the anchor day inside the month that contains t.
func AnchorInMonth(t time.Time, day int) time.Time {
	return At(t.Year(), t.Month(), clampDay(t.Year(), t.Month(), day))
}

// AddMonths advances t by the given number of months while preserving the
// target day-of-month. If the target day does not exist in the resulting
// month the last day of that month is used instead (cannot happen for days
// <= MaxBillingDay, but kept so the helper is safe on arbitrary input).
func AddMonths(t time.Time, months int) time.Time {
	return AddMonthsOnDay(t, months, t.Day())
}

// AddMonthsOnDay advances t by months and lands on the requested
// day-of-month, clamped into the resulting month.
func AddMonthsOnDay(t time.Time, months, day int) time.Time {
	anchor := time.Date(t.Year(), t.Month()+time.Month(months), 1,
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	return time.Date(anchor.Year(), anchor.Month(), clampDay(anchor.Year(), anchor.Month(), day),
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// NextDayOfMonth returns the next occurrence of the given day-of-month
// strictly after t. When t falls exactly on the day it rolls over to the
// following month.
func NextDayOfMonth(t time.Time, day int) time.Time {
	candidate := AnchorInMonth(t, day)
	if candidate.After(startOfDay(t)) {
		return candidate
	}
	return AddMonthsOnDay(candidate, 1, day)
}

// EndOfDay returns the last representable millisecond of the day containing t.
func EndOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 999_000_000, t.Location())
}

// DaysBetween returns the number of whole days from a to b, truncating both
// to midnight first.
func DaysBetween(a, b time.Time) int {
	return int(startOfDay(b).Sub(startOfDay(a)) / (24 * time.Hour))
}

// Period formats the YYYY-MM period label for a window start date.
func Period(t time.Time) string {
	return t.Format("2006-01")
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func clampDay(year int, month time.Month, day int) int {
	last := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
	if day > last {
		return last
	}
	if day < 1 {
		return 1
	}
	return day
}
