package billing

import (
	"time"

	"github.com/pkarbowski/streambill/internal/pkg/calendar"
)

// Window is one half-open consolidated billing period [Start, End).
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// ComputeWindow returns the currently open billing window for a user whose
// consolidated charge lands on billingDay. If this month's anchor has not
// passed yet (today included) the window opens on it; otherwise it opens on
// next month's anchor. End is always exactly one month after Start, so
// consecutive windows tile the calendar without gaps or overlap.
func ComputeWindow(billingDay int, now time.Time) Window {
	anchor := calendar.At(now.Year(), now.Month(), billingDay)
	start := anchor
	if calendar.At(now.Year(), now.Month(), now.Day()).After(anchor) {
		start = calendar.AddMonthsOnDay(anchor, 1, billingDay)
	}
	return Window{
		Start: start,
		End:   calendar.AddMonthsOnDay(start, 1, billingDay),
	}
}

// RenewalInWindow returns the first occurrence of renewalDay that falls
// inside the window, scanning month by month from the window start. The
// zero time and false are returned when no occurrence lands inside, which
// excludes the subscription from the billing run.
func RenewalInWindow(renewalDay int, w Window) (time.Time, bool) {
	candidate := calendar.At(w.Start.Year(), w.Start.Month(), renewalDay)
	for candidate.Before(w.End) {
		if !candidate.Before(w.Start) {
			return candidate, true
		}
		candidate = calendar.AddMonthsOnDay(candidate, 1, renewalDay)
	}
	return time.Time{}, false
}
