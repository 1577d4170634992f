package billing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/pkarbowski/streambill/internal/pkg/calendar"
)

func TestComputeWindow(t *testing.T) {
	tests := []struct {
		name          string
		billingDay    int
		now           time.Time
		expectedStart time.Time
		expectedEnd   time.Time
	}{
		{
			"Anchor still ahead this month",
			15, calendar.At(2026, time.March, 10),
			calendar.At(2026, time.March, 15), calendar.At(2026, time.April, 15),
		},
		{
			"Anchor already passed",
			15, calendar.At(2026, time.March, 20),
			calendar.At(2026, time.April, 15), calendar.At(2026, time.May, 15),
		},
		{
			"On the anchor day itself",
			15, calendar.At(2026, time.March, 15),
			calendar.At(2026, time.March, 15), calendar.At(2026, time.April, 15),
		},
		{
			"Window spans year end",
			20, calendar.At(2026, time.December, 25),
			calendar.At(2027, time.January, 20), calendar.At(2027, time.February, 20),
		},
		{
			"Billing day 28 over February",
			28, calendar.At(2026, time.January, 30),
			calendar.At(2026, time.February, 28), calendar.At(2026, time.March, 28),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := ComputeWindow(tt.billingDay, tt.now)
			assert.Equal(t, tt.expectedStart, w.Start)
			assert.Equal(t, tt.expectedEnd, w.End)
		})
	}
}

// Consecutive windows must tile the calendar: the end of one is the start
// of the next, for every billing day and month.
func TestComputeWindowTiles(t *testing.T) {
	for day := 1; day <= calendar.MaxBillingDay; day++ {
		now := calendar.At(2026, time.January, 1)
		for i := 0; i < 14; i++ {
			w := ComputeWindow(day, now)
			next := ComputeWindow(day, w.End)
			assert.Equal(t, w.End, next.Start, "day %d iteration %d", day, i)
			now = w.End
		}
	}
}

func TestWindowContains(t *testing.T) {
	w := Window{
		Start: calendar.At(2026, time.March, 15),
		End:   calendar.At(2026, time.April, 15),
	}

	assert.True(t, w.Contains(calendar.At(2026, time.March, 15)))
	assert.True(t, w.Contains(calendar.At(2026, time.April, 14)))
	assert.False(t, w.Contains(calendar.At(2026, time.April, 15)), "end is exclusive")
	assert.False(t, w.Contains(calendar.At(2026, time.March, 14)))
}

func TestRenewalInWindow(t *testing.T) {
	w := ComputeWindow(15, calendar.At(2026, time.March, 10))

	renewal, ok := RenewalInWindow(20, w)
	assert.True(t, ok)
	assert.Equal(t, calendar.At(2026, time.March, 20), renewal)

	renewal, ok = RenewalInWindow(10, w)
	assert.True(t, ok)
	assert.Equal(t, calendar.At(2026, time.April, 10), renewal)

	// The window start itself is billable.
	renewal, ok = RenewalInWindow(15, w)
	assert.True(t, ok)
	assert.Equal(t, w.Start, renewal)
}

// A window narrower than a month can miss the renewal day entirely; the
// zero time and false signal that nothing in it is billable.
func TestRenewalInWindowNotFound(t *testing.T) {
	w := Window{
		Start: calendar.At(2026, time.March, 15),
		End:   calendar.At(2026, time.March, 20),
	}

	renewal, ok := RenewalInWindow(10, w)
	assert.False(t, ok)
	assert.True(t, renewal.IsZero())
}

// Against the month-long windows ComputeWindow produces, every valid
// renewal day lands inside exactly once.
func TestRenewalAlwaysFoundInComputedWindow(t *testing.T) {
	for billingDay := 1; billingDay <= calendar.MaxBillingDay; billingDay++ {
		w := ComputeWindow(billingDay, calendar.At(2026, time.January, 31))
		for renewalDay := 1; renewalDay <= calendar.MaxBillingDay; renewalDay++ {
			renewal, ok := RenewalInWindow(renewalDay, w)
			assert.True(t, ok, "billing day %d renewal day %d", billingDay, renewalDay)
			assert.True(t, w.Contains(renewal), "billing day %d renewal day %d", billingDay, renewalDay)
		}
	}
}
