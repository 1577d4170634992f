package billing

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/pkarbowski/streambill/internal/pkg/calendar"
)

func TestUpgradeCost(t *testing.T) {
	tests := []struct {
		name          string
		oldPrice      string
		newPrice      string
		renewalDay    int
		today         time.Time
		expectedDays  int
		expectedDiff  string
		expectedRenew time.Time
	}{
		{
			"Five days to renewal",
			"20.00", "50.00", 15, calendar.At(2026, time.March, 10),
			5, "5.00", calendar.At(2026, time.March, 15),
		},
		{
			"Rounding to grosz",
			"29.99", "49.99", 15, calendar.At(2026, time.March, 10),
			5, "3.33", calendar.At(2026, time.March, 15),
		},
		{
			"On renewal day quote spans next cycle",
			"20.00", "50.00", 15, calendar.At(2026, time.March, 15),
			31, "31.00", calendar.At(2026, time.April, 15),
		},
		{
			"Renewal already passed this month",
			"20.00", "50.00", 5, calendar.At(2026, time.March, 10),
			26, "26.00", calendar.At(2026, time.April, 5),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			quote := UpgradeCost(
				decimal.RequireFromString(tt.oldPrice),
				decimal.RequireFromString(tt.newPrice),
				tt.renewalDay, tt.today)

			assert.Equal(t, tt.expectedDays, quote.DaysRemaining)
			assert.Equal(t, tt.expectedDiff, quote.DiffToPayPLN.StringFixed(2))
			assert.Equal(t, tt.expectedRenew, quote.NextRenewal)
		})
	}
}

// The surcharge never charges fewer than one day even if the renewal is
// minutes away.
func TestUpgradeCostMinimumOneDay(t *testing.T) {
	today := time.Date(2026, time.March, 14, 23, 50, 0, 0, time.UTC)
	quote := UpgradeCost(decimal.RequireFromString("20.00"), decimal.RequireFromString("50.00"), 15, today)

	assert.Equal(t, 1, quote.DaysRemaining)
	assert.Equal(t, "1.00", quote.DiffToPayPLN.StringFixed(2))
}
