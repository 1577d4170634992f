package billing

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/pkarbowski/streambill/internal/pkg/calendar"
)

// prorationCycleDays is the fixed divisor used for upgrade proration. The
// actual month length is deliberately ignored; every cycle is treated as 30
// days.
var prorationCycleDays = decimal.NewFromInt(30)

// UpgradeCost computes the mid-cycle surcharge owed when moving from
// oldPrice to newPrice before the subscription's next renewal. The next
// renewal is the first occurrence of renewalDay strictly after today; when
// today is the renewal day itself the charge is treated as already due and
// the quote spans a full month. At least one day is always charged.
func UpgradeCost(oldPrice, newPrice decimal.Decimal, renewalDay int, today time.Time) UpgradeQuote {
	nextRenewal := calendar.NextDayOfMonth(today, renewalDay)
	daysRemaining := calendar.DaysBetween(today, nextRenewal)
	if daysRemaining < 1 {
		daysRemaining = 1
	}

	dailyDiff := newPrice.Sub(oldPrice).Div(prorationCycleDays)
	return UpgradeQuote{
		DiffToPayPLN:  dailyDiff.Mul(decimal.NewFromInt(int64(daysRemaining))).Round(2),
		DaysRemaining: daysRemaining,
		NextRenewal:   nextRenewal,
	}
}
