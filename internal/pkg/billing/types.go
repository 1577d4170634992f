package billing

import (
	"time"

	"github.com/shopspring/decimal"
)

// PreviewItem is one subscription charge inside a billing preview.
type PreviewItem struct {
	SubscriptionID   uint            `json:"subscription_id"`
	SubscriptionUUID string          `json:"subscription_uuid"`
	ProviderCode     string          `json:"provider_code"`
	PlanName         string          `json:"plan_name"`
	PricePLN         decimal.Decimal `json:"price_pln"`
	PendingChargePLN decimal.Decimal `json:"pending_charge_pln"`
	ToPayPLN         decimal.Decimal `json:"to_pay_pln"`
	PeriodFrom       time.Time       `json:"period_from"`
	PeriodTo         time.Time       `json:"period_to"`
}

// Preview is the priced dry run of one consolidated billing cycle. Producing
// it has no side effects; the settlement engine turns it into a persisted
// BillingCycle.
type Preview struct {
	UserID                uint            `json:"user_id"`
	Period                string          `json:"period"`
	Window                Window          `json:"window"`
	Items                 []PreviewItem   `json:"items"`
	TotalBeforeCreditPLN  decimal.Decimal `json:"total_before_credit_pln"`
	WalletBalancePLN      decimal.Decimal `json:"wallet_balance_pln"`
	CreditUsedPLN         decimal.Decimal `json:"credit_used_pln"`
	TotalToPayPLN         decimal.Decimal `json:"total_to_pay_pln"`
}

// UpgradeQuote is the prorated surcharge owed when switching to a costlier
// plan before the next renewal.
type UpgradeQuote struct {
	DiffToPayPLN  decimal.Decimal `json:"diff_to_pay_pln"`
	DaysRemaining int             `json:"days_remaining"`
	NextRenewal   time.Time       `json:"next_renewal"`
}
