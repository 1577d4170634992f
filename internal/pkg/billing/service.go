package billing

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/pkarbowski/streambill/app/models"
	"github.com/pkarbowski/streambill/internal/pkg/calendar"
)

// Service computes consolidated billing previews and settles them.
type Service struct {
	repo Repository
}

// NewService creates a billing service from an injected repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// NewServiceFromDB creates a billing service from a GORM DB handle.
func NewServiceFromDB(db *gorm.DB) *Service {
	return NewService(NewRepository(db))
}

// Preview prices the user's current billing window without writing anything.
// It is safe to call repeatedly. Returns ErrSetupRequired when the user has
// no billing day yet; an empty item list is returned as-is so callers can
// distinguish "nothing due" from failure.
func (s *Service) Preview(userID uint, now time.Time) (*Preview, error) {
	user, err := s.repo.GetUser(userID)
	if err != nil {
		return nil, err
	}
	if !user.CanBeBilled() {
		return nil, ErrSetupRequired
	}

	window := ComputeWindow(*user.BillingDay, now)

	subs, err := s.repo.ListBillableSubscriptions(userID)
	if err != nil {
		return nil, err
	}
	balance, err := s.repo.GetWalletBalance(userID)
	if err != nil {
		return nil, err
	}

	preview := &Preview{
		UserID:           userID,
		Period:           calendar.Period(window.Start),
		Window:           window,
		Items:            make([]PreviewItem, 0, len(subs)),
		WalletBalancePLN: balance,
	}

	total := decimal.Zero
	for _, sub := range subs {
		renewal, ok := RenewalInWindow(sub.RenewalDay, window)
		if !ok {
			continue
		}

		price := sub.EffectivePrice().Round(2)
		pending := sub.PendingCharge().Round(2)
		item := PreviewItem{
			SubscriptionID:   sub.ID,
			SubscriptionUUID: sub.UUID,
			ProviderCode:     sub.ProviderCode,
			PricePLN:         price,
			PendingChargePLN: pending,
			ToPayPLN:         price.Add(pending),
			PeriodFrom:       renewal,
			PeriodTo:         calendar.AddMonthsOnDay(renewal, 1, sub.RenewalDay),
		}
		if sub.Plan != nil {
			item.PlanName = sub.Plan.Name
		}
		preview.Items = append(preview.Items, item)
		total = total.Add(item.ToPayPLN)
	}

	preview.TotalBeforeCreditPLN = total.Round(2)
	preview.CreditUsedPLN = decimal.Min(balance, preview.TotalBeforeCreditPLN).Round(2)
	if preview.CreditUsedPLN.IsNegative() {
		preview.CreditUsedPLN = decimal.Zero
	}
	preview.TotalToPayPLN = decimal.Max(decimal.Zero, preview.TotalBeforeCreditPLN.Sub(preview.CreditUsedPLN)).Round(2)

	return preview, nil
}

// Settle commits the current preview as a paid billing cycle, exactly once
// per (user, period). Preconditions in order: billing day set, at least one
// item in the window, period not yet paid. All writes happen inside one
// transaction in the repository; nothing partial survives a failure.
func (s *Service) Settle(userID uint, now time.Time) (*models.BillingCycle, error) {
	preview, err := s.Preview(userID, now)
	if err != nil {
		return nil, err
	}
	if len(preview.Items) == 0 {
		return nil, ErrNothingToBill
	}

	items := make([]models.BillingCycleItem, 0, len(preview.Items))
	for _, it := range preview.Items {
		items = append(items, models.BillingCycleItem{
			SubscriptionID:   it.SubscriptionID,
			ProviderCode:     it.ProviderCode,
			PlanName:         it.PlanName,
			PricePLN:         it.PricePLN,
			PendingChargePLN: it.PendingChargePLN,
			PeriodFrom:       it.PeriodFrom,
			PeriodTo:         it.PeriodTo,
			// Credit is applied at cycle level only; items record zero.
			CreditApplied: decimal.Zero,
		})
	}

	return s.repo.PersistSettlement(&Settlement{
		UserID:      userID,
		Period:      preview.Period,
		BillingDate: preview.Window.Start,
		TotalPLN:    preview.TotalToPayPLN,
		CreditUsed:  preview.CreditUsedPLN,
		Items:       items,
		Now:         now,
	})
}
