package ledger

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/pkarbowski/streambill/app/models"
	"github.com/pkarbowski/streambill/internal/pkg/billing"
	"github.com/pkarbowski/streambill/internal/pkg/calendar"
)

const (
	// PaymentNow debits the first period from the wallet at creation time.
	PaymentNow = "now"
	// PaymentAtBilling defers the first charge to the next consolidated
	// billing cycle.
	PaymentAtBilling = "at_billing"
)

var (
	// ErrBillingDayRequired means the user tried to add a subscription
	// before choosing a billing day.
	ErrBillingDayRequired = errors.New("billing day must be set before adding subscriptions")

	// ErrNotAnUpgrade means the requested immediate upgrade does not move to
	// a more expensive plan.
	ErrNotAnUpgrade = errors.New("new plan is not more expensive than the current one")

	// ErrPlanInactive rejects subscribing to or switching onto a retired plan.
	ErrPlanInactive = errors.New("plan is not available")

	// ErrSubscriptionCancelled rejects operations on a terminal subscription.
	ErrSubscriptionCancelled = errors.New("subscription is cancelled")
)

// Service owns subscription lifecycle transitions: creation, cancellation,
// reactivation, plan changes, immediate upgrades and the calendar-gated
// sweep that applies pending states.
type Service struct {
	repo Repository
}

// NewService creates a ledger service from an injected repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// NewServiceFromDB creates a ledger service from a GORM DB handle.
func NewServiceFromDB(db *gorm.DB) *Service {
	return NewService(NewRepository(db))
}

// CreateInput carries the parameters for adding a subscription.
type CreateInput struct {
	UserID        uint
	PlanID        uint
	RenewalDay    int
	PaymentOption string
	PriceOverride *decimal.Decimal
}

// Create adds a provider subscription for the user. The user must already
// have a billing day (there is no window to bill into otherwise). With
// PaymentNow the first period is debited from the wallet immediately.
func (s *Service) Create(in CreateInput, now time.Time) (*models.Subscription, error) {
	user, err := s.repo.GetUser(in.UserID)
	if err != nil {
		return nil, err
	}
	if !user.CanBeBilled() {
		return nil, ErrBillingDayRequired
	}

	plan, err := s.repo.GetPlan(in.PlanID)
	if err != nil {
		return nil, err
	}
	if !plan.Active {
		return nil, ErrPlanInactive
	}

	sub := &models.Subscription{
		UserID:       in.UserID,
		ProviderCode: plan.ProviderCode,
		PlanID:       plan.ID,
		RenewalDay:   in.RenewalDay,
		Status:       models.SubscriptionStatusActive,
	}
	if in.PriceOverride != nil {
		override := in.PriceOverride.Round(2)
		if override.IsNegative() {
			return nil, models.ErrNegativeAmount
		}
		sub.PriceOverridePLN = &override
	}
	if err := sub.Validate(); err != nil {
		return nil, err
	}

	// The subscription has no Plan attached yet, so compute the first
	// charge directly; a zero override means a free subscription.
	charge := decimal.Zero
	if in.PaymentOption == PaymentNow {
		if sub.PriceOverridePLN != nil {
			charge = *sub.PriceOverridePLN
		} else {
			charge = plan.PricePLN
		}
	}
	if err := s.repo.CreateWithPayment(sub, charge.Round(2)); err != nil {
		return nil, err
	}

	sub.Plan = plan
	return sub, nil
}

// Cancel requests cancellation: access continues until the day before the
// next renewal, end of day, after which the sweep flips the record to
// cancelled.
func (s *Service) Cancel(userID uint, subUUID string, now time.Time) (*models.Subscription, error) {
	sub, err := s.repo.GetSubscriptionForUser(subUUID, userID)
	if err != nil {
		return nil, err
	}
	if sub.Status == models.SubscriptionStatusCancelled {
		return nil, ErrSubscriptionCancelled
	}

	nextRenewal := calendar.NextDayOfMonth(now, sub.RenewalDay)
	activeUntil := calendar.EndOfDay(nextRenewal.AddDate(0, 0, -1))
	cancelledAt := now

	sub.Status = models.SubscriptionStatusPendingCancellation
	sub.ActiveUntil = &activeUntil
	sub.CancelledAt = &cancelledAt
	if err := s.repo.Save(sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// Reactivate unconditionally returns the subscription to active, clearing
// any cancellation bookkeeping. A pending plan change that was in flight is
// left untouched and simply never applies while the status is active.
func (s *Service) Reactivate(userID uint, subUUID string) (*models.Subscription, error) {
	sub, err := s.repo.GetSubscriptionForUser(subUUID, userID)
	if err != nil {
		return nil, err
	}

	sub.Status = models.SubscriptionStatusActive
	sub.ActiveUntil = nil
	sub.CancelledAt = nil
	if err := s.repo.Save(sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// ChangePlan requests a plan switch effective at the next renewal. An
// outstanding upgrade surcharge is discarded: the new request supersedes
// the old upgrade (the audit trail keeps the discarded amount visible).
func (s *Service) ChangePlan(userID uint, subUUID string, newPlanID uint) (*models.Subscription, error) {
	sub, err := s.repo.GetSubscriptionForUser(subUUID, userID)
	if err != nil {
		return nil, err
	}
	if sub.Status == models.SubscriptionStatusCancelled {
		return nil, ErrSubscriptionCancelled
	}

	plan, err := s.repo.GetPlan(newPlanID)
	if err != nil {
		return nil, err
	}
	if !plan.Active {
		return nil, ErrPlanInactive
	}

	sub.PendingPlanID = &plan.ID
	sub.PendingChargePLN = nil
	sub.Status = models.SubscriptionStatusPendingChange
	if err := s.repo.Save(sub); err != nil {
		return nil, err
	}
	sub.PendingPlan = plan
	return sub, nil
}

// UpgradeQuote prices an immediate switch to a more expensive plan without
// performing it.
func (s *Service) UpgradeQuote(userID uint, subUUID string, newPlanID uint, now time.Time) (*billing.UpgradeQuote, error) {
	sub, err := s.repo.GetSubscriptionForUser(subUUID, userID)
	if err != nil {
		return nil, err
	}
	plan, err := s.repo.GetPlan(newPlanID)
	if err != nil {
		return nil, err
	}
	if plan.PricePLN.LessThanOrEqual(sub.EffectivePrice()) {
		return nil, ErrNotAnUpgrade
	}

	quote := billing.UpgradeCost(sub.EffectivePrice(), plan.PricePLN, sub.RenewalDay, now)
	return &quote, nil
}

// UpgradeNow switches the subscription onto the more expensive plan
// immediately and books the prorated difference as a pending surcharge
// collected at the next settlement.
func (s *Service) UpgradeNow(userID uint, subUUID string, newPlanID uint, now time.Time) (*models.Subscription, *billing.UpgradeQuote, error) {
	sub, err := s.repo.GetSubscriptionForUser(subUUID, userID)
	if err != nil {
		return nil, nil, err
	}
	if sub.Status == models.SubscriptionStatusCancelled {
		return nil, nil, ErrSubscriptionCancelled
	}

	plan, err := s.repo.GetPlan(newPlanID)
	if err != nil {
		return nil, nil, err
	}
	if !plan.Active {
		return nil, nil, ErrPlanInactive
	}
	if plan.PricePLN.LessThanOrEqual(sub.EffectivePrice()) {
		return nil, nil, ErrNotAnUpgrade
	}

	quote := billing.UpgradeCost(sub.EffectivePrice(), plan.PricePLN, sub.RenewalDay, now)
	if err := s.repo.BookSurcharge(sub, plan, quote.DiffToPayPLN); err != nil {
		return nil, nil, err
	}

	sub.Plan = plan
	return sub, &quote, nil
}

// SweepResult summarizes one lifecycle sweep run.
type SweepResult struct {
	Expired        int64
	ChangesApplied int
}

// Sweep applies every due lifecycle transition: pending cancellations whose
// access window has closed become cancelled, and pending plan changes whose
// renewal day has passed in the current month are swapped onto their new
// plan. Callable from the list read path (immediate consistency) and from
// the daily scheduler, so correctness never depends on someone polling.
func (s *Service) Sweep(now time.Time) (SweepResult, error) {
	return s.sweep(now, 0)
}

// SweepUser is Sweep scoped to one user's subscriptions.
func (s *Service) SweepUser(userID uint, now time.Time) (SweepResult, error) {
	return s.sweep(now, userID)
}

func (s *Service) sweep(now time.Time, userID uint) (SweepResult, error) {
	var result SweepResult

	expired, err := s.repo.ExpireCancellations(now, userID)
	if err != nil {
		return result, err
	}
	result.Expired = expired

	due, err := s.repo.ListDuePlanChanges(now, userID)
	if err != nil {
		return result, err
	}
	for i := range due {
		sub := &due[i]
		if sub.PendingPlan == nil {
			continue
		}
		if err := s.repo.ApplyPlanChange(sub, sub.PendingPlan); err != nil {
			return result, err
		}
		result.ChangesApplied++
	}
	return result, nil
}

// ListForUser runs the scoped sweep first so pending transitions whose
// calendar gate has passed are reflected in the returned records.
func (s *Service) ListForUser(userID uint, now time.Time) ([]models.Subscription, error) {
	if _, err := s.SweepUser(userID, now); err != nil {
		return nil, err
	}
	return s.repo.ListByUser(userID)
}
