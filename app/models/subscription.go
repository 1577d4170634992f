package models

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	SubscriptionStatusActive              = "active"
	SubscriptionStatusPendingChange       = "pending_change"
	SubscriptionStatusPendingCancellation = "pending_cancellation"
	SubscriptionStatusCancelled           = "cancelled"
)

// ErrNegativeAmount guards every money field that must never go below zero.
var ErrNegativeAmount = errors.New("amount must not be negative")

// Subscription is a user's ownership of one provider plan. RenewalDay
// anchors the provider-level charge; the user-level billing day lives on
// the User. Status follows a small state machine:
//
//	active -> pending_change -> active            (plan swap at renewal)
//	active -> pending_cancellation -> cancelled   (access ends at ActiveUntil)
type Subscription struct {
	ID               uint             `gorm:"primaryKey" json:"id"`
	UUID             string           `gorm:"type:varchar(36);uniqueIndex" json:"uuid"`
	UserID           uint             `gorm:"not null;index" json:"user_id"`
	ProviderCode     string           `gorm:"type:varchar(30);not null" json:"provider_code"`
	PlanID           uint             `gorm:"not null" json:"plan_id"`
	RenewalDay       int              `gorm:"type:tinyint;not null" json:"renewal_day" validate:"min=1,max=28"`
	PriceOverridePLN *decimal.Decimal `gorm:"type:decimal(10,2);default:null" json:"price_override_pln,omitempty"`
	PendingPlanID    *uint            `gorm:"default:null" json:"pending_plan_id,omitempty"`
	PendingChargePLN *decimal.Decimal `gorm:"type:decimal(10,2);default:null" json:"pending_charge_pln,omitempty"`
	Status           string           `gorm:"type:varchar(32);not null;default:'active';index" json:"status" validate:"oneof=active pending_change pending_cancellation cancelled"`
	ActiveUntil      *time.Time       `gorm:"type:timestamp;default:null" json:"active_until,omitempty"`
	CancelledAt      *time.Time       `gorm:"type:timestamp;default:null" json:"cancelled_at,omitempty"`
	CreatedAt        time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time        `gorm:"autoUpdateTime" json:"updated_at"`

	Plan        *Plan `gorm:"foreignKey:PlanID" json:"plan,omitempty"`
	PendingPlan *Plan `gorm:"foreignKey:PendingPlanID" json:"pending_plan,omitempty"`
}

func (s *Subscription) BeforeCreate(tx *gorm.DB) error {
	if s.UUID == "" {
		s.UUID = uuid.NewString()
	}
	return nil
}

func (s *Subscription) Validate() error {
	v := validator.New()

	return v.Struct(s)
}

// EffectivePrice is the per-cycle price billed for this subscription: the
// user-negotiated override when present, otherwise the plan price.
func (s *Subscription) EffectivePrice() decimal.Decimal {
	if s.PriceOverridePLN != nil {
		return *s.PriceOverridePLN
	}
	if s.Plan != nil {
		return s.Plan.PricePLN
	}
	return decimal.Zero
}

// PendingCharge returns the accrued upgrade surcharge, zero when none is
// outstanding.
func (s *Subscription) PendingCharge() decimal.Decimal {
	if s.PendingChargePLN == nil {
		return decimal.Zero
	}
	return *s.PendingChargePLN
}

// Billable reports whether the subscription takes part in billing runs.
// Pending states stay billable until their calendar gate passes.
func (s *Subscription) Billable() bool {
	return s.Status != SubscriptionStatusCancelled
}
