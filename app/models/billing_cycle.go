package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	BillingCycleStatusPending = "pending"
	BillingCycleStatusPaid    = "paid"
)

// BillingCycle is one consolidated settlement per (user, period). The unique
// (user_id, period) index is load-bearing: it is the fence that makes
// settlement idempotent under concurrent pay requests.
type BillingCycle struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	UUID         string          `gorm:"type:varchar(36);uniqueIndex" json:"uuid"`
	UserID       uint            `gorm:"not null;index:ux_billing_cycles_user_period,unique,priority:1" json:"user_id"`
	Period       string          `gorm:"type:varchar(7);not null;index:ux_billing_cycles_user_period,unique,priority:2" json:"period"`
	BillingDate  time.Time       `gorm:"type:timestamp;not null" json:"billing_date"`
	TotalPLN     decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"total_pln"`
	CreditUsed   decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"credit_used_pln"`
	Status       string          `gorm:"type:varchar(16);not null;default:'pending'" json:"status"`
	PaidAt       *time.Time      `gorm:"type:timestamp;default:null" json:"paid_at,omitempty"`
	CreatedAt    time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time       `gorm:"autoUpdateTime" json:"updated_at"`

	Items []BillingCycleItem `gorm:"constraint:OnDelete:CASCADE" json:"items,omitempty"`
}

func (b *BillingCycle) BeforeCreate(tx *gorm.DB) error {
	if b.UUID == "" {
		b.UUID = uuid.NewString()
	}
	return nil
}

// BillingCycleItem is one subscription charge inside a cycle. Created only
// at settlement time and never mutated afterwards.
type BillingCycleItem struct {
	ID               uint            `gorm:"primaryKey" json:"id"`
	BillingCycleID   uint            `gorm:"not null;index" json:"billing_cycle_id"`
	SubscriptionID   uint            `gorm:"not null" json:"subscription_id"`
	ProviderCode     string          `gorm:"type:varchar(30);not null" json:"provider_code"`
	PlanName         string          `gorm:"type:varchar(100);not null" json:"plan_name"`
	PricePLN         decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price_pln"`
	PendingChargePLN decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"pending_charge_pln"`
	PeriodFrom       time.Time       `gorm:"type:timestamp;not null" json:"period_from"`
	PeriodTo         time.Time       `gorm:"type:timestamp;not null" json:"period_to"`
	CreditApplied    decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"credit_applied_pln"`
	CreatedAt        time.Time       `gorm:"autoCreateTime" json:"created_at"`
}
