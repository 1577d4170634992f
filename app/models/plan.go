package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

const (
	PlanCycleMonthly = "monthly"
	PlanCycleYearly  = "yearly"
)

// Plan is a priced subscription tier offered by a streaming provider.
// Identified by the (provider_code, name) pair; price updates are the only
// mutation performed once subscriptions reference the plan.
type Plan struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	ProviderCode string          `gorm:"type:varchar(30);not null;index:ux_plans_provider_name,unique,priority:1" json:"provider_code" validate:"required,max=30"`
	Name         string          `gorm:"type:varchar(100);not null;index:ux_plans_provider_name,unique,priority:2" json:"name" validate:"required,max=100"`
	PricePLN     decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price_pln"`
	Screens      int             `gorm:"not null;default:1" json:"screens" validate:"min=1,max=10"`
	UHD          bool            `gorm:"default:false" json:"uhd"`
	Ads          bool            `gorm:"default:false" json:"ads"`
	BillingCycle string          `gorm:"type:varchar(16);not null;default:'monthly'" json:"billing_cycle" validate:"oneof=monthly yearly"`
	Active       bool            `gorm:"default:true;index" json:"active"`
	CreatedAt    time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (p *Plan) Validate() error {
	v := validator.New()

	if err := v.Struct(p); err != nil {
		return err
	}
	if p.PricePLN.IsNegative() {
		return ErrNegativeAmount
	}
	return nil
}
