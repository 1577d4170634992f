package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	WalletTxTopUp            = "topup"
	WalletTxDebit            = "debit"
	WalletTxSettlementCredit = "settlement_credit"
	WalletTxUpgradeCharge    = "upgrade_charge"
)

// Wallet holds a user's pre-funded credit. One wallet per user; the balance
// only moves inside transactions that also write a WalletTransaction row.
type Wallet struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	UserID     uint            `gorm:"not null;uniqueIndex" json:"user_id"`
	BalancePLN decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"balance_pln"`
	CreatedAt  time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// WalletTransaction is the audit trail for every balance mutation plus
// bookkeeping entries (e.g. an upgrade surcharge later superseded by a new
// plan-change request stays visible here even though the subscription field
// was cleared).
type WalletTransaction struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	WalletID  uint            `gorm:"not null;index" json:"wallet_id"`
	Type      string          `gorm:"type:varchar(32);not null" json:"type"`
	AmountPLN decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"amount_pln"`
	Reference string          `gorm:"type:varchar(191)" json:"reference"`
	CreatedAt time.Time       `gorm:"autoCreateTime" json:"created_at"`
}
