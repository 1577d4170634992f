package billing

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/pkarbowski/streambill/app/models"
	"github.com/pkarbowski/streambill/app/repository"
	"github.com/pkarbowski/streambill/internal/pkg/wallet"
)

// Settlement is the write set the engine commits for one billing run.
type Settlement struct {
	UserID      uint
	Period      string
	BillingDate time.Time
	TotalPLN    decimal.Decimal
	CreditUsed  decimal.Decimal
	Items       []models.BillingCycleItem
	Now         time.Time
}

// Repository provides DB operations used by the billing service.
type Repository interface {
	GetUser(userID uint) (*models.User, error)
	ListBillableSubscriptions(userID uint) ([]models.Subscription, error)
	GetWalletBalance(userID uint) (decimal.Decimal, error)
	PersistSettlement(st *Settlement) (*models.BillingCycle, error)
}

// gormRepository keeps the raw DB handle for the settlement transaction and
// delegates reads to the shared app repositories.
type gormRepository struct {
	db      *gorm.DB
	users   repository.UserRepository
	subs    repository.SubscriptionRepository
	wallets repository.WalletRepository
}

// NewRepository creates a billing repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{
		db:      db,
		users:   repository.NewUserRepository(db),
		subs:    repository.NewSubscriptionRepository(db),
		wallets: repository.NewWalletRepository(db),
	}
}

func (r *gormRepository) GetUser(userID uint) (*models.User, error) {
	return r.users.GetByID(userID)
}

func (r *gormRepository) ListBillableSubscriptions(userID uint) ([]models.Subscription, error) {
	return r.subs.ListBillableByUser(userID)
}

// GetWalletBalance reads the current balance without creating a wallet; a
// user who never funded one previews against zero credit.
func (r *gormRepository) GetWalletBalance(userID uint) (decimal.Decimal, error) {
	w, err := r.wallets.GetByUser(userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, err
	}
	return w.BalancePLN, nil
}

// PersistSettlement commits one billing run in a single transaction: cycle
// upsert, item inserts, wallet debit with audit row and the global
// pending-surcharge sweep. The unique (user_id, period) key is the
// authoritative idempotency fence; a duplicate-key hit on an already paid
// cycle surfaces as ErrAlreadySettled and writes nothing.
func (r *gormRepository) PersistSettlement(st *Settlement) (*models.BillingCycle, error) {
	var cycle models.BillingCycle

	err := r.db.Transaction(func(tx *gorm.DB) error {
		paidAt := st.Now
		cycle = models.BillingCycle{
			UserID:      st.UserID,
			Period:      st.Period,
			BillingDate: st.BillingDate,
			TotalPLN:    st.TotalPLN,
			CreditUsed:  st.CreditUsed,
			Status:      models.BillingCycleStatusPaid,
			PaidAt:      &paidAt,
		}
		if err := tx.Create(&cycle).Error; err != nil {
			if !errors.Is(err, gorm.ErrDuplicatedKey) {
				return err
			}
			var existing models.BillingCycle
			if err := tx.Where("user_id = ? AND period = ?", st.UserID, st.Period).
				First(&existing).Error; err != nil {
				return err
			}
			if existing.Status == models.BillingCycleStatusPaid {
				return ErrAlreadySettled
			}
			// A pending cycle for the period is promoted to paid and its
			// stale items replaced.
			if err := tx.Where("billing_cycle_id = ?", existing.ID).
				Delete(&models.BillingCycleItem{}).Error; err != nil {
				return err
			}
			existing.BillingDate = st.BillingDate
			existing.TotalPLN = st.TotalPLN
			existing.CreditUsed = st.CreditUsed
			existing.Status = models.BillingCycleStatusPaid
			existing.PaidAt = &paidAt
			if err := tx.Save(&existing).Error; err != nil {
				return err
			}
			cycle = existing
		}

		for i := range st.Items {
			st.Items[i].BillingCycleID = cycle.ID
		}
		if len(st.Items) > 0 {
			if err := tx.Create(&st.Items).Error; err != nil {
				return err
			}
		}

		if st.CreditUsed.IsPositive() {
			err := wallet.Debit(tx, st.UserID, st.CreditUsed,
				models.WalletTxSettlementCredit, "billing_cycle:"+st.Period)
			if errors.Is(err, wallet.ErrInsufficientFunds) {
				return ErrInsufficientCredit
			}
			if err != nil {
				return err
			}
		}

		// Global sweep: every outstanding surcharge of the user is cleared,
		// not only those on subscriptions settled in this window.
		return tx.Model(&models.Subscription{}).
			Where("user_id = ? AND pending_charge_pln IS NOT NULL", st.UserID).
			Update("pending_charge_pln", nil).Error
	})
	if err != nil {
		return nil, err
	}

	cycle.Items = st.Items
	return &cycle, nil
}
