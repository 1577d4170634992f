package ledger

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/pkarbowski/streambill/app/models"
	"github.com/pkarbowski/streambill/app/repository"
	"github.com/pkarbowski/streambill/internal/pkg/wallet"
)

// Repository provides DB operations used by the ledger service.
type Repository interface {
	GetUser(userID uint) (*models.User, error)
	GetPlan(planID uint) (*models.Plan, error)
	GetSubscriptionForUser(uuid string, userID uint) (*models.Subscription, error)
	ListByUser(userID uint) ([]models.Subscription, error)
	Save(sub *models.Subscription) error
	CreateWithPayment(sub *models.Subscription, charge decimal.Decimal) error
	BookSurcharge(sub *models.Subscription, newPlan *models.Plan, surcharge decimal.Decimal) error
	ExpireCancellations(now time.Time, userID uint) (int64, error)
	ListDuePlanChanges(now time.Time, userID uint) ([]models.Subscription, error)
	ApplyPlanChange(sub *models.Subscription, pendingPlan *models.Plan) error
}

// gormRepository keeps the raw DB handle for the transactional writes and
// delegates reads and plain updates to the shared app repositories.
type gormRepository struct {
	db    *gorm.DB
	users repository.UserRepository
	plans repository.PlanRepository
	subs  repository.SubscriptionRepository
}

// NewRepository creates a ledger repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{
		db:    db,
		users: repository.NewUserRepository(db),
		plans: repository.NewPlanRepository(db),
		subs:  repository.NewSubscriptionRepository(db),
	}
}

func (r *gormRepository) GetUser(userID uint) (*models.User, error) {
	return r.users.GetByID(userID)
}

func (r *gormRepository) GetPlan(planID uint) (*models.Plan, error) {
	return r.plans.GetByID(planID)
}

func (r *gormRepository) GetSubscriptionForUser(uuid string, userID uint) (*models.Subscription, error) {
	return r.subs.GetByUUIDForUser(uuid, userID)
}

func (r *gormRepository) ListByUser(userID uint) ([]models.Subscription, error) {
	return r.subs.ListByUser(userID)
}

func (r *gormRepository) Save(sub *models.Subscription) error {
	return r.subs.Update(sub)
}

// CreateWithPayment inserts the subscription and, for a pay-now creation,
// debits the first period from the wallet in the same transaction. An
// insufficient balance fails the whole creation.
func (r *gormRepository) CreateWithPayment(sub *models.Subscription, charge decimal.Decimal) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(sub).Error; err != nil {
			return err
		}
		if charge.IsPositive() {
			return wallet.Debit(tx, sub.UserID, charge,
				models.WalletTxDebit, "subscription:"+sub.UUID)
		}
		return nil
	})
}

// BookSurcharge switches the subscription to the new plan immediately and
// accrues the prorated surcharge onto PendingChargePLN, with an audit row
// so a later plan-change request that discards the field leaves a trace.
func (r *gormRepository) BookSurcharge(sub *models.Subscription, newPlan *models.Plan, surcharge decimal.Decimal) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		accrued := surcharge
		if sub.PendingChargePLN != nil {
			accrued = accrued.Add(*sub.PendingChargePLN).Round(2)
		}
		sub.PlanID = newPlan.ID
		sub.ProviderCode = newPlan.ProviderCode
		sub.PendingChargePLN = &accrued
		if err := tx.Save(sub).Error; err != nil {
			return err
		}

		var w models.Wallet
		if err := tx.Where("user_id = ?", sub.UserID).FirstOrCreate(&w, models.Wallet{UserID: sub.UserID}).Error; err != nil {
			return err
		}
		return tx.Create(&models.WalletTransaction{
			WalletID:  w.ID,
			Type:      models.WalletTxUpgradeCharge,
			AmountPLN: surcharge,
			Reference: "subscription:" + sub.UUID,
		}).Error
	})
}

// ExpireCancellations flips every pending cancellation whose access window
// has closed to cancelled. userID == 0 sweeps all users.
func (r *gormRepository) ExpireCancellations(now time.Time, userID uint) (int64, error) {
	q := r.db.Model(&models.Subscription{}).
		Where("status = ? AND active_until IS NOT NULL AND active_until <= ?",
			models.SubscriptionStatusPendingCancellation, now)
	if userID != 0 {
		q = q.Where("user_id = ?", userID)
	}
	res := q.Update("status", models.SubscriptionStatusCancelled)
	return res.RowsAffected, res.Error
}

// ListDuePlanChanges returns pending changes whose renewal day has passed in
// the current month. userID == 0 scans all users.
func (r *gormRepository) ListDuePlanChanges(now time.Time, userID uint) ([]models.Subscription, error) {
	q := r.db.Preload("PendingPlan").
		Where("status = ? AND pending_plan_id IS NOT NULL AND renewal_day <= ?",
			models.SubscriptionStatusPendingChange, now.Day())
	if userID != 0 {
		q = q.Where("user_id = ?", userID)
	}
	var subs []models.Subscription
	err := q.Find(&subs).Error
	return subs, err
}

// ApplyPlanChange atomically swaps the subscription onto its pending plan
// and returns it to active.
func (r *gormRepository) ApplyPlanChange(sub *models.Subscription, pendingPlan *models.Plan) error {
	return r.db.Model(&models.Subscription{}).
		Where("id = ? AND status = ?", sub.ID, models.SubscriptionStatusPendingChange).
		Updates(map[string]any{
			"plan_id":         pendingPlan.ID,
			"provider_code":   pendingPlan.ProviderCode,
			"pending_plan_id": nil,
			"status":          models.SubscriptionStatusActive,
		}).Error
}
