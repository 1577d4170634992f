package repository

import (
	"github.com/pkarbowski/streambill/app/models"
	"gorm.io/gorm"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByAPIKeyHash(hash string) (*models.User, error)
	Update(user *models.User) error
	SetBillingDay(userID uint, day int) error
	ListBillableByDay(day int) ([]models.User, error)
}

// PlanRepository defines the interface for plan catalog operations
type PlanRepository interface {
	Create(plan *models.Plan) error
	GetByID(id uint) (*models.Plan, error)
	ListActive() ([]models.Plan, error)
	Update(plan *models.Plan) error
	Deactivate(id uint) error
}

// SubscriptionRepository defines the interface for subscription records.
// Creation and money-moving writes happen inside the ledger's own
// transactions; this interface carries the reads and plain updates shared
// by the ledger and billing services.
type SubscriptionRepository interface {
	GetByUUIDForUser(uuid string, userID uint) (*models.Subscription, error)
	ListByUser(userID uint) ([]models.Subscription, error)
	ListBillableByUser(userID uint) ([]models.Subscription, error)
	Update(sub *models.Subscription) error
}

// WalletRepository defines the interface for wallet and audit operations
type WalletRepository interface {
	GetOrCreateByUser(userID uint) (*models.Wallet, error)
	GetByUser(userID uint) (*models.Wallet, error)
	ListTransactions(walletID uint, offset, limit int) ([]models.WalletTransaction, error)
}

// BillingCycleRepository defines read access to settled cycles; writes
// happen only through the settlement engine's own repository.
type BillingCycleRepository interface {
	GetByUUIDForUser(uuid string, userID uint) (*models.BillingCycle, error)
	ListByUser(userID uint, offset, limit int) ([]models.BillingCycle, error)
}

// Repositories aggregates all repository instances
type Repositories struct {
	User         UserRepository
	Plan         PlanRepository
	Subscription SubscriptionRepository
	Wallet       WalletRepository
	BillingCycle BillingCycleRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:         NewUserRepository(db),
		Plan:         NewPlanRepository(db),
		Subscription: NewSubscriptionRepository(db),
		Wallet:       NewWalletRepository(db),
		BillingCycle: NewBillingCycleRepository(db),
	}
}
