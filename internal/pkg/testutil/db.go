package testutil

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/pkarbowski/streambill/app/models"
)

// SetupDB returns an isolated in-memory database with the full schema
// migrated. TranslateError is on so duplicate-key violations surface as
// gorm.ErrDuplicatedKey, the same way the MySQL driver reports them in
// production.
func SetupDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Plan{},
		&models.Subscription{},
		&models.Wallet{},
		&models.WalletTransaction{},
		&models.BillingCycle{},
		&models.BillingCycleItem{},
	))

	return db
}

// User creates a verified active user. billingDay == 0 leaves the billing
// day unset.
func User(t *testing.T, db *gorm.DB, email string, billingDay int) *models.User {
	t.Helper()

	user := &models.User{
		Name:   "Test User",
		Email:  email,
		Role:   models.ROLE_USER,
		Status: models.STATUS_ACTIVE,
	}
	pw, err := models.HashPassword("secret123")
	require.NoError(t, err)
	user.Password = pw

	now := db.NowFunc()
	user.EmailVerifiedAt = &now
	if billingDay != 0 {
		user.BillingDay = &billingDay
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// Plan creates an active monthly plan.
func Plan(t *testing.T, db *gorm.DB, provider, name, price string) *models.Plan {
	t.Helper()

	plan := &models.Plan{
		ProviderCode: provider,
		Name:         name,
		PricePLN:     decimal.RequireFromString(price),
		Screens:      1,
		BillingCycle: models.PlanCycleMonthly,
		Active:       true,
	}
	require.NoError(t, db.Create(plan).Error)
	return plan
}

// Wallet creates a wallet holding the given balance.
func Wallet(t *testing.T, db *gorm.DB, userID uint, balance string) *models.Wallet {
	t.Helper()

	w := &models.Wallet{
		UserID:     userID,
		BalancePLN: decimal.RequireFromString(balance),
	}
	require.NoError(t, db.Create(w).Error)
	return w
}
