package repository_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/pkarbowski/streambill/app/models"
	"github.com/pkarbowski/streambill/app/repository"
	"github.com/pkarbowski/streambill/internal/pkg/testutil"
)

func createSubscription(t *testing.T, db *gorm.DB, userID uint, plan *models.Plan, status string) *models.Subscription {
	t.Helper()

	sub := &models.Subscription{
		UserID:       userID,
		ProviderCode: plan.ProviderCode,
		PlanID:       plan.ID,
		RenewalDay:   15,
		Status:       status,
	}
	require.NoError(t, db.Create(sub).Error)
	return sub
}

func TestFactoryReturnsSingletons(t *testing.T) {
	db := testutil.SetupDB(t)
	factory := repository.NewFactory(db)

	first := factory.GetRepositories()
	second := factory.GetRepositories()

	assert.Same(t, first, second)
	assert.NotNil(t, factory.GetUserRepository())
	assert.NotNil(t, factory.GetSubscriptionRepository())
	assert.NotNil(t, factory.GetWalletRepository())
}

func TestSubscriptionGetByUUIDForUserIsScoped(t *testing.T) {
	db := testutil.SetupDB(t)
	owner := testutil.User(t, db, "owner@example.com", 15)
	other := testutil.User(t, db, "other@example.com", 15)
	plan := testutil.Plan(t, db, "netflix", "Premium", "29.99")
	sub := createSubscription(t, db, owner.ID, plan, models.SubscriptionStatusActive)

	repo := repository.NewSubscriptionRepository(db)

	found, err := repo.GetByUUIDForUser(sub.UUID, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, sub.ID, found.ID)
	require.NotNil(t, found.Plan, "plan must come preloaded")
	assert.Equal(t, "Premium", found.Plan.Name)

	_, err = repo.GetByUUIDForUser(sub.UUID, other.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestSubscriptionListBillableByUser(t *testing.T) {
	db := testutil.SetupDB(t)
	user := testutil.User(t, db, "billable@example.com", 15)
	plan := testutil.Plan(t, db, "netflix", "Premium", "29.99")

	active := createSubscription(t, db, user.ID, plan, models.SubscriptionStatusActive)
	pending := createSubscription(t, db, user.ID, plan, models.SubscriptionStatusPendingChange)
	createSubscription(t, db, user.ID, plan, models.SubscriptionStatusCancelled)

	repo := repository.NewSubscriptionRepository(db)
	subs, err := repo.ListBillableByUser(user.ID)
	require.NoError(t, err)

	require.Len(t, subs, 2)
	assert.Equal(t, active.ID, subs[0].ID)
	assert.Equal(t, pending.ID, subs[1].ID)
}

func TestUserListBillableByDay(t *testing.T) {
	db := testutil.SetupDB(t)
	due := testutil.User(t, db, "due@example.com", 15)
	testutil.User(t, db, "otherday@example.com", 10)

	unverified := testutil.User(t, db, "unverified@example.com", 15)
	require.NoError(t, db.Model(&models.User{}).Where("id = ?", unverified.ID).
		Update("email_verified_at", nil).Error)

	repo := repository.NewUserRepository(db)
	users, err := repo.ListBillableByDay(15)
	require.NoError(t, err)

	require.Len(t, users, 1)
	assert.Equal(t, due.ID, users[0].ID)
}

func TestWalletGetOrCreateByUser(t *testing.T) {
	db := testutil.SetupDB(t)
	user := testutil.User(t, db, "wallet@example.com", 15)

	repo := repository.NewWalletRepository(db)
	created, err := repo.GetOrCreateByUser(user.ID)
	require.NoError(t, err)
	assert.True(t, created.BalancePLN.IsZero())

	again, err := repo.GetOrCreateByUser(user.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, again.ID)
}
