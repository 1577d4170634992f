package ledger_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/pkarbowski/streambill/app/models"
	"github.com/pkarbowski/streambill/internal/pkg/calendar"
	"github.com/pkarbowski/streambill/internal/pkg/ledger"
	"github.com/pkarbowski/streambill/internal/pkg/testutil"
	"github.com/pkarbowski/streambill/internal/pkg/wallet"
)

func reload(t *testing.T, db *gorm.DB, id uint) *models.Subscription {
	t.Helper()

	var sub models.Subscription
	require.NoError(t, db.First(&sub, id).Error)
	return &sub
}

func TestCreateRequiresBillingDay(t *testing.T) {
	db := testutil.SetupDB(t)
	user := testutil.User(t, db, "noday@example.com", 0)
	plan := testutil.Plan(t, db, "netflix", "Premium", "29.99")

	svc := ledger.NewServiceFromDB(db)
	_, err := svc.Create(ledger.CreateInput{
		UserID:        user.ID,
		PlanID:        plan.ID,
		RenewalDay:    20,
		PaymentOption: ledger.PaymentAtBilling,
	}, calendar.At(2026, time.March, 10))

	assert.ErrorIs(t, err, ledger.ErrBillingDayRequired)
}

func TestCreateRejectsInactivePlan(t *testing.T) {
	db := testutil.SetupDB(t)
	user := testutil.User(t, db, "inactive@example.com", 15)
	plan := testutil.Plan(t, db, "netflix", "Premium", "29.99")
	require.NoError(t, db.Model(plan).Update("active", false).Error)

	svc := ledger.NewServiceFromDB(db)
	_, err := svc.Create(ledger.CreateInput{
		UserID:        user.ID,
		PlanID:        plan.ID,
		RenewalDay:    20,
		PaymentOption: ledger.PaymentAtBilling,
	}, calendar.At(2026, time.March, 10))

	assert.ErrorIs(t, err, ledger.ErrPlanInactive)
}

func TestCreateDeferredPayment(t *testing.T) {
	db := testutil.SetupDB(t)
	user := testutil.User(t, db, "deferred@example.com", 15)
	plan := testutil.Plan(t, db, "netflix", "Premium", "29.99")

	svc := ledger.NewServiceFromDB(db)
	sub, err := svc.Create(ledger.CreateInput{
		UserID:        user.ID,
		PlanID:        plan.ID,
		RenewalDay:    20,
		PaymentOption: ledger.PaymentAtBilling,
	}, calendar.At(2026, time.March, 10))
	require.NoError(t, err)

	assert.NotEmpty(t, sub.UUID)
	assert.Equal(t, models.SubscriptionStatusActive, sub.Status)
	assert.Equal(t, "netflix", sub.ProviderCode)

	var txCount int64
	require.NoError(t, db.Model(&models.WalletTransaction{}).Count(&txCount).Error)
	assert.EqualValues(t, 0, txCount, "deferred creation must not touch the wallet")
}

func TestCreatePayNowDebitsWallet(t *testing.T) {
	db := testutil.SetupDB(t)
	user := testutil.User(t, db, "paynow@example.com", 15)
	plan := testutil.Plan(t, db, "netflix", "Premium", "29.99")
	testutil.Wallet(t, db, user.ID, "50.00")

	svc := ledger.NewServiceFromDB(db)
	sub, err := svc.Create(ledger.CreateInput{
		UserID:        user.ID,
		PlanID:        plan.ID,
		RenewalDay:    20,
		PaymentOption: ledger.PaymentNow,
	}, calendar.At(2026, time.March, 10))
	require.NoError(t, err)

	var w models.Wallet
	require.NoError(t, db.Where("user_id = ?", user.ID).First(&w).Error)
	assert.Equal(t, "20.01", w.BalancePLN.StringFixed(2))

	var tx models.WalletTransaction
	require.NoError(t, db.Where("wallet_id = ? AND type = ?", w.ID, models.WalletTxDebit).First(&tx).Error)
	assert.Equal(t, "-29.99", tx.AmountPLN.StringFixed(2))
	assert.Equal(t, "subscription:"+sub.UUID, tx.Reference)
}

func TestCreatePayNowInsufficientFunds(t *testing.T) {
	db := testutil.SetupDB(t)
	user := testutil.User(t, db, "broke@example.com", 15)
	plan := testutil.Plan(t, db, "netflix", "Premium", "29.99")
	testutil.Wallet(t, db, user.ID, "5.00")

	svc := ledger.NewServiceFromDB(db)
	_, err := svc.Create(ledger.CreateInput{
		UserID:        user.ID,
		PlanID:        plan.ID,
		RenewalDay:    20,
		PaymentOption: ledger.PaymentNow,
	}, calendar.At(2026, time.March, 10))

	assert.ErrorIs(t, err, wallet.ErrInsufficientFunds)

	var count int64
	require.NoError(t, db.Model(&models.Subscription{}).Count(&count).Error)
	assert.EqualValues(t, 0, count, "failed payment must roll back the creation")
}

func TestCreateWithPriceOverride(t *testing.T) {
	db := testutil.SetupDB(t)
	user := testutil.User(t, db, "override@example.com", 15)
	plan := testutil.Plan(t, db, "netflix", "Premium", "29.99")

	override := decimal.RequireFromString("19.99")
	svc := ledger.NewServiceFromDB(db)
	sub, err := svc.Create(ledger.CreateInput{
		UserID:        user.ID,
		PlanID:        plan.ID,
		RenewalDay:    20,
		PaymentOption: ledger.PaymentAtBilling,
		PriceOverride: &override,
	}, calendar.At(2026, time.March, 10))
	require.NoError(t, err)

	assert.Equal(t, "19.99", sub.EffectivePrice().StringFixed(2))
}

func TestCreatePayNowZeroOverrideIsFree(t *testing.T) {
	db := testutil.SetupDB(t)
	user := testutil.User(t, db, "comped@example.com", 15)
	plan := testutil.Plan(t, db, "netflix", "Premium", "29.99")
	testutil.Wallet(t, db, user.ID, "50.00")

	// A zero override is a comped subscription; paying now must not fall
	// back to the plan price.
	override := decimal.Zero
	svc := ledger.NewServiceFromDB(db)
	_, err := svc.Create(ledger.CreateInput{
		UserID:        user.ID,
		PlanID:        plan.ID,
		RenewalDay:    20,
		PaymentOption: ledger.PaymentNow,
		PriceOverride: &override,
	}, calendar.At(2026, time.March, 10))
	require.NoError(t, err)

	var w models.Wallet
	require.NoError(t, db.Where("user_id = ?", user.ID).First(&w).Error)
	assert.Equal(t, "50.00", w.BalancePLN.StringFixed(2))

	var txCount int64
	require.NoError(t, db.Model(&models.WalletTransaction{}).Count(&txCount).Error)
	assert.EqualValues(t, 0, txCount, "a comped subscription must not touch the wallet")
}

func TestCancelSetsActiveUntil(t *testing.T) {
	db := testutil.SetupDB(t)
	user := testutil.User(t, db, "cancel@example.com", 15)
	plan := testutil.Plan(t, db, "netflix", "Premium", "29.99")
	svc := ledger.NewServiceFromDB(db)
	sub, err := svc.Create(ledger.CreateInput{
		UserID: user.ID, PlanID: plan.ID, RenewalDay: 15,
		PaymentOption: ledger.PaymentAtBilling,
	}, calendar.At(2026, time.March, 10))
	require.NoError(t, err)

	// Next renewal after March 20 is April 15; access runs through the
	// last moment of April 14.
	now := calendar.At(2026, time.March, 20)
	cancelled, err := svc.Cancel(user.ID, sub.UUID, now)
	require.NoError(t, err)

	assert.Equal(t, models.SubscriptionStatusPendingCancellation, cancelled.Status)
	require.NotNil(t, cancelled.ActiveUntil)
	assert.Equal(t, time.Date(2026, time.April, 14, 23, 59, 59, 999_000_000, time.UTC), cancelled.ActiveUntil.UTC())
	require.NotNil(t, cancelled.CancelledAt)
}

func TestCancelAlreadyCancelled(t *testing.T) {
	db := testutil.SetupDB(t)
	user := testutil.User(t, db, "recancel@example.com", 15)
	plan := testutil.Plan(t, db, "netflix", "Premium", "29.99")
	svc := ledger.NewServiceFromDB(db)
	sub, err := svc.Create(ledger.CreateInput{
		UserID: user.ID, PlanID: plan.ID, RenewalDay: 15,
		PaymentOption: ledger.PaymentAtBilling,
	}, calendar.At(2026, time.March, 10))
	require.NoError(t, err)
	require.NoError(t, db.Model(&models.Subscription{}).Where("id = ?", sub.ID).
		Update("status", models.SubscriptionStatusCancelled).Error)

	_, err = svc.Cancel(user.ID, sub.UUID, calendar.At(2026, time.March, 20))
	assert.ErrorIs(t, err, ledger.ErrSubscriptionCancelled)
}

func TestReactivateClearsCancellation(t *testing.T) {
	db := testutil.SetupDB(t)
	user := testutil.User(t, db, "reactivate@example.com", 15)
	plan := testutil.Plan(t, db, "netflix", "Premium", "29.99")
	svc := ledger.NewServiceFromDB(db)
	sub, err := svc.Create(ledger.CreateInput{
		UserID: user.ID, PlanID: plan.ID, RenewalDay: 15,
		PaymentOption: ledger.PaymentAtBilling,
	}, calendar.At(2026, time.March, 10))
	require.NoError(t, err)

	_, err = svc.Cancel(user.ID, sub.UUID, calendar.At(2026, time.March, 20))
	require.NoError(t, err)

	reactivated, err := svc.Reactivate(user.ID, sub.UUID)
	require.NoError(t, err)

	assert.Equal(t, models.SubscriptionStatusActive, reactivated.Status)
	assert.Nil(t, reactivated.ActiveUntil)
	assert.Nil(t, reactivated.CancelledAt)
}

func TestSweepExpiresCancellations(t *testing.T) {
	db := testutil.SetupDB(t)
	user := testutil.User(t, db, "sweep@example.com", 15)
	plan := testutil.Plan(t, db, "netflix", "Premium", "29.99")
	svc := ledger.NewServiceFromDB(db)
	sub, err := svc.Create(ledger.CreateInput{
		UserID: user.ID, PlanID: plan.ID, RenewalDay: 15,
		PaymentOption: ledger.PaymentAtBilling,
	}, calendar.At(2026, time.March, 10))
	require.NoError(t, err)

	_, err = svc.Cancel(user.ID, sub.UUID, calendar.At(2026, time.March, 20))
	require.NoError(t, err)

	// Before the access window closes nothing happens.
	res, err := svc.Sweep(time.Date(2026, time.April, 14, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.EqualValues(t, 0, res.Expired)
	assert.Equal(t, models.SubscriptionStatusPendingCancellation, reload(t, db, sub.ID).Status)

	// The first sweep after it closes flips the record.
	res, err = svc.Sweep(calendar.At(2026, time.April, 15))
	require.NoError(t, err)
	assert.EqualValues(t, 1, res.Expired)
	assert.Equal(t, models.SubscriptionStatusCancelled, reload(t, db, sub.ID).Status)
}

func TestChangePlanDiscardsSurcharge(t *testing.T) {
	db := testutil.SetupDB(t)
	user := testutil.User(t, db, "change@example.com", 15)
	basic := testutil.Plan(t, db, "netflix", "Basic", "19.99")
	premium := testutil.Plan(t, db, "netflix", "Premium", "43.99")
	svc := ledger.NewServiceFromDB(db)
	sub, err := svc.Create(ledger.CreateInput{
		UserID: user.ID, PlanID: basic.ID, RenewalDay: 15,
		PaymentOption: ledger.PaymentAtBilling,
	}, calendar.At(2026, time.March, 1))
	require.NoError(t, err)

	// Upgrade first so a surcharge is outstanding.
	_, quote, err := svc.UpgradeNow(user.ID, sub.UUID, premium.ID, calendar.At(2026, time.March, 10))
	require.NoError(t, err)
	require.True(t, quote.DiffToPayPLN.IsPositive())

	changed, err := svc.ChangePlan(user.ID, sub.UUID, basic.ID)
	require.NoError(t, err)

	assert.Equal(t, models.SubscriptionStatusPendingChange, changed.Status)
	require.NotNil(t, changed.PendingPlanID)
	assert.Equal(t, basic.ID, *changed.PendingPlanID)
	assert.Nil(t, changed.PendingChargePLN, "new request supersedes the upgrade surcharge")

	// The discarded amount stays visible in the audit trail.
	var tx models.WalletTransaction
	require.NoError(t, db.Where("type = ?", models.WalletTxUpgradeCharge).First(&tx).Error)
	assert.Equal(t, quote.DiffToPayPLN.StringFixed(2), tx.AmountPLN.StringFixed(2))
}

func TestUpgradeNow(t *testing.T) {
	db := testutil.SetupDB(t)
	user := testutil.User(t, db, "upgrade@example.com", 15)
	basic := testutil.Plan(t, db, "netflix", "Basic", "20.00")
	premium := testutil.Plan(t, db, "netflix", "Premium", "50.00")
	svc := ledger.NewServiceFromDB(db)
	sub, err := svc.Create(ledger.CreateInput{
		UserID: user.ID, PlanID: basic.ID, RenewalDay: 15,
		PaymentOption: ledger.PaymentAtBilling,
	}, calendar.At(2026, time.March, 1))
	require.NoError(t, err)

	// Five days at 1.00/day difference.
	upgraded, quote, err := svc.UpgradeNow(user.ID, sub.UUID, premium.ID, calendar.At(2026, time.March, 10))
	require.NoError(t, err)

	assert.Equal(t, 5, quote.DaysRemaining)
	assert.Equal(t, "5.00", quote.DiffToPayPLN.StringFixed(2))
	assert.Equal(t, premium.ID, upgraded.PlanID)

	fresh := reload(t, db, sub.ID)
	assert.Equal(t, premium.ID, fresh.PlanID)
	require.NotNil(t, fresh.PendingChargePLN)
	assert.Equal(t, "5.00", fresh.PendingChargePLN.StringFixed(2))
}

func TestUpgradeNowRejectsDowngrade(t *testing.T) {
	db := testutil.SetupDB(t)
	user := testutil.User(t, db, "downgrade@example.com", 15)
	basic := testutil.Plan(t, db, "netflix", "Basic", "19.99")
	premium := testutil.Plan(t, db, "netflix", "Premium", "43.99")
	svc := ledger.NewServiceFromDB(db)
	sub, err := svc.Create(ledger.CreateInput{
		UserID: user.ID, PlanID: premium.ID, RenewalDay: 15,
		PaymentOption: ledger.PaymentAtBilling,
	}, calendar.At(2026, time.March, 1))
	require.NoError(t, err)

	_, _, err = svc.UpgradeNow(user.ID, sub.UUID, basic.ID, calendar.At(2026, time.March, 10))
	assert.ErrorIs(t, err, ledger.ErrNotAnUpgrade)

	_, err = svc.UpgradeQuote(user.ID, sub.UUID, basic.ID, calendar.At(2026, time.March, 10))
	assert.ErrorIs(t, err, ledger.ErrNotAnUpgrade)
}

func TestUpgradeNowAccruesRepeatedSurcharges(t *testing.T) {
	db := testutil.SetupDB(t)
	user := testutil.User(t, db, "accrue@example.com", 15)
	basic := testutil.Plan(t, db, "netflix", "Basic", "20.00")
	standard := testutil.Plan(t, db, "netflix", "Standard", "35.00")
	premium := testutil.Plan(t, db, "netflix", "Premium", "50.00")
	svc := ledger.NewServiceFromDB(db)
	sub, err := svc.Create(ledger.CreateInput{
		UserID: user.ID, PlanID: basic.ID, RenewalDay: 15,
		PaymentOption: ledger.PaymentAtBilling,
	}, calendar.At(2026, time.March, 1))
	require.NoError(t, err)

	_, _, err = svc.UpgradeNow(user.ID, sub.UUID, standard.ID, calendar.At(2026, time.March, 10))
	require.NoError(t, err)
	_, _, err = svc.UpgradeNow(user.ID, sub.UUID, premium.ID, calendar.At(2026, time.March, 10))
	require.NoError(t, err)

	// 15.00/30 * 5 = 2.50, then 15.00/30 * 5 = 2.50 on top.
	fresh := reload(t, db, sub.ID)
	require.NotNil(t, fresh.PendingChargePLN)
	assert.Equal(t, "5.00", fresh.PendingChargePLN.StringFixed(2))
}

func TestSweepAppliesDuePlanChanges(t *testing.T) {
	db := testutil.SetupDB(t)
	user := testutil.User(t, db, "duechange@example.com", 15)
	basic := testutil.Plan(t, db, "netflix", "Basic", "19.99")
	premium := testutil.Plan(t, db, "hbo", "Max", "43.99")
	svc := ledger.NewServiceFromDB(db)
	sub, err := svc.Create(ledger.CreateInput{
		UserID: user.ID, PlanID: basic.ID, RenewalDay: 15,
		PaymentOption: ledger.PaymentAtBilling,
	}, calendar.At(2026, time.March, 1))
	require.NoError(t, err)

	_, err = svc.ChangePlan(user.ID, sub.UUID, premium.ID)
	require.NoError(t, err)

	// Day 14: renewal day not reached, the change stays pending.
	res, err := svc.Sweep(calendar.At(2026, time.April, 14))
	require.NoError(t, err)
	assert.Zero(t, res.ChangesApplied)
	assert.Equal(t, models.SubscriptionStatusPendingChange, reload(t, db, sub.ID).Status)

	// Day 15: the change applies and the subscription follows the new plan.
	res, err = svc.Sweep(calendar.At(2026, time.April, 15))
	require.NoError(t, err)
	assert.Equal(t, 1, res.ChangesApplied)

	fresh := reload(t, db, sub.ID)
	assert.Equal(t, models.SubscriptionStatusActive, fresh.Status)
	assert.Equal(t, premium.ID, fresh.PlanID)
	assert.Equal(t, "hbo", fresh.ProviderCode)
	assert.Nil(t, fresh.PendingPlanID)
}

func TestListForUserSweepsFirst(t *testing.T) {
	db := testutil.SetupDB(t)
	user := testutil.User(t, db, "list@example.com", 15)
	plan := testutil.Plan(t, db, "netflix", "Premium", "29.99")
	svc := ledger.NewServiceFromDB(db)
	sub, err := svc.Create(ledger.CreateInput{
		UserID: user.ID, PlanID: plan.ID, RenewalDay: 15,
		PaymentOption: ledger.PaymentAtBilling,
	}, calendar.At(2026, time.March, 10))
	require.NoError(t, err)

	_, err = svc.Cancel(user.ID, sub.UUID, calendar.At(2026, time.March, 20))
	require.NoError(t, err)

	subs, err := svc.ListForUser(user.ID, calendar.At(2026, time.May, 1))
	require.NoError(t, err)

	require.Len(t, subs, 1)
	assert.Equal(t, models.SubscriptionStatusCancelled, subs[0].Status)
}
