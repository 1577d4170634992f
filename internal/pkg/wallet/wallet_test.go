package wallet_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkarbowski/streambill/app/models"
	"github.com/pkarbowski/streambill/internal/pkg/testutil"
	"github.com/pkarbowski/streambill/internal/pkg/wallet"
)

func TestGetCreatesEmptyWallet(t *testing.T) {
	db := testutil.SetupDB(t)
	user := testutil.User(t, db, "fresh@example.com", 15)

	svc := wallet.NewService(db)
	w, err := svc.Get(user.ID)
	require.NoError(t, err)

	assert.Equal(t, user.ID, w.UserID)
	assert.Equal(t, "0.00", w.BalancePLN.StringFixed(2))

	// A second read returns the same wallet.
	again, err := svc.Get(user.ID)
	require.NoError(t, err)
	assert.Equal(t, w.ID, again.ID)
}

func TestTopUp(t *testing.T) {
	db := testutil.SetupDB(t)
	user := testutil.User(t, db, "topup@example.com", 15)

	svc := wallet.NewService(db)
	w, err := svc.TopUp(user.ID, decimal.RequireFromString("50.00"), "blik")
	require.NoError(t, err)
	assert.Equal(t, "50.00", w.BalancePLN.StringFixed(2))

	w, err = svc.TopUp(user.ID, decimal.RequireFromString("12.50"), "blik")
	require.NoError(t, err)
	assert.Equal(t, "62.50", w.BalancePLN.StringFixed(2))

	txs, err := svc.Transactions(user.ID, 0, 10)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, models.WalletTxTopUp, txs[0].Type)
}

func TestTopUpRejectsNonPositiveAmounts(t *testing.T) {
	db := testutil.SetupDB(t)
	user := testutil.User(t, db, "zero@example.com", 15)

	svc := wallet.NewService(db)

	_, err := svc.TopUp(user.ID, decimal.Zero, "blik")
	assert.ErrorIs(t, err, wallet.ErrInvalidAmount)

	_, err = svc.TopUp(user.ID, decimal.RequireFromString("-5.00"), "blik")
	assert.ErrorIs(t, err, wallet.ErrInvalidAmount)
}

func TestDebit(t *testing.T) {
	db := testutil.SetupDB(t)
	user := testutil.User(t, db, "debit@example.com", 15)
	w := testutil.Wallet(t, db, user.ID, "30.00")

	err := wallet.Debit(db, user.ID, decimal.RequireFromString("12.34"), models.WalletTxDebit, "test")
	require.NoError(t, err)

	var fresh models.Wallet
	require.NoError(t, db.First(&fresh, w.ID).Error)
	assert.Equal(t, "17.66", fresh.BalancePLN.StringFixed(2))

	var tx models.WalletTransaction
	require.NoError(t, db.Where("wallet_id = ?", w.ID).First(&tx).Error)
	assert.Equal(t, "-12.34", tx.AmountPLN.StringFixed(2))
}

func TestDebitInsufficientFunds(t *testing.T) {
	db := testutil.SetupDB(t)
	user := testutil.User(t, db, "shortfall@example.com", 15)
	w := testutil.Wallet(t, db, user.ID, "10.00")

	err := wallet.Debit(db, user.ID, decimal.RequireFromString("10.01"), models.WalletTxDebit, "test")
	assert.ErrorIs(t, err, wallet.ErrInsufficientFunds)

	var fresh models.Wallet
	require.NoError(t, db.First(&fresh, w.ID).Error)
	assert.Equal(t, "10.00", fresh.BalancePLN.StringFixed(2))

	var count int64
	require.NoError(t, db.Model(&models.WalletTransaction{}).Count(&count).Error)
	assert.EqualValues(t, 0, count, "failed debit must leave no audit row")
}

func TestDebitWithoutWallet(t *testing.T) {
	db := testutil.SetupDB(t)
	user := testutil.User(t, db, "nowallet@example.com", 15)

	err := wallet.Debit(db, user.ID, decimal.RequireFromString("1.00"), models.WalletTxDebit, "test")
	assert.ErrorIs(t, err, wallet.ErrInsufficientFunds)
}

func TestDebitExactBalance(t *testing.T) {
	db := testutil.SetupDB(t)
	user := testutil.User(t, db, "exact@example.com", 15)
	w := testutil.Wallet(t, db, user.ID, "29.99")

	err := wallet.Debit(db, user.ID, decimal.RequireFromString("29.99"), models.WalletTxDebit, "test")
	require.NoError(t, err)

	var fresh models.Wallet
	require.NoError(t, db.First(&fresh, w.ID).Error)
	assert.Equal(t, "0.00", fresh.BalancePLN.StringFixed(2))
}
