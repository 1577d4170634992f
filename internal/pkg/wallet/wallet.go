package wallet

import (
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/pkarbowski/streambill/app/models"
	"github.com/pkarbowski/streambill/app/repository"
)

// ErrInsufficientFunds means a debit would push the balance below zero.
var ErrInsufficientFunds = errors.New("insufficient wallet balance")

// ErrInvalidAmount rejects zero or negative amounts on top-ups and debits.
var ErrInvalidAmount = errors.New("amount must be positive")

// Service exposes wallet reads and top-ups. Debits always run inside a
// caller-owned transaction via Debit so they stay atomic with whatever
// business write triggered them.
type Service struct {
	db   *gorm.DB
	repo repository.WalletRepository
}

// NewService creates a wallet service bound to the given DB handle.
func NewService(db *gorm.DB) *Service {
	return &Service{db: db, repo: repository.NewWalletRepository(db)}
}

// Get returns the user's wallet, creating an empty one on first access.
func (s *Service) Get(userID uint) (*models.Wallet, error) {
	return s.repo.GetOrCreateByUser(userID)
}

// TopUp adds pre-funded credit to the user's wallet and records the audit
// row in the same transaction.
func (s *Service) TopUp(userID uint, amount decimal.Decimal, reference string) (*models.Wallet, error) {
	amount = amount.Round(2)
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	wallet, err := s.repo.GetOrCreateByUser(userID)
	if err != nil {
		return nil, err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Wallet{}).Where("id = ?", wallet.ID).
			Update("balance_pln", gorm.Expr("balance_pln + ?", amount)).Error; err != nil {
			return err
		}
		return tx.Create(&models.WalletTransaction{
			WalletID:  wallet.ID,
			Type:      models.WalletTxTopUp,
			AmountPLN: amount,
			Reference: reference,
		}).Error
	})
	if err != nil {
		return nil, err
	}

	return s.repo.GetByUser(userID)
}

// Transactions lists the wallet's audit trail, newest first.
func (s *Service) Transactions(userID uint, offset, limit int) ([]models.WalletTransaction, error) {
	wallet, err := s.repo.GetOrCreateByUser(userID)
	if err != nil {
		return nil, err
	}
	return s.repo.ListTransactions(wallet.ID, offset, limit)
}

// Debit subtracts amount from the user's balance inside the caller's
// transaction. The balance guard in the WHERE clause makes concurrent
// debits safe: the second one finds no row to update and fails with
// ErrInsufficientFunds instead of overdrawing.
func Debit(tx *gorm.DB, userID uint, amount decimal.Decimal, txType, reference string) error {
	amount = amount.Round(2)
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}

	var wallet models.Wallet
	if err := tx.Where("user_id = ?", userID).First(&wallet).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInsufficientFunds
		}
		return err
	}

	res := tx.Model(&models.Wallet{}).
		Where("id = ? AND balance_pln >= ?", wallet.ID, amount).
		Update("balance_pln", gorm.Expr("balance_pln - ?", amount))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrInsufficientFunds
	}

	return tx.Create(&models.WalletTransaction{
		WalletID:  wallet.ID,
		Type:      txType,
		AmountPLN: amount.Neg(),
		Reference: reference,
	}).Error
}
