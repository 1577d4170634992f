package repository

import (
	"errors"

	"github.com/pkarbowski/streambill/app/models"
	"gorm.io/gorm"
)

// walletRepository implements the WalletRepository interface
type walletRepository struct {
	db *gorm.DB
}

// NewWalletRepository creates a new wallet repository instance
func NewWalletRepository(db *gorm.DB) WalletRepository {
	return &walletRepository{db: db}
}

// GetOrCreateByUser returns the user's wallet, creating an empty one on
// first access.
func (r *walletRepository) GetOrCreateByUser(userID uint) (*models.Wallet, error) {
	var wallet models.Wallet
	err := r.db.Where("user_id = ?", userID).First(&wallet).Error
	if err == nil {
		return &wallet, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	wallet = models.Wallet{UserID: userID}
	if err := r.db.Create(&wallet).Error; err != nil {
		// Lost a create race with another request for the same user.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			err = r.db.Where("user_id = ?", userID).First(&wallet).Error
			if err == nil {
				return &wallet, nil
			}
		}
		return nil, err
	}
	return &wallet, nil
}

func (r *walletRepository) GetByUser(userID uint) (*models.Wallet, error) {
	var wallet models.Wallet
	if err := r.db.Where("user_id = ?", userID).First(&wallet).Error; err != nil {
		return nil, err
	}
	return &wallet, nil
}

func (r *walletRepository) ListTransactions(walletID uint, offset, limit int) ([]models.WalletTransaction, error) {
	var txs []models.WalletTransaction
	err := r.db.Where("wallet_id = ?", walletID).
		Order("id DESC").Offset(offset).Limit(limit).Find(&txs).Error
	return txs, err
}
