package repository

import (
	"github.com/pkarbowski/streambill/app/models"
	"gorm.io/gorm"
)

// billingCycleRepository implements the BillingCycleRepository interface
type billingCycleRepository struct {
	db *gorm.DB
}

// NewBillingCycleRepository creates a new billing cycle repository instance
func NewBillingCycleRepository(db *gorm.DB) BillingCycleRepository {
	return &billingCycleRepository{db: db}
}

func (r *billingCycleRepository) GetByUUIDForUser(uuid string, userID uint) (*models.BillingCycle, error) {
	var cycle models.BillingCycle
	err := r.db.Preload("Items").
		Where("uuid = ? AND user_id = ?", uuid, userID).First(&cycle).Error
	if err != nil {
		return nil, err
	}
	return &cycle, nil
}

func (r *billingCycleRepository) ListByUser(userID uint, offset, limit int) ([]models.BillingCycle, error) {
	var cycles []models.BillingCycle
	err := r.db.Where("user_id = ?", userID).
		Order("period DESC").Offset(offset).Limit(limit).Find(&cycles).Error
	return cycles, err
}
