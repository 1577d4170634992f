package repository

import (
	"github.com/pkarbowski/streambill/app/models"
	"gorm.io/gorm"
)

// subscriptionRepository implements the SubscriptionRepository interface
type subscriptionRepository struct {
	db *gorm.DB
}

// NewSubscriptionRepository creates a new subscription repository instance
func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

func (r *subscriptionRepository) GetByUUIDForUser(uuid string, userID uint) (*models.Subscription, error) {
	var sub models.Subscription
	err := r.db.Preload("Plan").Preload("PendingPlan").
		Where("uuid = ? AND user_id = ?", uuid, userID).First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *subscriptionRepository) ListByUser(userID uint) ([]models.Subscription, error) {
	var subs []models.Subscription
	err := r.db.Preload("Plan").Preload("PendingPlan").
		Where("user_id = ?", userID).Order("id ASC").Find(&subs).Error
	return subs, err
}

// ListBillableByUser returns the subscriptions that take part in the next
// billing run: active ones and pending changes whose renewal has not passed
// yet. Cancellations never renew, so they are excluded.
func (r *subscriptionRepository) ListBillableByUser(userID uint) ([]models.Subscription, error) {
	var subs []models.Subscription
	err := r.db.Preload("Plan").Preload("PendingPlan").
		Where("user_id = ? AND status IN ?", userID,
			[]string{models.SubscriptionStatusActive, models.SubscriptionStatusPendingChange}).
		Order("id ASC").Find(&subs).Error
	return subs, err
}

func (r *subscriptionRepository) Update(sub *models.Subscription) error {
	return r.db.Save(sub).Error
}
