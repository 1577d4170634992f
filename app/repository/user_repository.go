package repository

import (
	"strings"

	"github.com/pkarbowski/streambill/app/models"
	"gorm.io/gorm"
)

// userRepository implements the UserRepository interface
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository instance
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// Create creates a new user in the database
func (r *userRepository) Create(user *models.User) error {
	return r.db.Create(user).Error
}

// GetByID retrieves a user by their ID
func (r *userRepository) GetByID(id uint) (*models.User, error) {
	var user models.User
	err := r.db.First(&user, id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByEmail retrieves a user by their email address
func (r *userRepository) GetByEmail(email string) (*models.User, error) {
	var user models.User
	err := r.db.Where("email = ?", email).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByAPIKeyHash resolves an API key hash to its user.
func (r *userRepository) GetByAPIKeyHash(hash string) (*models.User, error) {
	trimmed := strings.TrimSpace(hash)
	if trimmed == "" {
		return nil, gorm.ErrRecordNotFound
	}
	var user models.User
	if err := r.db.Where("api_key_hash = ? AND api_key_hash <> ''", trimmed).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// Update saves user changes to the database
func (r *userRepository) Update(user *models.User) error {
	return r.db.Save(user).Error
}

// SetBillingDay updates only the billing day column.
func (r *userRepository) SetBillingDay(userID uint, day int) error {
	res := r.db.Model(&models.User{}).Where("id = ?", userID).Update("billing_day", day)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListBillableByDay returns all verified users whose billing day equals the
// given day-of-month. Used by the daily scheduler.
func (r *userRepository) ListBillableByDay(day int) ([]models.User, error) {
	var users []models.User
	err := r.db.
		Where("billing_day = ? AND email_verified_at IS NOT NULL AND status = ?", day, models.STATUS_ACTIVE).
		Find(&users).Error
	return users, err
}
