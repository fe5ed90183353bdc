package users

import (
	"context"

	"github.com/codana-ai/billing-sync/pkg/db/models"
	"gorm.io/gorm"
)

// Repository exposes user-related persistence operations.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, dto CreateUserDTO) (*models.User, error)
	FindByClerkID(ctx context.Context, clerkUserID string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByCustomerID(ctx context.Context, customerID string) (*models.User, error)
	ListRecent(ctx context.Context, limit int) ([]models.User, error)
	UpdateFields(ctx context.Context, id string, fields map[string]any) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository constructs a users repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// Create inserts a new user and returns the persisted model.
func (r *repository) Create(ctx context.Context, dto CreateUserDTO) (*models.User, error) {
	user := dto.ToModel()
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// FindByClerkID retrieves the user matching the Clerk identity.
func (r *repository) FindByClerkID(ctx context.Context, clerkUserID string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("clerk_user_id = ?", clerkUserID).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByEmail retrieves the user matching the provided email.
func (r *repository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByCustomerID retrieves the user already linked to a billing customer.
func (r *repository) FindByCustomerID(ctx context.Context, customerID string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("paddle_customer_id = ?", customerID).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// ListRecent returns the most recently active users, newest first.
func (r *repository) ListRecent(ctx context.Context, limit int) ([]models.User, error) {
	if limit <= 0 {
		limit = 5
	}
	var list []models.User
	if err := r.db.WithContext(ctx).
		Order("updated_at DESC").
		Limit(limit).
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

// UpdateFields applies a partial update to the user row.
func (r *repository) UpdateFields(ctx context.Context, id string, fields map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Updates(fields).Error
}
