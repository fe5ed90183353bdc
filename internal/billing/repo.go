package billing

import (
	"context"

	"github.com/codana-ai/billing-sync/pkg/db/models"
	"github.com/codana-ai/billing-sync/pkg/enums"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository handles billing persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	InsertSubscription(ctx context.Context, subscription *models.Subscription) (bool, error)
	UpdateSubscriptionFields(ctx context.Context, id string, fields map[string]any) (int64, error)
	FindSubscriptionByID(ctx context.Context, id string) (*models.Subscription, error)
	ListActiveSubscriptionsByCustomer(ctx context.Context, customerID string) ([]models.Subscription, error)
	CreateSubscriptionItems(ctx context.Context, items []models.SubscriptionItem) error
	InsertTransaction(ctx context.Context, transaction *models.Transaction) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a billing repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// InsertSubscription writes a subscription row keyed by the provider id.
// Redeliveries hit the conflict clause and report false without erroring.
func (r *repository) InsertSubscription(ctx context.Context, subscription *models.Subscription) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoNothing: true,
		}).
		Create(subscription)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// UpdateSubscriptionFields applies a partial update and reports how many rows
// matched, so callers can tell an update against a missing row apart from a
// successful one.
func (r *repository) UpdateSubscriptionFields(ctx context.Context, id string, fields map[string]any) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Subscription{}).
		Where("id = ?", id).
		Updates(fields)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (r *repository) FindSubscriptionByID(ctx context.Context, id string) (*models.Subscription, error) {
	var subscription models.Subscription
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&subscription).Error
	if err != nil {
		return nil, err
	}
	return &subscription, nil
}

func (r *repository) ListActiveSubscriptionsByCustomer(ctx context.Context, customerID string) ([]models.Subscription, error) {
	var subs []models.Subscription
	if err := r.db.WithContext(ctx).
		Where("customer_id = ? AND status = ?", customerID, enums.SubscriptionStatusActive).
		Order("synced_at DESC").
		Find(&subs).Error; err != nil {
		return nil, err
	}
	return subs, nil
}

func (r *repository) CreateSubscriptionItems(ctx context.Context, items []models.SubscriptionItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

// InsertTransaction writes a transaction row keyed by the provider id,
// ignoring redeliveries the same way InsertSubscription does.
func (r *repository) InsertTransaction(ctx context.Context, transaction *models.Transaction) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoNothing: true,
		}).
		Create(transaction)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
