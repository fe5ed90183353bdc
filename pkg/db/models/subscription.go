package models

import (
	"encoding/json"
	"time"

	"github.com/codana-ai/billing-sync/pkg/enums"
)

// Subscription persists Paddle subscription state. The primary key is the
// provider-assigned id; provider timestamps are stored as-is while SyncedAt
// records the local write clock.
type Subscription struct {
	ID              string                   `gorm:"primaryKey"`
	CustomerID      string                   `gorm:"column:customer_id;not null;index"`
	Status          enums.SubscriptionStatus `gorm:"column:status;not null;index"`
	IsActive        bool                     `gorm:"column:is_active;not null;default:false"`
	NextBillingDate *time.Time               `gorm:"column:next_billing_date"`
	Currency        *string                  `gorm:"column:currency"`
	CanceledAt      *time.Time               `gorm:"column:canceled_at"`
	ProviderCreated *time.Time               `gorm:"column:provider_created_at"`
	ProviderUpdated *time.Time               `gorm:"column:provider_updated_at"`
	RawData         json.RawMessage          `gorm:"column:raw_data;type:jsonb"`
	SyncedAt        time.Time                `gorm:"column:synced_at"`
}
