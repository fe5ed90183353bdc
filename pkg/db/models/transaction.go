package models

import (
	"encoding/json"
	"time"

	"github.com/codana-ai/billing-sync/pkg/enums"
	"github.com/shopspring/decimal"
)

// Transaction records a Paddle transaction once, at creation. SubscriptionID
// is nil for one-time purchases; Amount is nil when the provider total could
// not be parsed.
type Transaction struct {
	ID              string                  `gorm:"primaryKey"`
	SubscriptionID  *string                 `gorm:"column:subscription_id;index"`
	Status          enums.TransactionStatus `gorm:"column:status;not null"`
	Amount          *decimal.Decimal        `gorm:"column:amount;type:numeric(18,4)"`
	Currency        *string                 `gorm:"column:currency"`
	ProviderCreated *time.Time              `gorm:"column:provider_created_at"`
	ProviderUpdated *time.Time              `gorm:"column:provider_updated_at"`
	RawData         json.RawMessage         `gorm:"column:raw_data;type:jsonb"`
	SyncedAt        time.Time               `gorm:"column:synced_at"`
}
