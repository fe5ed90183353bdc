package models

import (
	"encoding/json"
	"time"
)

// SubscriptionItem is one line of a subscription at creation time. Items are
// written alongside their parent and never updated independently.
type SubscriptionItem struct {
	ID             uint            `gorm:"primaryKey;autoIncrement"`
	SubscriptionID string          `gorm:"column:subscription_id;not null;index"`
	PriceID        *string         `gorm:"column:price_id"`
	ProductID      *string         `gorm:"column:product_id"`
	ProductName    *string         `gorm:"column:product_name"`
	Quantity       int             `gorm:"column:quantity;not null;default:0"`
	Status         *string         `gorm:"column:status"`
	NextBilledAt   *time.Time      `gorm:"column:next_billed_at"`
	RawData        json.RawMessage `gorm:"column:raw_data;type:jsonb"`
	CreatedAt      time.Time       `gorm:"column:created_at;autoCreateTime"`
}
