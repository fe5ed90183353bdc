package subscriptions

import (
	"encoding/json"
	"time"

	"github.com/codana-ai/billing-sync/pkg/db/models"
)

// SubscriptionDTO is the transport shape of a locally stored subscription.
type SubscriptionDTO struct {
	ID              string          `json:"id"`
	CustomerID      string          `json:"customer_id"`
	Status          string          `json:"status"`
	IsActive        bool            `json:"is_active"`
	NextBillingDate *time.Time      `json:"next_billing_date"`
	Currency        *string         `json:"currency"`
	CanceledAt      *time.Time      `json:"canceled_at"`
	CreatedAt       *time.Time      `json:"created_at"`
	UpdatedAt       *time.Time      `json:"updated_at"`
	RawData         json.RawMessage `json:"raw_data,omitempty"`
	SyncedAt        time.Time       `json:"synced_at"`
}

// FromModel converts a stored subscription into its transport shape.
func FromModel(s models.Subscription) SubscriptionDTO {
	return SubscriptionDTO{
		ID:              s.ID,
		CustomerID:      s.CustomerID,
		Status:          s.Status.String(),
		IsActive:        s.IsActive,
		NextBillingDate: s.NextBillingDate,
		Currency:        s.Currency,
		CanceledAt:      s.CanceledAt,
		CreatedAt:       s.ProviderCreated,
		UpdatedAt:       s.ProviderUpdated,
		RawData:         s.RawData,
		SyncedAt:        s.SyncedAt,
	}
}

// FromModels converts a slice of stored subscriptions, never returning nil so
// the JSON shape stays an array.
func FromModels(list []models.Subscription) []SubscriptionDTO {
	dtos := make([]SubscriptionDTO, 0, len(list))
	for _, s := range list {
		dtos = append(dtos, FromModel(s))
	}
	return dtos
}
