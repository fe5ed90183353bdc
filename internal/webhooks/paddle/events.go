package paddlewebhook

import (
	"encoding/json"
	"time"
)

// Paddle notification event types handled by the sync layer.
const (
	EventSubscriptionCreated   = "subscription.created"
	EventSubscriptionUpdated   = "subscription.updated"
	EventSubscriptionCanceled  = "subscription.canceled"
	EventSubscriptionRenewed   = "subscription.renewed"
	EventSubscriptionActivated = "subscription.activated"
	EventTransactionCreated    = "transaction.created"
)

// Event is the Paddle notification envelope. Data is kept raw so the full
// provider payload survives into storage untouched.
type Event struct {
	EventID    string          `json:"event_id"`
	EventType  string          `json:"event_type"`
	OccurredAt *time.Time      `json:"occurred_at"`
	Data       json.RawMessage `json:"data"`
}

type subscriptionPayload struct {
	ID           string                    `json:"id"`
	CustomerID   string                    `json:"customer_id"`
	Status       string                    `json:"status"`
	CurrencyCode *string                   `json:"currency_code"`
	NextBilledAt *time.Time                `json:"next_billed_at"`
	CanceledAt   *time.Time                `json:"canceled_at"`
	CreatedAt    *time.Time                `json:"created_at"`
	UpdatedAt    *time.Time                `json:"updated_at"`
	Items        []subscriptionItemPayload `json:"items"`
}

type subscriptionItemPayload struct {
	Status       *string    `json:"status"`
	Quantity     int        `json:"quantity"`
	NextBilledAt *time.Time `json:"next_billed_at"`
	Price        *struct {
		ID string `json:"id"`
	} `json:"price"`
	Product *struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"product"`

	raw json.RawMessage
}

// UnmarshalJSON keeps a copy of the item's raw JSON alongside the parsed
// fields so each item row can carry its own payload.
func (p *subscriptionItemPayload) UnmarshalJSON(data []byte) error {
	type plain subscriptionItemPayload
	var parsed plain
	if err := json.Unmarshal(data, &parsed); err != nil {
		return err
	}
	*p = subscriptionItemPayload(parsed)
	p.raw = append(json.RawMessage(nil), data...)
	return nil
}

type transactionPayload struct {
	ID             string     `json:"id"`
	SubscriptionID *string    `json:"subscription_id"`
	Status         string     `json:"status"`
	CurrencyCode   *string    `json:"currency_code"`
	CreatedAt      *time.Time `json:"created_at"`
	UpdatedAt      *time.Time `json:"updated_at"`
	Details        struct {
		Totals struct {
			Total *string `json:"total"`
		} `json:"totals"`
	} `json:"details"`
}
