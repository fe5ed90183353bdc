package paddlewebhook

import (
	"encoding/json"
	"time"

	"github.com/codana-ai/billing-sync/pkg/db/models"
	"github.com/codana-ai/billing-sync/pkg/enums"
	pkgerrors "github.com/codana-ai/billing-sync/pkg/errors"
	"github.com/shopspring/decimal"
)

// mapSubscription turns a subscription payload into a subscription row plus
// its item rows. Optional fields map to null; the only hard requirement is
// the provider id. Status is stored verbatim, known or not.
func mapSubscription(data json.RawMessage, now time.Time) (*models.Subscription, []models.SubscriptionItem, error) {
	var payload subscriptionPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "parse subscription payload")
	}
	if payload.ID == "" {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "subscription id missing")
	}

	subscription := &models.Subscription{
		ID:              payload.ID,
		CustomerID:      payload.CustomerID,
		Status:          enums.SubscriptionStatus(payload.Status),
		NextBillingDate: payload.NextBilledAt,
		Currency:        payload.CurrencyCode,
		CanceledAt:      payload.CanceledAt,
		ProviderCreated: payload.CreatedAt,
		ProviderUpdated: payload.UpdatedAt,
		RawData:         append(json.RawMessage(nil), data...),
		SyncedAt:        now,
	}

	items := make([]models.SubscriptionItem, 0, len(payload.Items))
	for _, item := range payload.Items {
		row := models.SubscriptionItem{
			SubscriptionID: payload.ID,
			Quantity:       item.Quantity,
			Status:         item.Status,
			NextBilledAt:   item.NextBilledAt,
			RawData:        item.raw,
		}
		if item.Price != nil && item.Price.ID != "" {
			priceID := item.Price.ID
			row.PriceID = &priceID
		}
		if item.Product != nil {
			if item.Product.ID != "" {
				productID := item.Product.ID
				row.ProductID = &productID
			}
			if item.Product.Name != "" {
				productName := item.Product.Name
				row.ProductName = &productName
			}
		}
		items = append(items, row)
	}

	return subscription, items, nil
}

// mapTransaction turns a transaction payload into a transaction row. The
// subscription id is null for one-time purchases; an unparseable total maps
// to a null amount rather than a failure.
func mapTransaction(data json.RawMessage, now time.Time) (*models.Transaction, error) {
	var payload transactionPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "parse transaction payload")
	}
	if payload.ID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction id missing")
	}

	transaction := &models.Transaction{
		ID:              payload.ID,
		SubscriptionID:  payload.SubscriptionID,
		Status:          enums.TransactionStatus(payload.Status),
		Currency:        payload.CurrencyCode,
		ProviderCreated: payload.CreatedAt,
		ProviderUpdated: payload.UpdatedAt,
		RawData:         append(json.RawMessage(nil), data...),
		SyncedAt:        now,
	}
	if payload.Details.Totals.Total != nil {
		if amount, err := decimal.NewFromString(*payload.Details.Totals.Total); err == nil {
			transaction.Amount = &amount
		}
	}

	return transaction, nil
}
