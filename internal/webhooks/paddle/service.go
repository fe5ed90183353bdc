package paddlewebhook

import (
	"context"
	"encoding/json"
	"time"

	"github.com/codana-ai/billing-sync/internal/billing"
	"github.com/codana-ai/billing-sync/pkg/enums"
	pkgerrors "github.com/codana-ai/billing-sync/pkg/errors"
	"github.com/codana-ai/billing-sync/pkg/logger"
	"github.com/codana-ai/billing-sync/pkg/metrics"
)

type customerLinker interface {
	Link(ctx context.Context, customerID string, rawSubscription json.RawMessage) error
}

// ServiceParams groups dependencies for the webhook event service.
type ServiceParams struct {
	BillingRepo billing.Repository
	Linker      customerLinker
	Logger      *logger.Logger
	Metrics     *metrics.WebhookMetrics
	Now         func() time.Time
}

// Service routes verified Paddle events into the local store.
type Service struct {
	billingRepo billing.Repository
	linker      customerLinker
	logger      *logger.Logger
	metrics     *metrics.WebhookMetrics
	now         func() time.Time
}

func NewService(params ServiceParams) (*Service, error) {
	if params.BillingRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "billing repo required")
	}
	if params.Linker == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "customer linker required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		billingRepo: params.BillingRepo,
		linker:      params.Linker,
		logger:      params.Logger,
		metrics:     params.Metrics,
		now:         now,
	}, nil
}

// HandleEvent dispatches one event to its handler. Unknown event types and
// malformed payloads are acknowledged so the provider does not retry them;
// only store write failures surface as errors.
func (s *Service) HandleEvent(ctx context.Context, event *Event) error {
	if event == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "paddle event required")
	}
	ctx = s.logger.WithEventType(ctx, event.EventType)

	start := time.Now()
	var err error
	switch event.EventType {
	case EventSubscriptionCreated:
		err = s.handleSubscriptionCreated(ctx, event.Data)
	case EventSubscriptionUpdated:
		err = s.handleSubscriptionUpdated(ctx, event.Data)
	case EventSubscriptionCanceled:
		err = s.handleSubscriptionCanceled(ctx, event.Data)
	case EventSubscriptionRenewed:
		err = s.handleSubscriptionRenewed(ctx, event.Data)
	case EventSubscriptionActivated:
		err = s.handleSubscriptionActivated(ctx, event.Data)
	case EventTransactionCreated:
		err = s.handleTransactionCreated(ctx, event.Data)
	default:
		s.logger.Info(ctx, "unhandled event type")
		s.metrics.IncEvent(event.EventType, metrics.OutcomeIgnored)
		return nil
	}

	s.metrics.ObserveDuration(event.EventType, time.Since(start))
	if err != nil {
		s.metrics.IncEvent(event.EventType, metrics.OutcomeFailed)
		return err
	}
	s.metrics.IncEvent(event.EventType, metrics.OutcomeProcessed)
	return nil
}

func (s *Service) handleSubscriptionCreated(ctx context.Context, data json.RawMessage) error {
	subscription, items, err := mapSubscription(data, s.now().UTC())
	if err != nil {
		s.logger.Error(ctx, "discarding malformed subscription payload", err)
		return nil
	}
	ctx = s.logger.WithSubscriptionID(ctx, subscription.ID)
	ctx = s.logger.WithCustomerID(ctx, subscription.CustomerID)

	inserted, err := s.billingRepo.InsertSubscription(ctx, subscription)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "insert subscription")
	}
	if !inserted {
		s.logger.Info(ctx, "subscription already stored")
	} else {
		if err := s.billingRepo.CreateSubscriptionItems(ctx, items); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "insert subscription items")
		}
		s.logger.Info(ctx, "subscription stored")
	}

	s.linkCustomer(ctx, subscription.CustomerID, data)
	return nil
}

func (s *Service) handleSubscriptionUpdated(ctx context.Context, data json.RawMessage) error {
	subscription, _, err := mapSubscription(data, s.now().UTC())
	if err != nil {
		s.logger.Error(ctx, "discarding malformed subscription payload", err)
		return nil
	}
	ctx = s.logger.WithSubscriptionID(ctx, subscription.ID)

	return s.updateSubscription(ctx, subscription.ID, map[string]any{
		"status":    subscription.Status,
		"raw_data":  subscription.RawData,
		"synced_at": subscription.SyncedAt,
	})
}

func (s *Service) handleSubscriptionCanceled(ctx context.Context, data json.RawMessage) error {
	subscription, _, err := mapSubscription(data, s.now().UTC())
	if err != nil {
		s.logger.Error(ctx, "discarding malformed subscription payload", err)
		return nil
	}
	ctx = s.logger.WithSubscriptionID(ctx, subscription.ID)

	// The payload status is ignored here: a cancellation event means
	// canceled, whatever state the provider snapshotted.
	return s.updateSubscription(ctx, subscription.ID, map[string]any{
		"status":      enums.SubscriptionStatusCanceled,
		"is_active":   false,
		"canceled_at": subscription.CanceledAt,
		"raw_data":    subscription.RawData,
		"synced_at":   subscription.SyncedAt,
	})
}

func (s *Service) handleSubscriptionRenewed(ctx context.Context, data json.RawMessage) error {
	subscription, _, err := mapSubscription(data, s.now().UTC())
	if err != nil {
		s.logger.Error(ctx, "discarding malformed subscription payload", err)
		return nil
	}
	ctx = s.logger.WithSubscriptionID(ctx, subscription.ID)

	return s.updateSubscription(ctx, subscription.ID, map[string]any{
		"next_billing_date": subscription.NextBillingDate,
		"raw_data":          subscription.RawData,
		"synced_at":         subscription.SyncedAt,
	})
}

func (s *Service) handleSubscriptionActivated(ctx context.Context, data json.RawMessage) error {
	subscription, _, err := mapSubscription(data, s.now().UTC())
	if err != nil {
		s.logger.Error(ctx, "discarding malformed subscription payload", err)
		return nil
	}
	ctx = s.logger.WithSubscriptionID(ctx, subscription.ID)
	ctx = s.logger.WithCustomerID(ctx, subscription.CustomerID)

	status := subscription.Status
	if status == "" {
		status = enums.SubscriptionStatusActive
	}
	if err := s.updateSubscription(ctx, subscription.ID, map[string]any{
		"status":    status,
		"is_active": true,
		"raw_data":  subscription.RawData,
		"synced_at": subscription.SyncedAt,
	}); err != nil {
		return err
	}

	s.linkCustomer(ctx, subscription.CustomerID, data)
	return nil
}

func (s *Service) handleTransactionCreated(ctx context.Context, data json.RawMessage) error {
	transaction, err := mapTransaction(data, s.now().UTC())
	if err != nil {
		s.logger.Error(ctx, "discarding malformed transaction payload", err)
		return nil
	}

	inserted, err := s.billingRepo.InsertTransaction(ctx, transaction)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "insert transaction")
	}
	if !inserted {
		s.logger.Info(ctx, "transaction already stored")
		return nil
	}
	s.logger.Info(ctx, "transaction stored")
	return nil
}

// updateSubscription applies a partial update and logs, without failing, when
// the row does not exist yet. Events can arrive out of order; an update that
// outran its create is recorded as an anomaly and acknowledged.
func (s *Service) updateSubscription(ctx context.Context, id string, fields map[string]any) error {
	affected, err := s.billingRepo.UpdateSubscriptionFields(ctx, id, fields)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update subscription")
	}
	if affected == 0 {
		s.logger.Error(ctx, "update for unknown subscription",
			pkgerrors.New(pkgerrors.CodeAnomaly, "subscription row missing"))
		return nil
	}
	s.logger.Info(ctx, "subscription updated")
	return nil
}

// linkCustomer runs the customer linking heuristic. Linking is best effort:
// a failure is logged and the event still acknowledges.
func (s *Service) linkCustomer(ctx context.Context, customerID string, rawSubscription json.RawMessage) {
	if customerID == "" {
		s.logger.Warn(ctx, "no customer id on subscription, skipping linking")
		return
	}
	if err := s.linker.Link(ctx, customerID, rawSubscription); err != nil {
		s.logger.Error(ctx, "customer linking failed", err)
	}
}
