package controllers

import (
	"context"
	"net/http"

	"github.com/codana-ai/billing-sync/api/responses"
	"github.com/codana-ai/billing-sync/internal/subscriptions"
	pkgerrors "github.com/codana-ai/billing-sync/pkg/errors"
	"github.com/codana-ai/billing-sync/pkg/logger"
	"github.com/codana-ai/billing-sync/pkg/paddle"
	"github.com/go-chi/chi/v5"
)

type SubscriptionQueryService interface {
	CheckForUser(ctx context.Context, userID string) (*subscriptions.CheckResult, error)
	CustomerSubscriptions(ctx context.Context, customerID string) (*subscriptions.CustomerSubscriptionsResult, error)
	ProviderSubscription(ctx context.Context, subscriptionID string) (*paddle.Subscription, error)
}

type providerSubscriptionResponse struct {
	ID           string  `json:"id"`
	Status       string  `json:"status"`
	CustomerID   string  `json:"customer_id"`
	NextBilledAt *string `json:"next_billed_at"`
	CreatedAt    *string `json:"created_at"`
}

// GetSubscription returns a live provider snapshot of one subscription.
func GetSubscription(svc SubscriptionQueryService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "subscription service unavailable"))
			return
		}

		subscription, err := svc.ProviderSubscription(ctx, chi.URLParam(r, "subscriptionID"))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteJSON(w, http.StatusOK, providerSubscriptionResponse{
			ID:           subscription.ID,
			Status:       subscription.Status,
			CustomerID:   subscription.CustomerID,
			NextBilledAt: subscription.NextBilledAt,
			CreatedAt:    subscription.CreatedAt,
		})
	}
}

// GetCustomerSubscription lists a customer's active subscriptions from the
// local store.
func GetCustomerSubscription(svc SubscriptionQueryService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "subscription service unavailable"))
			return
		}

		result, err := svc.CustomerSubscriptions(ctx, chi.URLParam(r, "customerID"))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteJSON(w, http.StatusOK, result)
	}
}

// CheckSubscription reports whether the given user holds an active
// subscription. The endpoint degrades instead of failing: backend trouble
// surfaces inside a 200 body so clients keep rendering.
func CheckSubscription(svc SubscriptionQueryService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "subscription service unavailable"))
			return
		}

		userID := r.URL.Query().Get("user_id")
		if userID == "" {
			responses.WriteJSON(w, http.StatusBadRequest, map[string]any{
				"error":                   "User ID is required",
				"has_active_subscription": false,
			})
			return
		}

		result, err := svc.CheckForUser(ctx, userID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteJSON(w, http.StatusOK, result)
	}
}
