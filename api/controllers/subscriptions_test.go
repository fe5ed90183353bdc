package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/codana-ai/billing-sync/internal/subscriptions"
	pkgerrors "github.com/codana-ai/billing-sync/pkg/errors"
	"github.com/codana-ai/billing-sync/pkg/paddle"
	"github.com/go-chi/chi/v5"
)

func TestGetSubscription(t *testing.T) {
	next := "2025-07-01T00:00:00Z"
	service := &fakeSubscriptionService{
		subscription: &paddle.Subscription{
			ID:           "sub_1",
			Status:       "active",
			CustomerID:   "ctm_1",
			NextBilledAt: &next,
		},
	}
	router := chi.NewRouter()
	router.Get("/api/subscriptions/{subscriptionID}", GetSubscription(service, nil))

	req := httptest.NewRequest(http.MethodGet, "/api/subscriptions/sub_1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["id"] != "sub_1" || body["customer_id"] != "ctm_1" {
		t.Fatalf("unexpected body %v", body)
	}
	if body["next_billed_at"] != next {
		t.Fatalf("expected next_billed_at forwarded, got %v", body["next_billed_at"])
	}
}

func TestGetSubscription_NotFound(t *testing.T) {
	service := &fakeSubscriptionService{err: pkgerrors.New(pkgerrors.CodeNotFound, "subscription not found")}
	router := chi.NewRouter()
	router.Get("/api/subscriptions/{subscriptionID}", GetSubscription(service, nil))

	req := httptest.NewRequest(http.MethodGet, "/api/subscriptions/sub_absent", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestGetCustomerSubscription(t *testing.T) {
	service := &fakeSubscriptionService{
		customerResult: &subscriptions.CustomerSubscriptionsResult{
			HasActiveSubscription: true,
			Subscriptions:         []subscriptions.SubscriptionDTO{{ID: "sub_1", CustomerID: "ctm_1", Status: "active"}},
		},
	}
	router := chi.NewRouter()
	router.Get("/api/customer/{customerID}/subscription", GetCustomerSubscription(service, nil))

	req := httptest.NewRequest(http.MethodGet, "/api/customer/ctm_1/subscription", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body subscriptions.CustomerSubscriptionsResult
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if !body.HasActiveSubscription || len(body.Subscriptions) != 1 {
		t.Fatalf("unexpected body %+v", body)
	}
	if service.lastCustomerID != "ctm_1" {
		t.Fatalf("expected customer id forwarded, got %q", service.lastCustomerID)
	}
}

func TestCheckSubscription(t *testing.T) {
	service := &fakeSubscriptionService{
		checkResult: &subscriptions.CheckResult{
			HasActiveSubscription: true,
			Subscriptions:         []any{"sub_1"},
		},
	}
	handler := CheckSubscription(service, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/check-subscription?user_id=user_1", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body subscriptions.CheckResult
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if !body.HasActiveSubscription {
		t.Fatalf("unexpected body %+v", body)
	}
}

func TestCheckSubscription_MissingUserID(t *testing.T) {
	service := &fakeSubscriptionService{}
	handler := CheckSubscription(service, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/check-subscription", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["error"] != "User ID is required" {
		t.Fatalf("unexpected error %v", body["error"])
	}
	if body["has_active_subscription"] != false {
		t.Fatalf("expected inactive flag in validation body")
	}
	if service.checkCalls != 0 {
		t.Fatalf("service must not run without a user id")
	}
}

func TestListProducts(t *testing.T) {
	service := &fakeProductLister{
		products: []paddle.Product{{ID: "pro_1", Name: "Pro Plan", Status: "active"}},
	}
	handler := ListProducts(service, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body struct {
		Products []productResponse `json:"products"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(body.Products) != 1 || body.Products[0].ID != "pro_1" {
		t.Fatalf("unexpected body %+v", body)
	}
}

type fakeSubscriptionService struct {
	subscription   *paddle.Subscription
	customerResult *subscriptions.CustomerSubscriptionsResult
	checkResult    *subscriptions.CheckResult
	err            error
	checkCalls     int
	lastCustomerID string
}

func (f *fakeSubscriptionService) CheckForUser(ctx context.Context, userID string) (*subscriptions.CheckResult, error) {
	f.checkCalls++
	if f.err != nil {
		return nil, f.err
	}
	return f.checkResult, nil
}

func (f *fakeSubscriptionService) CustomerSubscriptions(ctx context.Context, customerID string) (*subscriptions.CustomerSubscriptionsResult, error) {
	f.lastCustomerID = customerID
	if f.err != nil {
		return nil, f.err
	}
	return f.customerResult, nil
}

func (f *fakeSubscriptionService) ProviderSubscription(ctx context.Context, subscriptionID string) (*paddle.Subscription, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.subscription, nil
}

type fakeProductLister struct {
	products []paddle.Product
	err      error
}

func (f *fakeProductLister) ListProducts(ctx context.Context) ([]paddle.Product, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.products, nil
}
