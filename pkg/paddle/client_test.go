package paddle

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/codana-ai/billing-sync/pkg/config"
	pkgerrors "github.com/codana-ai/billing-sync/pkg/errors"
	"github.com/codana-ai/billing-sync/pkg/logger"
)

func testClient(t *testing.T, server *httptest.Server) *Client {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "test"})
	client, err := NewClient(context.Background(), config.PaddleConfig{
		APIKey:        "pdl_test_key",
		WebhookSecret: "whsec",
		Env:           "sandbox",
		Timeout:       2 * time.Second,
	}, logg)
	if err != nil {
		t.Fatalf("setup client: %v", err)
	}
	client.baseURL = server.URL
	return client
}

func TestNewClient_Validation(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "test"})
	ctx := context.Background()

	if _, err := NewClient(ctx, config.PaddleConfig{WebhookSecret: "s"}, logg); err != errAPIKeyRequired {
		t.Fatalf("expected api key error, got %v", err)
	}
	if _, err := NewClient(ctx, config.PaddleConfig{APIKey: "k"}, logg); err != errWebhookSecretRequired {
		t.Fatalf("expected webhook secret error, got %v", err)
	}
	if _, err := NewClient(ctx, config.PaddleConfig{APIKey: "k", WebhookSecret: "s", Env: "staging"}, logg); err != errInvalidPaddleEnv {
		t.Fatalf("expected env error, got %v", err)
	}
	if _, err := NewClient(ctx, config.PaddleConfig{APIKey: "k", WebhookSecret: "s"}, nil); err != errLoggerRequired {
		t.Fatalf("expected logger error, got %v", err)
	}
}

func TestGetCustomer_ParsesResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/customers/ctm_123" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer pdl_test_key" {
			t.Fatalf("unexpected auth header %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":{"id":"ctm_123","email":"a@x.com","status":"active"}}`))
	}))
	defer server.Close()

	client := testClient(t, server)
	customer, err := client.GetCustomer(context.Background(), "ctm_123")
	if err != nil {
		t.Fatalf("GetCustomer: %v", err)
	}
	if customer.Email != "a@x.com" {
		t.Fatalf("unexpected email %q", customer.Email)
	}
}

func TestListSubscriptions_SendsFilters(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("customer_id") != "ctm_123" || q.Get("status") != "active" {
			t.Fatalf("unexpected query %q", r.URL.RawQuery)
		}
		w.Write([]byte(`{"data":[{"id":"sub_1","status":"active","customer_id":"ctm_123"}]}`))
	}))
	defer server.Close()

	client := testClient(t, server)
	subs, err := client.ListSubscriptions(context.Background(), "ctm_123", "active")
	if err != nil {
		t.Fatalf("ListSubscriptions: %v", err)
	}
	if len(subs) != 1 || subs[0].ID != "sub_1" {
		t.Fatalf("unexpected subscriptions %+v", subs)
	}
}

func TestGet_MapsAPIErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":{"code":"entity_not_found","detail":"no such subscription"}}`))
	}))
	defer server.Close()

	client := testClient(t, server)
	_, err := client.GetSubscription(context.Background(), "sub_missing")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}
