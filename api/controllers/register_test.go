package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/codana-ai/billing-sync/internal/subscriptions"
)

func TestRegisterUser_Success(t *testing.T) {
	service := &fakeRegisterService{
		result: &subscriptions.RegisterResult{Success: true, Message: "User registered successfully"},
	}
	handler := RegisterUser(service, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/users/register",
		strings.NewReader(`{"user_id": "user_1", "email": "a@example.com"}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	var body subscriptions.RegisterResult
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if !body.Success || body.Message != "User registered successfully" {
		t.Fatalf("unexpected body %+v", body)
	}
	if service.lastUserID != "user_1" {
		t.Fatalf("expected user id forwarded, got %q", service.lastUserID)
	}
	if service.lastEmail == nil || *service.lastEmail != "a@example.com" {
		t.Fatalf("expected email forwarded")
	}
}

func TestRegisterUser_MissingUserID(t *testing.T) {
	service := &fakeRegisterService{}
	handler := RegisterUser(service, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/users/register",
		strings.NewReader(`{"email": "a@example.com"}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["error"] != "User ID is required" {
		t.Fatalf("unexpected error %q", body["error"])
	}
	if service.calls != 0 {
		t.Fatalf("service must not run without a user id")
	}
}

func TestRegisterUser_MalformedBody(t *testing.T) {
	handler := RegisterUser(&fakeRegisterService{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/users/register", strings.NewReader("{"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed body, got %d", rec.Code)
	}
}

type fakeRegisterService struct {
	result     *subscriptions.RegisterResult
	err        error
	calls      int
	lastUserID string
	lastEmail  *string
}

func (f *fakeRegisterService) Register(ctx context.Context, userID string, email *string) (*subscriptions.RegisterResult, error) {
	f.calls++
	f.lastUserID = userID
	f.lastEmail = email
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}
