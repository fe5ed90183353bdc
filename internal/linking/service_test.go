package linking

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/codana-ai/billing-sync/internal/users"
	"github.com/codana-ai/billing-sync/pkg/db/models"
	"github.com/codana-ai/billing-sync/pkg/logger"
	"github.com/codana-ai/billing-sync/pkg/paddle"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func newTestService(t *testing.T, repo *stubUsersRepo, fetcher *stubCustomerFetcher) *Service {
	t.Helper()
	service, err := NewService(ServiceParams{
		UsersRepo: repo,
		Paddle:    fetcher,
		Logger:    testLogger(),
		Now:       func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) },
	})
	if err != nil {
		t.Fatalf("setup service: %v", err)
	}
	return service
}

func testUser(clerkID string, email *string) models.User {
	return models.User{ID: uuid.New(), ClerkUserID: clerkID, Email: email}
}

func TestLink_CustomDataWinsOverEverything(t *testing.T) {
	target := testUser("user_custom", nil)
	repo := &stubUsersRepo{byClerkID: map[string]models.User{"user_custom": target}}
	fetcher := &stubCustomerFetcher{customer: &paddle.Customer{ID: "ctm_1", Email: "other@example.com"}}
	service := newTestService(t, repo, fetcher)

	raw := json.RawMessage(`{"id": "sub_1", "custom_data": {"clerk_user_id": "user_custom"}}`)
	if err := service.Link(context.Background(), "ctm_1", raw); err != nil {
		t.Fatalf("link: %v", err)
	}
	if fetcher.calls != 0 {
		t.Fatalf("custom data match must not hit the provider API")
	}
	update := repo.lastUpdate(t)
	if update.id != target.ID.String() {
		t.Fatalf("expected custom data user updated, got %s", update.id)
	}
	if update.fields["paddle_customer_id"] != "ctm_1" {
		t.Fatalf("expected customer id recorded")
	}
	if update.fields["has_subscription"] != true {
		t.Fatalf("expected subscription flag set")
	}
}

func TestLink_EmailMatch(t *testing.T) {
	email := "buyer@example.com"
	target := testUser("user_email", &email)
	repo := &stubUsersRepo{byEmail: map[string]models.User{email: target}}
	fetcher := &stubCustomerFetcher{customer: &paddle.Customer{ID: "ctm_2", Email: email}}
	service := newTestService(t, repo, fetcher)

	if err := service.Link(context.Background(), "ctm_2", nil); err != nil {
		t.Fatalf("link: %v", err)
	}
	update := repo.lastUpdate(t)
	if update.id != target.ID.String() {
		t.Fatalf("expected email-matched user updated")
	}
	if update.fields["email"] != email {
		t.Fatalf("expected resolved email written back")
	}
}

func TestLink_ExistingCustomerLink(t *testing.T) {
	target := testUser("user_linked", nil)
	repo := &stubUsersRepo{byCustomerID: map[string]models.User{"ctm_3": target}}
	fetcher := &stubCustomerFetcher{err: errors.New("upstream down")}
	service := newTestService(t, repo, fetcher)

	if err := service.Link(context.Background(), "ctm_3", nil); err != nil {
		t.Fatalf("fetch failure must not stop linking: %v", err)
	}
	update := repo.lastUpdate(t)
	if update.id != target.ID.String() {
		t.Fatalf("expected already-linked user refreshed")
	}
	if _, ok := update.fields["email"]; ok {
		t.Fatalf("no email resolved, none should be written")
	}
}

func TestLink_RecentUserFallback(t *testing.T) {
	newest := testUser("user_newest", nil)
	older := testUser("user_older", nil)
	repo := &stubUsersRepo{recent: []models.User{newest, older}}
	fetcher := &stubCustomerFetcher{customer: &paddle.Customer{ID: "ctm_4", Email: "nomatch@example.com"}}
	service := newTestService(t, repo, fetcher)

	if err := service.Link(context.Background(), "ctm_4", nil); err != nil {
		t.Fatalf("link: %v", err)
	}
	update := repo.lastUpdate(t)
	if update.id != newest.ID.String() {
		t.Fatalf("expected most recent user chosen")
	}
	if update.fields["email"] != "nomatch@example.com" {
		t.Fatalf("expected provider email written on heuristic link")
	}
}

func TestLink_NoUsersUnresolved(t *testing.T) {
	repo := &stubUsersRepo{}
	fetcher := &stubCustomerFetcher{customer: &paddle.Customer{ID: "ctm_5", Email: "x@example.com"}}
	service := newTestService(t, repo, fetcher)

	err := service.Link(context.Background(), "ctm_5", nil)
	if err == nil {
		t.Fatalf("expected unresolved link error")
	}
	if len(repo.updates) != 0 {
		t.Fatalf("no user should be updated")
	}
}

func TestLink_UnknownClerkIDFallsThrough(t *testing.T) {
	email := "real@example.com"
	target := testUser("user_real", &email)
	repo := &stubUsersRepo{byEmail: map[string]models.User{email: target}}
	fetcher := &stubCustomerFetcher{customer: &paddle.Customer{ID: "ctm_6", Email: email}}
	service := newTestService(t, repo, fetcher)

	raw := json.RawMessage(`{"custom_data": {"clerk_user_id": "user_ghost"}}`)
	if err := service.Link(context.Background(), "ctm_6", raw); err != nil {
		t.Fatalf("link: %v", err)
	}
	if repo.lastUpdate(t).id != target.ID.String() {
		t.Fatalf("expected fallthrough to email match")
	}
}

type recordedUpdate struct {
	id     string
	fields map[string]any
}

type stubUsersRepo struct {
	byClerkID    map[string]models.User
	byEmail      map[string]models.User
	byCustomerID map[string]models.User
	recent       []models.User
	updates      []recordedUpdate
}

func (s *stubUsersRepo) lastUpdate(t *testing.T) recordedUpdate {
	t.Helper()
	if len(s.updates) == 0 {
		t.Fatalf("expected a user update")
	}
	return s.updates[len(s.updates)-1]
}

func (s *stubUsersRepo) WithTx(tx *gorm.DB) users.Repository {
	return s
}

func (s *stubUsersRepo) Create(ctx context.Context, dto users.CreateUserDTO) (*models.User, error) {
	return nil, errors.New("not implemented")
}

func (s *stubUsersRepo) FindByClerkID(ctx context.Context, clerkUserID string) (*models.User, error) {
	if user, ok := s.byClerkID[clerkUserID]; ok {
		return &user, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubUsersRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if user, ok := s.byEmail[email]; ok {
		return &user, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubUsersRepo) FindByCustomerID(ctx context.Context, customerID string) (*models.User, error) {
	if user, ok := s.byCustomerID[customerID]; ok {
		return &user, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubUsersRepo) ListRecent(ctx context.Context, limit int) ([]models.User, error) {
	if limit < len(s.recent) {
		return s.recent[:limit], nil
	}
	return s.recent, nil
}

func (s *stubUsersRepo) UpdateFields(ctx context.Context, id string, fields map[string]any) error {
	s.updates = append(s.updates, recordedUpdate{id: id, fields: fields})
	return nil
}

type stubCustomerFetcher struct {
	customer *paddle.Customer
	err      error
	calls    int
}

func (s *stubCustomerFetcher) GetCustomer(ctx context.Context, customerID string) (*paddle.Customer, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.customer, nil
}
