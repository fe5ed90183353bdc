package subscriptions

import (
	"context"
	"errors"
	"time"

	"github.com/codana-ai/billing-sync/internal/billing"
	"github.com/codana-ai/billing-sync/internal/users"
	"github.com/codana-ai/billing-sync/pkg/db"
	pkgerrors "github.com/codana-ai/billing-sync/pkg/errors"
	"github.com/codana-ai/billing-sync/pkg/logger"
	"github.com/codana-ai/billing-sync/pkg/paddle"
	"gorm.io/gorm"
)

// PaddleClient is the slice of the provider API the query path needs.
type PaddleClient interface {
	GetCustomer(ctx context.Context, customerID string) (*paddle.Customer, error)
	GetSubscription(ctx context.Context, subscriptionID string) (*paddle.Subscription, error)
	ListSubscriptions(ctx context.Context, customerID, status string) ([]paddle.Subscription, error)
}

// CheckResult reports whether a user holds an active subscription. The
// subscription list carries provider ids when the live API answered and full
// local rows when the store did; failures degrade into ErrorDetails instead
// of failing the request.
type CheckResult struct {
	HasActiveSubscription bool    `json:"has_active_subscription"`
	Subscriptions         []any   `json:"subscriptions"`
	ErrorDetails          *string `json:"error_details,omitempty"`
}

// RegisterResult reports the outcome of a registration call.
type RegisterResult struct {
	Success         bool   `json:"success"`
	Message         string `json:"message"`
	HasSubscription bool   `json:"has_subscription"`
}

// CustomerSubscriptionsResult lists a customer's active local subscriptions.
type CustomerSubscriptionsResult struct {
	HasActiveSubscription bool              `json:"has_active_subscription"`
	Subscriptions         []SubscriptionDTO `json:"subscriptions"`
}

// ServiceParams groups dependencies for the subscription query service.
type ServiceParams struct {
	UsersRepo   users.Repository
	BillingRepo billing.Repository
	Paddle      PaddleClient
	Logger      *logger.Logger
	Now         func() time.Time
}

// Service answers subscription state questions from the live provider API
// with the local store as fallback.
type Service struct {
	usersRepo   users.Repository
	billingRepo billing.Repository
	paddle      PaddleClient
	logger      *logger.Logger
	now         func() time.Time
}

func NewService(params ServiceParams) (*Service, error) {
	if params.UsersRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "users repo required")
	}
	if params.BillingRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "billing repo required")
	}
	if params.Paddle == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "paddle client required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		usersRepo:   params.UsersRepo,
		billingRepo: params.BillingRepo,
		paddle:      params.Paddle,
		logger:      params.Logger,
		now:         now,
	}, nil
}

// CheckForUser resolves a user's subscription state. Unknown users are
// registered on the spot without a subscription. The live provider API is
// consulted first; the local store answers when the API cannot. The stored
// has_subscription flag is repaired in whichever direction the check found.
func (s *Service) CheckForUser(ctx context.Context, userID string) (*CheckResult, error) {
	if userID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	ctx = s.logger.WithUserID(ctx, userID)

	user, err := s.usersRepo.FindByClerkID(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Info(ctx, "unknown user on subscription check, registering")
		if _, createErr := s.usersRepo.Create(ctx, users.CreateUserDTO{ClerkUserID: userID}); createErr != nil {
			return degradedCheck("could not register user"), nil
		}
		return emptyCheck(), nil
	}
	if err != nil {
		s.logger.Error(ctx, "user lookup failed during subscription check", err)
		return degradedCheck("database connection error"), nil
	}

	if user.PaddleCustomerID == nil || *user.PaddleCustomerID == "" {
		s.repairFlag(ctx, user.ID.String(), user.HasSubscription, false)
		return emptyCheck(), nil
	}
	customerID := *user.PaddleCustomerID
	ctx = s.logger.WithCustomerID(ctx, customerID)

	if ids, ok := s.checkLive(ctx, customerID); ok {
		s.repairFlag(ctx, user.ID.String(), user.HasSubscription, true)
		result := &CheckResult{HasActiveSubscription: true, Subscriptions: make([]any, 0, len(ids))}
		for _, id := range ids {
			result.Subscriptions = append(result.Subscriptions, id)
		}
		return result, nil
	}

	local, err := s.billingRepo.ListActiveSubscriptionsByCustomer(ctx, customerID)
	if err != nil {
		s.logger.Error(ctx, "local subscription lookup failed", err)
		return degradedCheck("database connection error"), nil
	}
	if len(local) > 0 {
		s.repairFlag(ctx, user.ID.String(), user.HasSubscription, true)
		result := &CheckResult{HasActiveSubscription: true, Subscriptions: make([]any, 0, len(local))}
		for _, dto := range FromModels(local) {
			result.Subscriptions = append(result.Subscriptions, dto)
		}
		return result, nil
	}

	s.repairFlag(ctx, user.ID.String(), user.HasSubscription, false)
	return emptyCheck(), nil
}

// checkLive asks the provider for the customer's subscriptions and reports
// the active ids. Any failure reports not-ok so the caller falls back to the
// local store.
func (s *Service) checkLive(ctx context.Context, customerID string) ([]string, bool) {
	customer, err := s.paddle.GetCustomer(ctx, customerID)
	if err != nil || customer == nil {
		if err != nil {
			s.logger.Error(ctx, "provider customer lookup failed", err)
		}
		return nil, false
	}
	subs, err := s.paddle.ListSubscriptions(ctx, customerID, "")
	if err != nil {
		s.logger.Error(ctx, "provider subscription list failed", err)
		return nil, false
	}
	var active []string
	for _, sub := range subs {
		if sub.Status == "active" {
			active = append(active, sub.ID)
		}
	}
	if len(active) == 0 {
		return nil, false
	}
	return active, true
}

// Register creates the user record or refreshes an existing one. Existing
// users get their email updated when it changed and their subscription flag
// repaired upward from the local store.
func (s *Service) Register(ctx context.Context, userID string, email *string) (*RegisterResult, error) {
	if userID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	ctx = s.logger.WithUserID(ctx, userID)

	user, err := s.usersRepo.FindByClerkID(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if _, createErr := s.usersRepo.Create(ctx, users.CreateUserDTO{ClerkUserID: userID, Email: email}); createErr != nil {
			// A concurrent register for the same id is not a failure.
			if db.IsUniqueViolation(createErr, "users_clerk_user_id_key") {
				return &RegisterResult{Success: true, Message: "User already registered"}, nil
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, createErr, "create user")
		}
		s.logger.Info(ctx, "user registered")
		return &RegisterResult{Success: true, Message: "User registered successfully"}, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}

	if email != nil && *email != "" && (user.Email == nil || *user.Email != *email) {
		if updateErr := s.usersRepo.UpdateFields(ctx, user.ID.String(), map[string]any{
			"email":      *email,
			"updated_at": s.now().UTC(),
		}); updateErr != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, updateErr, "update user email")
		}
		s.logger.Info(ctx, "updated email for existing user")
	}

	hasSubscription := user.HasSubscription
	if user.PaddleCustomerID != nil && *user.PaddleCustomerID != "" {
		local, listErr := s.billingRepo.ListActiveSubscriptionsByCustomer(ctx, *user.PaddleCustomerID)
		if listErr != nil {
			s.logger.Error(ctx, "subscription check failed during registration", listErr)
		} else if len(local) > 0 {
			if !hasSubscription {
				s.repairFlag(ctx, user.ID.String(), false, true)
			}
			hasSubscription = true
		}
	}

	return &RegisterResult{Success: true, Message: "User already registered", HasSubscription: hasSubscription}, nil
}

// CustomerSubscriptions lists a customer's active subscriptions from the
// local store.
func (s *Service) CustomerSubscriptions(ctx context.Context, customerID string) (*CustomerSubscriptionsResult, error) {
	if customerID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id required")
	}
	local, err := s.billingRepo.ListActiveSubscriptionsByCustomer(ctx, customerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list customer subscriptions")
	}
	return &CustomerSubscriptionsResult{
		HasActiveSubscription: len(local) > 0,
		Subscriptions:         FromModels(local),
	}, nil
}

// ProviderSubscription fetches a live subscription snapshot from Paddle.
func (s *Service) ProviderSubscription(ctx context.Context, subscriptionID string) (*paddle.Subscription, error) {
	if subscriptionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "subscription id required")
	}
	return s.paddle.GetSubscription(ctx, subscriptionID)
}

// repairFlag aligns the stored has_subscription flag with what the check
// established. Repair failures are logged, never surfaced.
func (s *Service) repairFlag(ctx context.Context, id string, current, desired bool) {
	if current == desired {
		return
	}
	if err := s.usersRepo.UpdateFields(ctx, id, map[string]any{
		"has_subscription": desired,
		"updated_at":       s.now().UTC(),
	}); err != nil {
		s.logger.Error(ctx, "could not repair subscription flag", err)
	}
}

func emptyCheck() *CheckResult {
	return &CheckResult{Subscriptions: []any{}}
}

func degradedCheck(details string) *CheckResult {
	return &CheckResult{Subscriptions: []any{}, ErrorDetails: &details}
}
