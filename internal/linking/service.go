package linking

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/codana-ai/billing-sync/internal/users"
	"github.com/codana-ai/billing-sync/pkg/db/models"
	pkgerrors "github.com/codana-ai/billing-sync/pkg/errors"
	"github.com/codana-ai/billing-sync/pkg/logger"
	"github.com/codana-ai/billing-sync/pkg/paddle"
	"gorm.io/gorm"
)

// recentUserWindow bounds the fallback scan when nothing else identifies the
// buyer. Checkout and registration happen within moments of each other, so
// the most recently active user is very likely the one who just paid.
const recentUserWindow = 5

type customerFetcher interface {
	GetCustomer(ctx context.Context, customerID string) (*paddle.Customer, error)
}

// ServiceParams groups dependencies for the customer linker.
type ServiceParams struct {
	UsersRepo users.Repository
	Paddle    customerFetcher
	Logger    *logger.Logger
	Now       func() time.Time
}

// Service attaches Paddle customers to application users after a
// subscription is persisted.
type Service struct {
	usersRepo users.Repository
	paddle    customerFetcher
	logger    *logger.Logger
	now       func() time.Time
}

func NewService(params ServiceParams) (*Service, error) {
	if params.UsersRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "users repo required")
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
		usersRepo: params.UsersRepo,
		paddle:    params.Paddle,
		logger:    params.Logger,
		now:       now,
	}, nil
}

// Link resolves which user owns the customer and records the link. Resolution
// order: an explicit clerk_user_id carried in the checkout payload, then the
// customer's email, then a user already linked to this customer, then the
// most recently active user as a last-resort heuristic.
func (s *Service) Link(ctx context.Context, customerID string, rawSubscription json.RawMessage) error {
	if customerID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "customer id required")
	}
	ctx = s.logger.WithCustomerID(ctx, customerID)

	if clerkID := clerkIDFromPayload(rawSubscription); clerkID != "" {
		user, err := s.usersRepo.FindByClerkID(ctx, clerkID)
		switch {
		case err == nil:
			s.logger.Info(ctx, "linking user via checkout custom data")
			return s.attach(ctx, user, customerID, nil)
		case errors.Is(err, gorm.ErrRecordNotFound):
			s.logger.Warn(ctx, "custom data names an unknown user, falling back")
		default:
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user by clerk id")
		}
	}

	var email *string
	customer, err := s.paddle.GetCustomer(ctx, customerID)
	if err != nil {
		s.logger.Error(ctx, "could not fetch customer for linking", err)
	} else if customer != nil && customer.Email != "" {
		email = &customer.Email
	}

	if email != nil {
		user, err := s.usersRepo.FindByEmail(ctx, *email)
		switch {
		case err == nil:
			s.logger.Info(ctx, "linking user via email match")
			return s.attach(ctx, user, customerID, email)
		case errors.Is(err, gorm.ErrRecordNotFound):
		default:
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user by email")
		}
	}

	user, err := s.usersRepo.FindByCustomerID(ctx, customerID)
	switch {
	case err == nil:
		s.logger.Info(ctx, "user already linked to customer, refreshing")
		return s.attach(ctx, user, customerID, email)
	case errors.Is(err, gorm.ErrRecordNotFound):
	default:
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user by customer id")
	}

	recent, err := s.usersRepo.ListRecent(ctx, recentUserWindow)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list recent users")
	}
	if len(recent) == 0 {
		return pkgerrors.New(pkgerrors.CodeAnomaly, "no users available to link customer")
	}
	s.logger.Warn(ctx, "linking customer to most recently active user")
	return s.attach(ctx, &recent[0], customerID, email)
}

func (s *Service) attach(ctx context.Context, user *models.User, customerID string, email *string) error {
	fields := map[string]any{
		"paddle_customer_id": customerID,
		"has_subscription":   true,
		"updated_at":         s.now().UTC(),
	}
	if email != nil {
		fields["email"] = *email
	}
	if err := s.usersRepo.UpdateFields(ctx, user.ID.String(), fields); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update user link")
	}
	s.logger.Info(ctx, "customer linked to user")
	return nil
}

func clerkIDFromPayload(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var payload struct {
		CustomData struct {
			ClerkUserID string `json:"clerk_user_id"`
		} `json:"custom_data"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return ""
	}
	return payload.CustomData.ClerkUserID
}
