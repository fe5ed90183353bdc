package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/codana-ai/billing-sync/pkg/db/models"
)

// UserDTO is the transport shape for a user record.
type UserDTO struct {
	ID               uuid.UUID `json:"id"`
	ClerkUserID      string    `json:"clerk_user_id"`
	Email            *string   `json:"email,omitempty"`
	PaddleCustomerID *string   `json:"paddle_customer_id,omitempty"`
	HasSubscription  bool      `json:"has_subscription"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// CreateUserDTO holds the data required by the repo to persist a new user.
type CreateUserDTO struct {
	ClerkUserID string
	Email       *string
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}

	return &UserDTO{
		ID:               u.ID,
		ClerkUserID:      u.ClerkUserID,
		Email:            u.Email,
		PaddleCustomerID: u.PaddleCustomerID,
		HasSubscription:  u.HasSubscription,
		CreatedAt:        u.CreatedAt,
		UpdatedAt:        u.UpdatedAt,
	}
}

func (c CreateUserDTO) ToModel() *models.User {
	return &models.User{
		ID:          uuid.New(),
		ClerkUserID: c.ClerkUserID,
		Email:       c.Email,
	}
}
