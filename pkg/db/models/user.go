package models

import (
	"time"

	"github.com/google/uuid"
)

// User mirrors the application identity issued by Clerk, enriched with the
// Paddle customer link once one is discovered.
type User struct {
	ID               uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	ClerkUserID      string    `gorm:"column:clerk_user_id;not null;uniqueIndex"`
	Email            *string   `gorm:"column:email"`
	PaddleCustomerID *string   `gorm:"column:paddle_customer_id;index"`
	HasSubscription  bool      `gorm:"column:has_subscription;not null;default:false"`
	CreatedAt        time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
