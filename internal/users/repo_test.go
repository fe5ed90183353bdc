package users

import (
	"context"
	"testing"
	"time"

	"github.com/codana-ai/billing-sync/pkg/db/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupUsersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	ddl := `
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  clerk_user_id TEXT NOT NULL UNIQUE,
  email TEXT,
  paddle_customer_id TEXT,
  has_subscription INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(ddl).Error)

	return db
}

func strPtr(s string) *string { return &s }

func TestCreateAndFindByClerkID(t *testing.T) {
	db := setupUsersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	created, err := repo.Create(ctx, CreateUserDTO{
		ClerkUserID: "user_abc",
		Email:       strPtr("abc@example.com"),
	})
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.NotEqual(t, "00000000-0000-0000-0000-000000000000", created.ID.String())

	found, err := repo.FindByClerkID(ctx, "user_abc")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
	require.NotNil(t, found.Email)
	assert.Equal(t, "abc@example.com", *found.Email)
	assert.False(t, found.HasSubscription)
}

func TestFindByEmailAndCustomerID(t *testing.T) {
	db := setupUsersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	created, err := repo.Create(ctx, CreateUserDTO{
		ClerkUserID: "user_def",
		Email:       strPtr("def@example.com"),
	})
	require.NoError(t, err)

	_, err = repo.FindByEmail(ctx, "missing@example.com")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	found, err := repo.FindByEmail(ctx, "def@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)

	require.NoError(t, repo.UpdateFields(ctx, created.ID.String(), map[string]any{
		"paddle_customer_id": "ctm_42",
		"has_subscription":   true,
	}))

	linked, err := repo.FindByCustomerID(ctx, "ctm_42")
	require.NoError(t, err)
	assert.Equal(t, created.ID, linked.ID)
	assert.True(t, linked.HasSubscription)
}

func TestListRecentOrdersNewestFirst(t *testing.T) {
	db := setupUsersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Hour)
	for i, clerkID := range []string{"user_1", "user_2", "user_3"} {
		user, err := repo.Create(ctx, CreateUserDTO{ClerkUserID: clerkID})
		require.NoError(t, err)
		require.NoError(t, db.Model(&models.User{}).
			Where("id = ?", user.ID.String()).
			UpdateColumn("updated_at", base.Add(time.Duration(i)*time.Minute)).Error)
	}

	recent, err := repo.ListRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "user_3", recent[0].ClerkUserID)
	assert.Equal(t, "user_2", recent[1].ClerkUserID)
}
