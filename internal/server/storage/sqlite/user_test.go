package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/storefront/internal/models"
	"github.com/iudanet/storefront/internal/server/storage"
)

func TestUserStorage_CreateUser(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	expires := time.Now().Add(24 * time.Hour)

	tests := []struct {
		wantError error
		user      *models.User
		name      string
	}{
		{
			name: "create new user successfully",
			user: &models.User{
				ID:           uuid.New().String(),
				Email:        "first@example.com",
				Name:         "First",
				PasswordHash: "hash123",
				CreatedAt:    time.Now(),
				UpdatedAt:    time.Now(),
			},
			wantError: nil,
		},
		{
			name: "create user with verification token",
			user: &models.User{
				ID:                       uuid.New().String(),
				Email:                    "second@example.com",
				Name:                     "Second",
				PasswordHash:             "hash456",
				VerificationToken:        strPtr("digest"),
				VerificationTokenExpires: &expires,
				CreatedAt:                time.Now(),
				UpdatedAt:                time.Now(),
			},
			wantError: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.CreateUser(ctx, tt.user)
			if tt.wantError != nil {
				assert.ErrorIs(t, err, tt.wantError)
			} else {
				require.NoError(t, err)

				// Проверяем, что пользователь создан
				retrieved, err := s.GetUserByID(ctx, tt.user.ID)
				require.NoError(t, err)
				assert.Equal(t, tt.user.ID, retrieved.ID)
				assert.Equal(t, tt.user.Email, retrieved.Email)
				assert.Equal(t, tt.user.Name, retrieved.Name)
				assert.Equal(t, tt.user.PasswordHash, retrieved.PasswordHash)
				assert.False(t, retrieved.EmailVerified)
				assert.Equal(t, tt.user.VerificationToken, retrieved.VerificationToken)
				if tt.user.VerificationTokenExpires != nil {
					require.NotNil(t, retrieved.VerificationTokenExpires)
					assert.WithinDuration(t, *tt.user.VerificationTokenExpires, *retrieved.VerificationTokenExpires, time.Second)
				}
			}
		})
	}
}

func TestUserStorage_CreateUser_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	createTestUser(t, ctx, s, "dup@example.com")

	user := &models.User{
		ID:           uuid.New().String(),
		Email:        "dup@example.com",
		Name:         "Other",
		PasswordHash: "hash2",
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	err := s.CreateUser(ctx, user)
	assert.ErrorIs(t, err, storage.ErrUserAlreadyExists)
}

func TestUserStorage_GetUserByEmail(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	user := createTestUser(t, ctx, s, "findme@example.com")

	tests := []struct {
		wantError error
		name      string
		email     string
	}{
		{
			name:      "get existing user",
			email:     "findme@example.com",
			wantError: nil,
		},
		{
			name:      "get non-existent user",
			email:     "notfound@example.com",
			wantError: storage.ErrUserNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			retrieved, err := s.GetUserByEmail(ctx, tt.email)
			if tt.wantError != nil {
				assert.ErrorIs(t, err, tt.wantError)
				assert.Nil(t, retrieved)
			} else {
				require.NoError(t, err)
				assert.Equal(t, user.ID, retrieved.ID)
				assert.Equal(t, user.Email, retrieved.Email)
			}
		})
	}
}

func TestUserStorage_GetUserByID_NotFound(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	retrieved, err := s.GetUserByID(ctx, "nonexistent-id")
	assert.ErrorIs(t, err, storage.ErrUserNotFound)
	assert.Nil(t, retrieved)
}

func TestUserStorage_UpdateName(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	user := createTestUser(t, ctx, s, "rename@example.com")

	err := s.UpdateName(ctx, user.ID, "Renamed", time.Now())
	require.NoError(t, err)

	retrieved, err := s.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", retrieved.Name)

	err = s.UpdateName(ctx, "nonexistent", "Foo", time.Now())
	assert.ErrorIs(t, err, storage.ErrUserNotFound)
}

func TestUserStorage_DeleteUser(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	user := createTestUser(t, ctx, s, "todelete@example.com")
	createTestSession(t, ctx, s, user.ID, time.Now().Add(time.Hour))

	tests := []struct {
		wantError error
		name      string
		userID    string
	}{
		{
			name:      "delete existing user",
			userID:    user.ID,
			wantError: nil,
		},
		{
			name:      "delete non-existent user",
			userID:    "nonexistent",
			wantError: storage.ErrUserNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.DeleteUser(ctx, tt.userID)
			if tt.wantError != nil {
				assert.ErrorIs(t, err, tt.wantError)
			} else {
				require.NoError(t, err)

				_, err := s.GetUserByID(ctx, tt.userID)
				assert.ErrorIs(t, err, storage.ErrUserNotFound)

				// Сессии удаляются каскадно
				n, err := s.DeleteUserSessions(ctx, tt.userID)
				require.NoError(t, err)
				assert.Zero(t, n)
			}
		})
	}
}

func TestUserStorage_VerificationToken(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	user := createTestUser(t, ctx, s, "verify@example.com")
	now := time.Now()
	expires := now.Add(24 * time.Hour)

	require.NoError(t, s.SetVerificationToken(ctx, user.ID, strPtr("digest-1"), &expires, now))

	t.Run("active token is found", func(t *testing.T) {
		found, err := s.GetUserByVerificationToken(ctx, "digest-1", now)
		require.NoError(t, err)
		assert.Equal(t, user.ID, found.ID)
	})

	t.Run("token is not found after expiry", func(t *testing.T) {
		_, err := s.GetUserByVerificationToken(ctx, "digest-1", expires.Add(time.Second))
		assert.ErrorIs(t, err, storage.ErrTokenNotFound)
	})

	t.Run("unknown token", func(t *testing.T) {
		_, err := s.GetUserByVerificationToken(ctx, "other", now)
		assert.ErrorIs(t, err, storage.ErrTokenNotFound)
	})

	t.Run("mark verified consumes token", func(t *testing.T) {
		require.NoError(t, s.MarkEmailVerified(ctx, user.ID, "digest-1", now))

		retrieved, err := s.GetUserByID(ctx, user.ID)
		require.NoError(t, err)
		assert.True(t, retrieved.EmailVerified)
		assert.Nil(t, retrieved.VerificationToken)
		assert.Nil(t, retrieved.VerificationTokenExpires)
		require.NotNil(t, retrieved.VerificationConsumedToken)
		assert.Equal(t, "digest-1", *retrieved.VerificationConsumedToken)

		_, err = s.GetUserByVerificationToken(ctx, "digest-1", now)
		assert.ErrorIs(t, err, storage.ErrTokenNotFound)

		consumed, err := s.GetUserByConsumedVerificationToken(ctx, "digest-1")
		require.NoError(t, err)
		assert.Equal(t, user.ID, consumed.ID)
	})

	t.Run("second mark fails", func(t *testing.T) {
		err := s.MarkEmailVerified(ctx, user.ID, "digest-1", now)
		assert.ErrorIs(t, err, storage.ErrTokenNotFound)
	})
}

func TestUserStorage_MarkEmailVerified_Expired(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	user := createTestUser(t, ctx, s, "late@example.com")
	now := time.Now()
	expires := now.Add(time.Minute)
	require.NoError(t, s.SetVerificationToken(ctx, user.ID, strPtr("digest"), &expires, now))

	err := s.MarkEmailVerified(ctx, user.ID, "digest", expires.Add(time.Second))
	assert.ErrorIs(t, err, storage.ErrTokenNotFound)

	retrieved, err := s.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, retrieved.EmailVerified)
}

func TestUserStorage_SetToken_Mismatch(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	user := createTestUser(t, ctx, s, "mismatch@example.com")

	assert.Error(t, s.SetVerificationToken(ctx, user.ID, strPtr("digest"), nil, time.Now()))
	assert.Error(t, s.SetResetToken(ctx, user.ID, nil, timePtr(time.Now()), time.Now()))
	assert.ErrorIs(t, s.SetResetToken(ctx, "nonexistent", nil, nil, time.Now()), storage.ErrUserNotFound)
}

func TestUserStorage_ResetPassword(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	user := createTestUser(t, ctx, s, "reset@example.com")
	now := time.Now()
	expires := now.Add(time.Hour)
	require.NoError(t, s.SetResetToken(ctx, user.ID, strPtr("reset-digest"), &expires, now))

	found, err := s.GetUserByResetToken(ctx, "reset-digest", now)
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)

	_, err = s.GetUserByResetToken(ctx, "reset-digest", expires)
	assert.ErrorIs(t, err, storage.ErrTokenNotFound)

	require.NoError(t, s.ResetPassword(ctx, user.ID, "reset-digest", "new-hash", now))

	retrieved, err := s.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "new-hash", retrieved.PasswordHash)
	assert.Nil(t, retrieved.ResetPasswordToken)
	assert.Nil(t, retrieved.ResetPasswordTokenExpires)

	// Токен одноразовый
	err = s.ResetPassword(ctx, user.ID, "reset-digest", "other-hash", now)
	assert.ErrorIs(t, err, storage.ErrTokenNotFound)
}

func TestStorage_Ping(t *testing.T) {
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	assert.NoError(t, s.Ping(context.Background()))
}

// Helper functions

func setupTestStorage(t *testing.T) (*Storage, func()) {
	ctx := context.Background()

	// Используем in-memory database для тестов
	storage, err := New(ctx, ":memory:")
	require.NoError(t, err)

	cleanup := func() {
		_ = storage.Close()
	}

	return storage, cleanup
}

func createTestUser(t *testing.T, ctx context.Context, s *Storage, email string) *models.User {
	user := &models.User{
		ID:           uuid.New().String(),
		Email:        email,
		Name:         "Test User",
		PasswordHash: "hash",
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	err := s.CreateUser(ctx, user)
	require.NoError(t, err)

	return user
}

func timePtr(t time.Time) *time.Time {
	return &t
}

func strPtr(s string) *string {
	return &s
}
