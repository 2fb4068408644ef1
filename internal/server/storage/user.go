package storage

import (
	"context"
	"time"

	"github.com/iudanet/storefront/internal/models"
)

// UserStorage defines interface for customer credential persistence
type UserStorage interface {
	// CreateUser creates a new user in the storage
	// Returns ErrUserAlreadyExists if email is already taken
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByID retrieves user by ID
	// Returns ErrUserNotFound if user doesn't exist
	GetUserByID(ctx context.Context, userID string) (*models.User, error)

	// GetUserByEmail retrieves user by exact (case-sensitive) email
	// Returns ErrUserNotFound if user doesn't exist
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// GetUserByVerificationToken retrieves user holding the verification token digest
	// that expires after now. Returns ErrTokenNotFound otherwise.
	GetUserByVerificationToken(ctx context.Context, digest string, now time.Time) (*models.User, error)

	// GetUserByConsumedVerificationToken retrieves a verified user whose last consumed
	// verification token has the given digest. Returns ErrTokenNotFound otherwise.
	GetUserByConsumedVerificationToken(ctx context.Context, digest string) (*models.User, error)

	// GetUserByResetToken retrieves user holding the reset token digest
	// that expires after now. Returns ErrTokenNotFound otherwise.
	GetUserByResetToken(ctx context.Context, digest string, now time.Time) (*models.User, error)

	// DeleteUser deletes user by ID
	// Returns ErrUserNotFound if user doesn't exist
	DeleteUser(ctx context.Context, userID string) error

	// UpdateName changes the display name
	// Returns ErrUserNotFound if user doesn't exist
	UpdateName(ctx context.Context, userID, name string, updatedAt time.Time) error

	// SetVerificationToken stores (or clears, when digest is nil) the verification token.
	// Digest and expiry are always written together.
	SetVerificationToken(ctx context.Context, userID string, digest *string, expires *time.Time, updatedAt time.Time) error

	// SetResetToken stores (or clears, when digest is nil) the password reset token.
	// Digest and expiry are always written together.
	SetResetToken(ctx context.Context, userID string, digest *string, expires *time.Time, updatedAt time.Time) error

	// MarkEmailVerified sets email_verified and clears the verification token in one update,
	// re-checking that the digest is still active at now.
	// Returns ErrTokenNotFound if the token was consumed or expired meanwhile.
	MarkEmailVerified(ctx context.Context, userID, digest string, now time.Time) error

	// ResetPassword replaces the password hash and clears the reset token in one update,
	// re-checking that the digest is still active at now.
	// Returns ErrTokenNotFound if the token was consumed or expired meanwhile.
	ResetPassword(ctx context.Context, userID, digest, passwordHash string, now time.Time) error

	// Ping checks the underlying connection
	Ping(ctx context.Context) error
}
