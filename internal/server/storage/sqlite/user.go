package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iudanet/storefront/internal/models"
	"github.com/iudanet/storefront/internal/server/storage"
)

const userColumns = `id, email, name, password_hash, email_verified,
		verification_token, verification_token_expires, verification_consumed_token,
		reset_password_token, reset_password_token_expires, created_at, updated_at`

// rowScanner is satisfied by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	user := &models.User{}
	var (
		verificationToken    sql.NullString
		verificationExpires  sql.NullTime
		verificationConsumed sql.NullString
		resetToken           sql.NullString
		resetExpires         sql.NullTime
	)

	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.PasswordHash,
		&user.EmailVerified,
		&verificationToken,
		&verificationExpires,
		&verificationConsumed,
		&resetToken,
		&resetExpires,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if verificationToken.Valid {
		user.VerificationToken = &verificationToken.String
	}
	if verificationExpires.Valid {
		user.VerificationTokenExpires = &verificationExpires.Time
	}
	if verificationConsumed.Valid {
		user.VerificationConsumedToken = &verificationConsumed.String
	}
	if resetToken.Valid {
		user.ResetPasswordToken = &resetToken.String
	}
	if resetExpires.Valid {
		user.ResetPasswordTokenExpires = &resetExpires.Time
	}

	return user, nil
}

// CreateUser creates a new user in the storage
func (s *Storage) CreateUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		user.ID,
		user.Email,
		user.Name,
		user.PasswordHash,
		user.EmailVerified,
		user.VerificationToken,
		utcPtr(user.VerificationTokenExpires),
		user.VerificationConsumedToken,
		user.ResetPasswordToken,
		utcPtr(user.ResetPasswordTokenExpires),
		utc(user.CreatedAt),
		utc(user.UpdatedAt),
	)

	if err != nil {
		// Проверяем на duplicate email
		if isUniqueViolation(err) {
			return storage.ErrUserAlreadyExists
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}

	return nil
}

// GetUserByID retrieves user by ID
func (s *Storage) GetUserByID(ctx context.Context, userID string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`

	user, err := scanUser(s.db.QueryRowContext(ctx, query, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

// GetUserByEmail retrieves user by email
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = ?`

	user, err := scanUser(s.db.QueryRowContext(ctx, query, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

// GetUserByVerificationToken retrieves user by active verification token digest
func (s *Storage) GetUserByVerificationToken(ctx context.Context, digest string, now time.Time) (*models.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE verification_token = ? AND verification_token_expires > ?
	`

	return s.getUserByToken(ctx, query, digest, utc(now))
}

// GetUserByConsumedVerificationToken retrieves verified user by consumed token digest
func (s *Storage) GetUserByConsumedVerificationToken(ctx context.Context, digest string) (*models.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE verification_consumed_token = ? AND email_verified = 1
	`

	return s.getUserByToken(ctx, query, digest)
}

// GetUserByResetToken retrieves user by active reset token digest
func (s *Storage) GetUserByResetToken(ctx context.Context, digest string, now time.Time) (*models.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE reset_password_token = ? AND reset_password_token_expires > ?
	`

	return s.getUserByToken(ctx, query, digest, utc(now))
}

func (s *Storage) getUserByToken(ctx context.Context, query string, args ...any) (*models.User, error) {
	user, err := scanUser(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrTokenNotFound
		}
		return nil, fmt.Errorf("failed to get user by token: %w", err)
	}

	return user, nil
}

// DeleteUser deletes user by ID
func (s *Storage) DeleteUser(ctx context.Context, userID string) error {
	query := `DELETE FROM users WHERE id = ?`

	result, err := s.db.ExecContext(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	return expectAffected(result, storage.ErrUserNotFound)
}

// UpdateName updates user display name
func (s *Storage) UpdateName(ctx context.Context, userID, name string, updatedAt time.Time) error {
	query := `UPDATE users SET name = ?, updated_at = ? WHERE id = ?`

	result, err := s.db.ExecContext(ctx, query, name, utc(updatedAt), userID)
	if err != nil {
		return fmt.Errorf("failed to update user name: %w", err)
	}

	return expectAffected(result, storage.ErrUserNotFound)
}

// SetVerificationToken stores or clears verification token
func (s *Storage) SetVerificationToken(ctx context.Context, userID string, digest *string, expires *time.Time, updatedAt time.Time) error {
	if (digest == nil) != (expires == nil) {
		return fmt.Errorf("verification token and expiry must be set together")
	}

	query := `
		UPDATE users
		SET verification_token = ?, verification_token_expires = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := s.db.ExecContext(ctx, query, digest, utcPtr(expires), utc(updatedAt), userID)
	if err != nil {
		return fmt.Errorf("failed to set verification token: %w", err)
	}

	return expectAffected(result, storage.ErrUserNotFound)
}

// SetResetToken stores or clears password reset token
func (s *Storage) SetResetToken(ctx context.Context, userID string, digest *string, expires *time.Time, updatedAt time.Time) error {
	if (digest == nil) != (expires == nil) {
		return fmt.Errorf("reset token and expiry must be set together")
	}

	query := `
		UPDATE users
		SET reset_password_token = ?, reset_password_token_expires = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := s.db.ExecContext(ctx, query, digest, utcPtr(expires), utc(updatedAt), userID)
	if err != nil {
		return fmt.Errorf("failed to set reset token: %w", err)
	}

	return expectAffected(result, storage.ErrUserNotFound)
}

// MarkEmailVerified verifies email and consumes the verification token
func (s *Storage) MarkEmailVerified(ctx context.Context, userID, digest string, now time.Time) error {
	// Условие на токен в WHERE повторно проверяет его актуальность в момент записи
	query := `
		UPDATE users
		SET email_verified = 1,
			verification_token = NULL,
			verification_token_expires = NULL,
			verification_consumed_token = ?,
			updated_at = ?
		WHERE id = ? AND verification_token = ? AND verification_token_expires > ?
	`

	result, err := s.db.ExecContext(ctx, query, digest, utc(now), userID, digest, utc(now))
	if err != nil {
		return fmt.Errorf("failed to mark email verified: %w", err)
	}

	return expectAffected(result, storage.ErrTokenNotFound)
}

// ResetPassword replaces password hash and consumes the reset token
func (s *Storage) ResetPassword(ctx context.Context, userID, digest, passwordHash string, now time.Time) error {
	query := `
		UPDATE users
		SET password_hash = ?,
			reset_password_token = NULL,
			reset_password_token_expires = NULL,
			updated_at = ?
		WHERE id = ? AND reset_password_token = ? AND reset_password_token_expires > ?
	`

	result, err := s.db.ExecContext(ctx, query, passwordHash, utc(now), userID, digest, utc(now))
	if err != nil {
		return fmt.Errorf("failed to reset password: %w", err)
	}

	return expectAffected(result, storage.ErrTokenNotFound)
}

func expectAffected(result sql.Result, notFound error) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return notFound
	}

	return nil
}
