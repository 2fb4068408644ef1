package postgres

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

func scanUser(row *sql.Row) (*models.User, error) {
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

func (s *Storage) CreateUser(ctx context.Context, user *models.User) error {
	query := `INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := s.db.ExecContext(ctx, query,
		user.ID,
		user.Email,
		user.Name,
		user.PasswordHash,
		user.EmailVerified,
		user.VerificationToken,
		user.VerificationTokenExpires,
		user.VerificationConsumedToken,
		user.ResetPasswordToken,
		user.ResetPasswordTokenExpires,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrUserAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (s *Storage) GetUserByID(ctx context.Context, userID string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return s.getUser(ctx, storage.ErrUserNotFound, query, userID)
}

func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return s.getUser(ctx, storage.ErrUserNotFound, query, email)
}

func (s *Storage) GetUserByVerificationToken(ctx context.Context, digest string, now time.Time) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users
		WHERE verification_token = $1 AND verification_token_expires > $2`
	return s.getUser(ctx, storage.ErrTokenNotFound, query, digest, now)
}

func (s *Storage) GetUserByConsumedVerificationToken(ctx context.Context, digest string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users
		WHERE verification_consumed_token = $1 AND email_verified`
	return s.getUser(ctx, storage.ErrTokenNotFound, query, digest)
}

func (s *Storage) GetUserByResetToken(ctx context.Context, digest string, now time.Time) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users
		WHERE reset_password_token = $1 AND reset_password_token_expires > $2`
	return s.getUser(ctx, storage.ErrTokenNotFound, query, digest, now)
}

func (s *Storage) getUser(ctx context.Context, notFound error, query string, args ...any) (*models.User, error) {
	user, err := scanUser(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (s *Storage) DeleteUser(ctx context.Context, userID string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, userID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return expectAffected(result, storage.ErrUserNotFound)
}

func (s *Storage) UpdateName(ctx context.Context, userID, name string, updatedAt time.Time) error {
	query := `UPDATE users SET name = $1, updated_at = $2 WHERE id = $3`

	result, err := s.db.ExecContext(ctx, query, name, updatedAt, userID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return expectAffected(result, storage.ErrUserNotFound)
}

func (s *Storage) SetVerificationToken(ctx context.Context, userID string, digest *string, expires *time.Time, updatedAt time.Time) error {
	if (digest == nil) != (expires == nil) {
		return fmt.Errorf("verification token and expiry must be set together")
	}

	query := `UPDATE users
		SET verification_token = $1, verification_token_expires = $2, updated_at = $3
		WHERE id = $4`

	result, err := s.db.ExecContext(ctx, query, digest, expires, updatedAt, userID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return expectAffected(result, storage.ErrUserNotFound)
}

func (s *Storage) SetResetToken(ctx context.Context, userID string, digest *string, expires *time.Time, updatedAt time.Time) error {
	if (digest == nil) != (expires == nil) {
		return fmt.Errorf("reset token and expiry must be set together")
	}

	query := `UPDATE users
		SET reset_password_token = $1, reset_password_token_expires = $2, updated_at = $3
		WHERE id = $4`

	result, err := s.db.ExecContext(ctx, query, digest, expires, updatedAt, userID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return expectAffected(result, storage.ErrUserNotFound)
}

func (s *Storage) MarkEmailVerified(ctx context.Context, userID, digest string, now time.Time) error {
	query := `UPDATE users
		SET email_verified = TRUE,
			verification_token = NULL,
			verification_token_expires = NULL,
			verification_consumed_token = $1,
			updated_at = $2
		WHERE id = $3 AND verification_token = $1 AND verification_token_expires > $2`

	result, err := s.db.ExecContext(ctx, query, digest, now, userID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return expectAffected(result, storage.ErrTokenNotFound)
}

func (s *Storage) ResetPassword(ctx context.Context, userID, digest, passwordHash string, now time.Time) error {
	query := `UPDATE users
		SET password_hash = $1,
			reset_password_token = NULL,
			reset_password_token_expires = NULL,
			updated_at = $2
		WHERE id = $3 AND reset_password_token = $4 AND reset_password_token_expires > $2`

	result, err := s.db.ExecContext(ctx, query, passwordHash, now, userID, digest)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return expectAffected(result, storage.ErrTokenNotFound)
}
