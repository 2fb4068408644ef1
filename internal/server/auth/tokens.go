package auth

import (
	"context"
	"errors"
	"log/slog"

	"github.com/iudanet/storefront/internal/crypto"
	"github.com/iudanet/storefront/internal/server/mail"
	"github.com/iudanet/storefront/internal/server/storage"
	"github.com/iudanet/storefront/internal/validation"
)

// RequestPasswordReset issues a reset token for a verified account and mails it.
// The caller always gets the same answer whether or not the account exists:
// only ErrMissingFields is returned, every other failure is logged.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	if email == "" {
		return ErrMissingFields
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			s.logger.DebugContext(ctx, "Password reset requested for unknown email")
			return nil
		}
		s.logger.ErrorContext(ctx, "Password reset: failed to look up user", slog.Any("error", err))
		return nil
	}

	// Сброс доступен только подтвержденным аккаунтам
	if !user.EmailVerified {
		s.logger.InfoContext(ctx, "Password reset requested for unverified account", slog.String("user_id", user.ID))
		return nil
	}

	raw, digest, err := s.tokens.Generate()
	if err != nil {
		s.logger.ErrorContext(ctx, "Password reset: failed to generate token",
			slog.String("user_id", user.ID), slog.Any("error", err))
		return nil
	}

	now := s.now()
	expires := now.Add(s.config.ResetTTL)
	if err := s.users.SetResetToken(ctx, user.ID, &digest, &expires, now); err != nil {
		s.logger.ErrorContext(ctx, "Password reset: failed to store token",
			slog.String("user_id", user.ID), slog.Any("error", err))
		return nil
	}

	if err := s.mailer.SendPasswordReset(ctx, user.Email, user.Name, mail.ResetLink(s.config.BaseURL, raw)); err != nil {
		s.logger.ErrorContext(ctx, "Failed to send password reset email, clearing token",
			slog.String("user_id", user.ID), slog.Any("error", err))

		if clrErr := s.users.SetResetToken(ctx, user.ID, nil, nil, s.now()); clrErr != nil {
			s.logger.ErrorContext(ctx, "Failed to clear reset token", slog.String("user_id", user.ID), slog.Any("error", clrErr))
		}
		return nil
	}

	s.logger.InfoContext(ctx, "Password reset email sent", slog.String("user_id", user.ID))

	return nil
}

// CompletePasswordReset sets a new password using a reset token and
// revokes every session of the account.
func (s *Service) CompletePasswordReset(ctx context.Context, rawToken, password, confirmPassword string) error {
	if rawToken == "" || password == "" || confirmPassword == "" {
		return ErrMissingFields
	}

	if password != confirmPassword {
		return ErrPasswordMismatch
	}

	if err := validation.ValidatePassword(password); err != nil {
		return ErrWeakPassword
	}

	digest := crypto.HashToken(rawToken)
	user, err := s.users.GetUserByResetToken(ctx, digest, s.now())
	if err != nil {
		if errors.Is(err, storage.ErrTokenNotFound) {
			return ErrInvalidOrExpiredToken
		}
		return s.internal(ctx, "failed to look up reset token", err)
	}

	passwordHash, err := s.hasher.Hash(password)
	if err != nil {
		return s.internal(ctx, "failed to hash password", err)
	}

	// Токен перепроверяется в момент записи
	if err := s.users.ResetPassword(ctx, user.ID, digest, passwordHash, s.now()); err != nil {
		if errors.Is(err, storage.ErrTokenNotFound) {
			return ErrInvalidOrExpiredToken
		}
		return s.internal(ctx, "failed to reset password", err)
	}

	revoked, err := s.sessions.RevokeAllForUser(ctx, user.ID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to revoke sessions after password reset",
			slog.String("user_id", user.ID), slog.Any("error", err))
	}

	s.logger.InfoContext(ctx, "Password reset completed",
		slog.String("user_id", user.ID), slog.Int("revoked_sessions", revoked))

	return nil
}

// VerifyResult результат подтверждения email
type VerifyResult struct {
	AlreadyVerified bool
}

// VerifyEmail consumes a verification token. Repeating the call with the
// same token succeeds without changing anything.
func (s *Service) VerifyEmail(ctx context.Context, rawToken string) (*VerifyResult, error) {
	if rawToken == "" {
		return nil, ErrMissingToken
	}

	digest := crypto.HashToken(rawToken)
	now := s.now()

	user, err := s.users.GetUserByVerificationToken(ctx, digest, now)
	switch {
	case err == nil:
		if user.EmailVerified {
			return &VerifyResult{AlreadyVerified: true}, nil
		}

		err = s.users.MarkEmailVerified(ctx, user.ID, digest, now)
		if err == nil {
			s.logger.InfoContext(ctx, "Email verified", slog.String("user_id", user.ID))
			return &VerifyResult{}, nil
		}
		if !errors.Is(err, storage.ErrTokenNotFound) {
			return nil, s.internal(ctx, "failed to mark email verified", err)
		}
		// Токен успели использовать параллельно
	case !errors.Is(err, storage.ErrTokenNotFound):
		return nil, s.internal(ctx, "failed to look up verification token", err)
	}

	consumed, err := s.users.GetUserByConsumedVerificationToken(ctx, digest)
	if err != nil {
		if errors.Is(err, storage.ErrTokenNotFound) {
			return nil, ErrInvalidOrExpiredToken
		}
		return nil, s.internal(ctx, "failed to look up consumed token", err)
	}

	s.logger.DebugContext(ctx, "Email already verified", slog.String("user_id", consumed.ID))

	return &VerifyResult{AlreadyVerified: true}, nil
}
