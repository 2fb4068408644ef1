// Package auth implements the account workflows of the storefront:
// registration, login/logout, profile, email verification and password reset.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iudanet/storefront/internal/crypto"
	"github.com/iudanet/storefront/internal/models"
	"github.com/iudanet/storefront/internal/server/mail"
	"github.com/iudanet/storefront/internal/server/ratelimit"
	"github.com/iudanet/storefront/internal/server/session"
	"github.com/iudanet/storefront/internal/server/storage"
	"github.com/iudanet/storefront/internal/server/telemetry"
	"github.com/iudanet/storefront/internal/validation"
)

const (
	// DefaultVerificationTTL срок действия токена подтверждения email
	DefaultVerificationTTL = 24 * time.Hour
	// DefaultResetTTL срок действия токена сброса пароля
	DefaultResetTTL = time.Hour

	// dummyPassword хешируется один раз, чтобы вход с неизвестным email
	// занимал столько же времени, сколько с неверным паролем
	dummyPassword = "storefront-timing-equalizer"
)

// TokenGenerator выпускает одноразовые токены: сырой токен и его хеш
type TokenGenerator interface {
	Generate() (raw, digest string, err error)
}

// Config настройки сценариев авторизации
type Config struct {
	BaseURL         string
	VerificationTTL time.Duration
	ResetTTL        time.Duration
}

// Deps зависимости Service
type Deps struct {
	Users    storage.UserStorage
	Sessions *session.Manager
	Limiter  ratelimit.Limiter
	Hasher   crypto.PasswordHasher
	Tokens   TokenGenerator
	Mailer   mail.Mailer
	Metrics  *telemetry.Metrics
	Logger   *slog.Logger
}

// Service orchestrates the auth workflows
type Service struct {
	users     storage.UserStorage
	sessions  *session.Manager
	limiter   ratelimit.Limiter
	hasher    crypto.PasswordHasher
	tokens    TokenGenerator
	mailer    mail.Mailer
	metrics   *telemetry.Metrics
	logger    *slog.Logger
	now       func() time.Time
	dummyHash string
	config    Config
	dummyOnce sync.Once
}

// NewService создает сервис авторизации
func NewService(deps Deps, cfg Config) *Service {
	if cfg.VerificationTTL <= 0 {
		cfg.VerificationTTL = DefaultVerificationTTL
	}
	if cfg.ResetTTL <= 0 {
		cfg.ResetTTL = DefaultResetTTL
	}

	return &Service{
		users:    deps.Users,
		sessions: deps.Sessions,
		limiter:  deps.Limiter,
		hasher:   deps.Hasher,
		tokens:   deps.Tokens,
		mailer:   deps.Mailer,
		metrics:  deps.Metrics,
		logger:   deps.Logger,
		now:      time.Now,
		config:   cfg,
	}
}

// SetClock подменяет источник времени
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Sessions returns the session manager used by the service
func (s *Service) Sessions() *session.Manager {
	return s.sessions
}

// RegisterInput данные регистрации
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// RegisterResult результат регистрации
type RegisterResult struct {
	User *models.PublicUser
	// Resent is true when an unverified account already existed and
	// only its verification email was sent again.
	Resent bool
}

// Register creates an unverified account and sends the verification email.
// For an existing unverified account the verification token is rotated and resent.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*RegisterResult, error) {
	if strings.TrimSpace(in.Name) == "" || in.Email == "" || in.Password == "" {
		return nil, ErrMissingFields
	}

	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, ErrWeakPassword
	}

	if err := validation.ValidateEmail(in.Email); err != nil {
		return nil, ErrInvalidEmail
	}

	name, err := validation.NormalizeName(in.Name)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidName, err)
	}

	existing, err := s.users.GetUserByEmail(ctx, in.Email)
	switch {
	case err == nil:
		if existing.EmailVerified {
			s.logger.WarnContext(ctx, "Registration for verified email rejected", slog.String("user_id", existing.ID))
			return nil, ErrEmailAlreadyRegistered
		}
		return s.resendVerification(ctx, existing)
	case errors.Is(err, storage.ErrUserNotFound):
		return s.createUser(ctx, name, in.Email, in.Password)
	default:
		return nil, s.internal(ctx, "failed to look up user", err)
	}
}

func (s *Service) createUser(ctx context.Context, name, email, password string) (*RegisterResult, error) {
	passwordHash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, s.internal(ctx, "failed to hash password", err)
	}

	raw, digest, err := s.tokens.Generate()
	if err != nil {
		return nil, s.internal(ctx, "failed to generate verification token", err)
	}

	now := s.now()
	expires := now.Add(s.config.VerificationTTL)
	user := &models.User{
		ID:                       uuid.New().String(),
		Email:                    email,
		Name:                     name,
		PasswordHash:             passwordHash,
		EmailVerified:            false,
		VerificationToken:        &digest,
		VerificationTokenExpires: &expires,
		CreatedAt:                now,
		UpdatedAt:                now,
	}

	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrUserAlreadyExists) {
			// Параллельная регистрация с тем же email
			return nil, ErrEmailAlreadyRegistered
		}
		return nil, s.internal(ctx, "failed to create user", err)
	}

	if err := s.mailer.SendVerification(ctx, user.Email, user.Name, mail.VerificationLink(s.config.BaseURL, raw)); err != nil {
		s.logger.ErrorContext(ctx, "Failed to send verification email, rolling back user",
			slog.String("user_id", user.ID), slog.Any("error", err))

		if delErr := s.users.DeleteUser(ctx, user.ID); delErr != nil && !errors.Is(delErr, storage.ErrUserNotFound) {
			s.logger.ErrorContext(ctx, "Failed to roll back user", slog.String("user_id", user.ID), slog.Any("error", delErr))
		}
		return nil, ErrEmailDispatchFailed
	}

	s.metrics.Registration(ctx)
	s.logger.InfoContext(ctx, "User registered", slog.String("user_id", user.ID))

	return &RegisterResult{User: user.Public()}, nil
}

func (s *Service) resendVerification(ctx context.Context, user *models.User) (*RegisterResult, error) {
	raw, digest, err := s.tokens.Generate()
	if err != nil {
		return nil, s.internal(ctx, "failed to generate verification token", err)
	}

	now := s.now()
	expires := now.Add(s.config.VerificationTTL)
	if err := s.users.SetVerificationToken(ctx, user.ID, &digest, &expires, now); err != nil {
		return nil, s.internal(ctx, "failed to rotate verification token", err)
	}

	if err := s.mailer.SendVerification(ctx, user.Email, user.Name, mail.VerificationLink(s.config.BaseURL, raw)); err != nil {
		s.logger.ErrorContext(ctx, "Failed to resend verification email, clearing token",
			slog.String("user_id", user.ID), slog.Any("error", err))

		if clrErr := s.users.SetVerificationToken(ctx, user.ID, nil, nil, s.now()); clrErr != nil {
			s.logger.ErrorContext(ctx, "Failed to clear verification token", slog.String("user_id", user.ID), slog.Any("error", clrErr))
		}
		return nil, ErrEmailDispatchFailed
	}

	s.logger.InfoContext(ctx, "Verification email resent", slog.String("user_id", user.ID))

	return &RegisterResult{User: user.Public(), Resent: true}, nil
}

// LoginResult результат успешного входа
type LoginResult struct {
	User    *models.PublicUser
	Session *models.Session
}

// Login authenticates by email and password. Steps run in a fixed order:
// rate limit, lookup, password, verification flag, session creation.
func (s *Service) Login(ctx context.Context, email, password, clientKey string) (*LoginResult, error) {
	limitKey := ratelimit.LoginKey(clientKey)

	if err := s.checkRateLimit(ctx, limitKey, "login"); err != nil {
		s.metrics.Login(ctx, telemetry.OutcomeRateLimited)
		return nil, err
	}

	if email == "" || password == "" {
		return nil, ErrMissingFields
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			s.equalizeTiming(password)
			s.metrics.Login(ctx, telemetry.OutcomeInvalid)
			return nil, ErrInvalidCredentials
		}
		s.metrics.Login(ctx, telemetry.OutcomeInternalError)
		return nil, s.internal(ctx, "failed to look up user", err)
	}

	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		if errors.Is(err, crypto.ErrPasswordMismatch) {
			s.logger.WarnContext(ctx, "Login failed: wrong password", slog.String("user_id", user.ID))
			s.metrics.Login(ctx, telemetry.OutcomeInvalid)
			return nil, ErrInvalidCredentials
		}
		s.metrics.Login(ctx, telemetry.OutcomeInternalError)
		return nil, s.internal(ctx, "failed to compare password", err)
	}

	if !user.EmailVerified {
		s.metrics.Login(ctx, telemetry.OutcomeNotVerified)
		return nil, ErrEmailNotVerified
	}

	sess, err := s.sessions.Create(ctx, user.ID)
	if err != nil {
		s.metrics.Login(ctx, telemetry.OutcomeInternalError)
		return nil, s.internal(ctx, "failed to create session", err)
	}

	s.metrics.Login(ctx, telemetry.OutcomeSuccess)
	s.logger.InfoContext(ctx, "User logged in", slog.String("user_id", user.ID))

	return &LoginResult{User: user.Public(), Session: sess}, nil
}

// checkRateLimit records an attempt for key. A failing limiter backend is
// logged and the request is let through.
func (s *Service) checkRateLimit(ctx context.Context, key, scope string) error {
	limited, err := s.limiter.IsRateLimited(ctx, key)
	if err != nil {
		s.logger.ErrorContext(ctx, "Rate limiter unavailable", slog.String("scope", scope), slog.Any("error", err))
		return nil
	}

	if !limited {
		return nil
	}

	retryAfter, err := s.limiter.RemainingTime(ctx, key)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to read rate limit window", slog.Any("error", err))
	}

	s.metrics.RateLimited(ctx, scope)
	s.logger.WarnContext(ctx, "Rate limit exceeded", slog.String("scope", scope))

	return &RateLimitError{RetryAfter: retryAfter}
}

func (s *Service) equalizeTiming(password string) {
	s.dummyOnce.Do(func() {
		hash, err := s.hasher.Hash(dummyPassword)
		if err == nil {
			s.dummyHash = hash
		}
	})

	if s.dummyHash != "" {
		_ = s.hasher.Compare(s.dummyHash, password)
	}
}

// Logout revokes the session if there is one. It never fails.
func (s *Service) Logout(ctx context.Context, sessionID string) {
	if sessionID == "" {
		return
	}

	if err := s.sessions.Revoke(ctx, sessionID); err != nil {
		s.logger.ErrorContext(ctx, "Failed to revoke session", slog.Any("error", err))
	}
}

// Me returns the public fields of the session owner
func (s *Service) Me(ctx context.Context, sessionID string) (*models.PublicUser, error) {
	user, err := s.sessions.Validate(ctx, sessionID)
	if err != nil {
		return nil, ErrUnauthorized
	}
	return user, nil
}

// UpdateProfile changes the display name of the session owner
func (s *Service) UpdateProfile(ctx context.Context, sessionID, name string) (*models.PublicUser, error) {
	user, err := s.Me(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	normalized, err := validation.NormalizeName(name)
	if err != nil {
		if errors.Is(err, validation.ErrEmptyName) {
			return nil, ErrMissingName
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidName, err)
	}

	if err := s.users.UpdateName(ctx, user.ID, normalized, s.now()); err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, s.internal(ctx, "failed to update name", err)
	}

	updated := *user
	updated.Name = normalized

	s.logger.InfoContext(ctx, "Profile updated", slog.String("user_id", user.ID))

	return &updated, nil
}

// SweepSessions deletes expired sessions and returns how many were removed
func (s *Service) SweepSessions(ctx context.Context) (int, error) {
	count, err := s.sessions.SweepExpired(ctx)
	if err != nil {
		return 0, s.internal(ctx, "failed to sweep sessions", err)
	}

	s.metrics.SessionsSwept(ctx, count)
	s.logger.InfoContext(ctx, "Expired sessions swept", slog.Int("count", count))

	return count, nil
}

// internal логирует ошибку хранилища и возвращает ErrInternal
func (s *Service) internal(ctx context.Context, msg string, err error) error {
	s.logger.ErrorContext(ctx, msg, slog.Any("error", err))
	return fmt.Errorf("%w: %s: %v", ErrInternal, msg, err)
}
