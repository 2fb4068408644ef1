package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/iudanet/storefront/internal/client/api"
	"github.com/iudanet/storefront/internal/client/storage"
	"github.com/iudanet/storefront/internal/validation"
	pkgapi "github.com/iudanet/storefront/pkg/api"
)

var (
	// ErrNotAuthenticated локальной сессии нет или она истекла
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrPasswordMismatch пароль и подтверждение не совпадают
	ErrPasswordMismatch = errors.New("passwords do not match")
)

// Service предоставляет функции авторизации клиента.
// Хранит cookie сессии в локальном хранилище между запусками.
type Service struct {
	api    API
	store  storage.AuthStorage
	logger *slog.Logger
	now    func() time.Time
}

// NewService создает новый сервис авторизации
func NewService(apiClient API, store storage.AuthStorage, logger *slog.Logger) *Service {
	return &Service{
		api:    apiClient,
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// Register регистрирует нового пользователя.
// Проверки повторяют серверные, чтобы не тратить попытки лимита.
func (s *Service) Register(ctx context.Context, name, email, password string) (*pkgapi.RegisterResponse, error) {
	name, err := validation.NormalizeName(name)
	if err != nil {
		return nil, fmt.Errorf("invalid name: %w", err)
	}
	if err := validation.ValidateEmail(email); err != nil {
		return nil, fmt.Errorf("invalid email: %w", err)
	}
	if err := validation.ValidatePassword(password); err != nil {
		return nil, fmt.Errorf("invalid password: %w", err)
	}

	resp, err := s.api.Register(ctx, pkgapi.RegisterRequest{Name: name, Email: email, Password: password})
	if err != nil {
		return nil, fmt.Errorf("registration failed: %w", err)
	}
	return resp, nil
}

// Login выполняет вход и сохраняет сессию локально
func (s *Service) Login(ctx context.Context, email, password string) (*storage.AuthData, error) {
	if email == "" || password == "" {
		return nil, errors.New("email and password are required")
	}

	result, err := s.api.Login(ctx, pkgapi.LoginRequest{Email: email, Password: password})
	if err != nil {
		return nil, fmt.Errorf("login failed: %w", err)
	}

	authData := &storage.AuthData{
		SessionID: result.Session.ID,
		ExpiresAt: result.Session.ExpiresAt.Unix(),
	}
	if result.User != nil {
		authData.UserID = result.User.ID
		authData.Email = result.User.Email
		authData.Name = result.User.Name
		authData.EmailVerified = result.User.EmailVerified
	}

	if err := s.store.SaveAuth(ctx, authData); err != nil {
		return nil, fmt.Errorf("failed to save auth data: %w", err)
	}

	return authData, nil
}

// Logout завершает сессию.
// Локальные данные удаляются, даже если сервер недоступен.
func (s *Service) Logout(ctx context.Context) error {
	authData, err := s.store.GetAuth(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrAuthNotFound) {
			return ErrNotAuthenticated
		}
		return fmt.Errorf("failed to get auth data: %w", err)
	}

	if err := s.api.Logout(ctx, authData.SessionID); err != nil {
		s.logger.Warn("failed to logout on server", "error", err)
	}

	if err := s.store.DeleteAuth(ctx); err != nil {
		return fmt.Errorf("failed to delete local auth data: %w", err)
	}
	return nil
}

// Status возвращает сохраненную сессию без обращения к серверу
func (s *Service) Status(ctx context.Context) (*storage.AuthData, error) {
	authData, err := s.store.GetAuth(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrAuthNotFound) {
			return nil, ErrNotAuthenticated
		}
		return nil, fmt.Errorf("failed to get auth data: %w", err)
	}
	return authData, nil
}

// Me запрашивает владельца сессии у сервера и обновляет локальную копию
func (s *Service) Me(ctx context.Context) (*pkgapi.UserResponse, error) {
	authData, err := s.session(ctx)
	if err != nil {
		return nil, err
	}

	user, err := s.api.Me(ctx, authData.SessionID)
	if err != nil {
		return nil, s.handleSessionError(ctx, err)
	}

	s.refresh(ctx, authData, user)
	return user, nil
}

// UpdateProfile меняет отображаемое имя
func (s *Service) UpdateProfile(ctx context.Context, name string) (*pkgapi.UserResponse, error) {
	name, err := validation.NormalizeName(name)
	if err != nil {
		return nil, fmt.Errorf("invalid name: %w", err)
	}

	authData, err := s.session(ctx)
	if err != nil {
		return nil, err
	}

	user, err := s.api.UpdateProfile(ctx, authData.SessionID, name)
	if err != nil {
		return nil, s.handleSessionError(ctx, err)
	}

	s.refresh(ctx, authData, user)
	return user, nil
}

// VerifyEmail подтверждает email токеном из письма
func (s *Service) VerifyEmail(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", errors.New("token is required")
	}
	resp, err := s.api.VerifyEmail(ctx, token)
	if err != nil {
		return "", fmt.Errorf("verification failed: %w", err)
	}
	return resp.Message, nil
}

// RequestPasswordReset запрашивает письмо для сброса пароля
func (s *Service) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	if email == "" {
		return "", errors.New("email is required")
	}
	resp, err := s.api.RequestPasswordReset(ctx, email)
	if err != nil {
		return "", fmt.Errorf("password reset request failed: %w", err)
	}
	return resp.Message, nil
}

// ResetPassword устанавливает новый пароль по токену.
// Все сессии пользователя на сервере при этом завершаются, поэтому локальная тоже удаляется.
func (s *Service) ResetPassword(ctx context.Context, token, password, confirm string) (string, error) {
	if token == "" {
		return "", errors.New("token is required")
	}
	if password != confirm {
		return "", ErrPasswordMismatch
	}
	if err := validation.ValidatePassword(password); err != nil {
		return "", fmt.Errorf("invalid password: %w", err)
	}

	resp, err := s.api.ResetPassword(ctx, pkgapi.ResetPasswordRequest{
		Token:           token,
		Password:        password,
		ConfirmPassword: confirm,
	})
	if err != nil {
		return "", fmt.Errorf("password reset failed: %w", err)
	}

	if err := s.store.DeleteAuth(ctx); err != nil && !errors.Is(err, storage.ErrAuthNotFound) {
		s.logger.Warn("failed to delete local auth data", "error", err)
	}
	return resp.Message, nil
}

// session возвращает действующую локальную сессию
func (s *Service) session(ctx context.Context) (*storage.AuthData, error) {
	authData, err := s.Status(ctx)
	if err != nil {
		return nil, err
	}
	if authData.Expired(s.now()) {
		return nil, ErrNotAuthenticated
	}
	return authData, nil
}

// handleSessionError удаляет локальную сессию, если сервер ее не признал
func (s *Service) handleSessionError(ctx context.Context, err error) error {
	if !api.IsUnauthorized(err) {
		return err
	}
	if delErr := s.store.DeleteAuth(ctx); delErr != nil && !errors.Is(delErr, storage.ErrAuthNotFound) {
		s.logger.Warn("failed to delete stale session", "error", delErr)
	}
	return fmt.Errorf("%w: session expired or revoked", ErrNotAuthenticated)
}

func (s *Service) refresh(ctx context.Context, authData *storage.AuthData, user *pkgapi.UserResponse) {
	authData.UserID = user.ID
	authData.Email = user.Email
	authData.Name = user.Name
	authData.EmailVerified = user.EmailVerified
	if err := s.store.SaveAuth(ctx, authData); err != nil {
		s.logger.Warn("failed to refresh local auth data", "error", err)
	}
}
