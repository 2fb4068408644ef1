// Package session issues, validates and revokes server side sessions
// referenced by an opaque cookie value.
package session

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/iudanet/storefront/internal/models"
	"github.com/iudanet/storefront/internal/server/storage"
	"github.com/iudanet/storefront/pkg/api"
)

const (
	// CookieName is the name of the session cookie
	CookieName = api.SessionCookieName
	// DefaultLifetime is the fixed session lifetime
	DefaultLifetime = 7 * 24 * time.Hour

	touchTimeout = 5 * time.Second
)

// ErrInvalidSession is returned for absent, expired or otherwise unusable sessions
var ErrInvalidSession = errors.New("invalid session")

// IDGenerator produces session identifiers
type IDGenerator interface {
	NewSessionID() (string, error)
}

// UserLookup resolves the owner of a session
type UserLookup interface {
	GetUserByID(ctx context.Context, userID string) (*models.User, error)
}

// Config настройки менеджера сессий
type Config struct {
	Lifetime     time.Duration
	SecureCookie bool
}

// Manager is the session state machine: Absent -> Active -> Expired/Revoked
type Manager struct {
	sessions storage.SessionStorage
	users    UserLookup
	ids      IDGenerator
	logger   *slog.Logger
	now      func() time.Time
	config   Config
	touches  sync.WaitGroup
}

// NewManager создает менеджер сессий
func NewManager(sessions storage.SessionStorage, users UserLookup, ids IDGenerator, cfg Config, logger *slog.Logger) *Manager {
	if cfg.Lifetime <= 0 {
		cfg.Lifetime = DefaultLifetime
	}

	return &Manager{
		sessions: sessions,
		users:    users,
		ids:      ids,
		logger:   logger,
		now:      time.Now,
		config:   cfg,
	}
}

// SetClock подменяет источник времени
func (m *Manager) SetClock(now func() time.Time) {
	m.now = now
}

// Lifetime returns the configured session lifetime
func (m *Manager) Lifetime() time.Duration {
	return m.config.Lifetime
}

// Create issues a new session for userID
func (m *Manager) Create(ctx context.Context, userID string) (*models.Session, error) {
	id, err := m.ids.NewSessionID()
	if err != nil {
		return nil, err
	}

	now := m.now()
	session := &models.Session{
		ID:             id,
		UserID:         userID,
		ExpiresAt:      now.Add(m.config.Lifetime),
		LastAccessedAt: now,
		CreatedAt:      now,
	}

	if err := m.sessions.CreateSession(ctx, session); err != nil {
		return nil, err
	}

	return session, nil
}

// Validate resolves a session id to the owning user's public fields.
// Any store failure is logged and reported as ErrInvalidSession.
func (m *Manager) Validate(ctx context.Context, sessionID string) (*models.PublicUser, error) {
	if sessionID == "" {
		return nil, ErrInvalidSession
	}

	session, err := m.sessions.GetSession(ctx, sessionID)
	if err != nil {
		if !errors.Is(err, storage.ErrSessionNotFound) {
			m.logger.ErrorContext(ctx, "Failed to load session", "error", err)
		}
		return nil, ErrInvalidSession
	}

	now := m.now()
	if session.Expired(now) {
		return nil, ErrInvalidSession
	}

	user, err := m.users.GetUserByID(ctx, session.UserID)
	if err != nil {
		if !errors.Is(err, storage.ErrUserNotFound) {
			m.logger.ErrorContext(ctx, "Failed to load session owner", "error", err, "user_id", session.UserID)
		}
		return nil, ErrInvalidSession
	}

	m.touch(session.ID, now)

	return user.Public(), nil
}

// touch обновляет lastAccessedAt в фоне, не задерживая ответ
func (m *Manager) touch(sessionID string, at time.Time) {
	m.touches.Add(1)
	go func() {
		defer m.touches.Done()

		ctx, cancel := context.WithTimeout(context.Background(), touchTimeout)
		defer cancel()

		if err := m.sessions.TouchSession(ctx, sessionID, at); err != nil && !errors.Is(err, storage.ErrSessionNotFound) {
			m.logger.Warn("Failed to refresh session access time", "error", err)
		}
	}()
}

// Wait blocks until pending access time updates finish
func (m *Manager) Wait() {
	m.touches.Wait()
}

// Revoke deletes the session. Unknown ids are not an error.
func (m *Manager) Revoke(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	return m.sessions.DeleteSession(ctx, sessionID)
}

// RevokeAllForUser deletes every session owned by userID
func (m *Manager) RevokeAllForUser(ctx context.Context, userID string) (int, error) {
	return m.sessions.DeleteUserSessions(ctx, userID)
}

// SweepExpired deletes all sessions whose expiry has passed
func (m *Manager) SweepExpired(ctx context.Context) (int, error) {
	return m.sessions.DeleteExpiredSessions(ctx, m.now())
}

// Cookie builds the session cookie for id
func (m *Manager) Cookie(id string) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   int(m.config.Lifetime / time.Second),
		HttpOnly: true,
		Secure:   m.config.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	}
}

// ClearCookie builds a cookie that removes the session cookie on the client
func (m *Manager) ClearCookie() *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.config.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	}
}

// FromRequest returns the session id carried by the request cookie, or ""
func FromRequest(r *http.Request) string {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}
