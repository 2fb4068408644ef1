package storage

import (
	"context"
	"time"
)

// AuthStorage defines interface for storing the session of the logged in customer
type AuthStorage interface {
	// SaveAuth stores authentication data, replacing any previous session
	SaveAuth(ctx context.Context, auth *AuthData) error

	// GetAuth retrieves stored authentication data
	// Returns ErrAuthNotFound if no auth data exists
	GetAuth(ctx context.Context) (*AuthData, error)

	// DeleteAuth removes stored authentication data (logout)
	// Returns ErrAuthNotFound if there is nothing to delete
	DeleteAuth(ctx context.Context) error

	// IsAuthenticated checks if a session exists and has not expired
	IsAuthenticated(ctx context.Context) (bool, error)
}

// AuthData represents the stored session.
// SessionID is the value of the server's session cookie.
type AuthData struct {
	UserID        string `json:"user_id"`
	Email         string `json:"email"`
	Name          string `json:"name"`
	SessionID     string `json:"session_id"`
	ExpiresAt     int64  `json:"expires_at"` // unix seconds
	EmailVerified bool   `json:"email_verified"`
}

// Expired сообщает, истекла ли сессия к моменту now
func (a *AuthData) Expired(now time.Time) bool {
	return a.ExpiresAt <= now.Unix()
}
