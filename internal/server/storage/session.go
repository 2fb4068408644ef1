package storage

import (
	"context"
	"time"

	"github.com/iudanet/storefront/internal/models"
)

// SessionStorage defines interface for server-side session persistence
type SessionStorage interface {
	// CreateSession stores a new session
	CreateSession(ctx context.Context, session *models.Session) error

	// GetSession retrieves session by ID regardless of expiry
	// Returns ErrSessionNotFound if session doesn't exist
	GetSession(ctx context.Context, sessionID string) (*models.Session, error)

	// TouchSession updates last_accessed_at; expires_at is never changed
	// Returns ErrSessionNotFound if session doesn't exist
	TouchSession(ctx context.Context, sessionID string, accessedAt time.Time) error

	// DeleteSession deletes session by ID
	// Deleting a missing session is not an error
	DeleteSession(ctx context.Context, sessionID string) error

	// DeleteUserSessions deletes all sessions of a user
	// Returns number of deleted sessions
	DeleteUserSessions(ctx context.Context, userID string) (int, error)

	// DeleteExpiredSessions removes all sessions with expires_at <= now
	// Returns number of deleted sessions
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int, error)
}
