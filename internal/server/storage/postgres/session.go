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

func (s *Storage) CreateSession(ctx context.Context, session *models.Session) error {
	query := `INSERT INTO sessions (id, user_id, expires_at, last_accessed_at, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := s.db.ExecContext(ctx, query,
		session.ID, session.UserID, session.ExpiresAt, session.LastAccessedAt, session.CreatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (s *Storage) GetSession(ctx context.Context, sessionID string) (*models.Session, error) {
	query := `SELECT id, user_id, expires_at, last_accessed_at, created_at
		FROM sessions WHERE id = $1`

	session := &models.Session{}
	err := s.db.QueryRowContext(ctx, query, sessionID).Scan(
		&session.ID, &session.UserID, &session.ExpiresAt, &session.LastAccessedAt, &session.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrSessionNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return session, nil
}

func (s *Storage) TouchSession(ctx context.Context, sessionID string, accessedAt time.Time) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET last_accessed_at = $1 WHERE id = $2`, accessedAt, sessionID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return expectAffected(result, storage.ErrSessionNotFound)
}

func (s *Storage) DeleteSession(ctx context.Context, sessionID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = $1`, sessionID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (s *Storage) DeleteUserSessions(ctx context.Context, userID string) (int, error) {
	return s.deleteSessions(ctx, `DELETE FROM sessions WHERE user_id = $1`, userID)
}

func (s *Storage) DeleteExpiredSessions(ctx context.Context, now time.Time) (int, error) {
	return s.deleteSessions(ctx, `DELETE FROM sessions WHERE expires_at <= $1`, now)
}

func (s *Storage) deleteSessions(ctx context.Context, query string, arg any) (int, error) {
	result, err := s.db.ExecContext(ctx, query, arg)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}

	return int(rows), nil
}
