package boltdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/iudanet/storefront/internal/client/storage"
)

// recordVersion формат записи сессии в bucket auth
const recordVersion = 1

var authKey = []byte("current")

// authRecord обертка над AuthData с метаданными записи
type authRecord struct {
	Auth    storage.AuthData `json:"auth"`
	Version int              `json:"version"`
	SavedAt int64            `json:"saved_at"`
}

// SaveAuth stores the session, replacing the previous one
func (s *Storage) SaveAuth(ctx context.Context, auth *storage.AuthData) error {
	if auth == nil || auth.SessionID == "" {
		return storage.ErrInvalidAuth
	}

	data, err := json.Marshal(authRecord{
		Version: recordVersion,
		SavedAt: s.now().Unix(),
		Auth:    *auth,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal auth data: %w", err)
	}

	return s.update(ctx, func(bucket *bbolt.Bucket) error {
		if err := bucket.Put(authKey, data); err != nil {
			return fmt.Errorf("failed to save auth data: %w", err)
		}
		return nil
	})
}

// GetAuth retrieves the stored session.
// A record written by an unknown format version counts as absent.
func (s *Storage) GetAuth(ctx context.Context) (*storage.AuthData, error) {
	var record authRecord

	err := s.view(ctx, func(bucket *bbolt.Bucket) error {
		data := bucket.Get(authKey)
		if data == nil {
			return storage.ErrAuthNotFound
		}
		if err := json.Unmarshal(data, &record); err != nil {
			return fmt.Errorf("failed to unmarshal auth data: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if record.Version != recordVersion || record.Auth.SessionID == "" {
		return nil, storage.ErrAuthNotFound
	}

	return &record.Auth, nil
}

// DeleteAuth removes the stored session (logout)
func (s *Storage) DeleteAuth(ctx context.Context) error {
	return s.update(ctx, func(bucket *bbolt.Bucket) error {
		if bucket.Get(authKey) == nil {
			return storage.ErrAuthNotFound
		}
		if err := bucket.Delete(authKey); err != nil {
			return fmt.Errorf("failed to delete auth data: %w", err)
		}
		return nil
	})
}

// IsAuthenticated checks if a non-expired session is stored
func (s *Storage) IsAuthenticated(ctx context.Context) (bool, error) {
	auth, err := s.GetAuth(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrAuthNotFound) {
			return false, nil
		}
		return false, err
	}

	return !auth.Expired(s.now()), nil
}

func (s *Storage) view(ctx context.Context, fn func(*bbolt.Bucket) error) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	return s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketAuth)
		if bucket == nil {
			return errBucketMissing
		}
		return fn(bucket)
	})
}

func (s *Storage) update(ctx context.Context, fn func(*bbolt.Bucket) error) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketAuth)
		if bucket == nil {
			return errBucketMissing
		}
		return fn(bucket)
	})
}

// ready проверяет, что хранилище открыто и контекст не отменен
func (s *Storage) ready(ctx context.Context) error {
	if s.db == nil {
		return errClosed
	}
	return ctx.Err()
}
