package boltdb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

// bucketAuth хранит единственную запись о текущей сессии
var bucketAuth = []byte("auth")

// openTimeout ожидание блокировки файла другим процессом клиента
const openTimeout = time.Second

var (
	errBucketMissing = errors.New("auth bucket not found")
	errClosed        = errors.New("storage is closed")
)

// Storage keeps the client session in a BoltDB file
type Storage struct {
	db  *bbolt.DB
	now func() time.Time
}

// New opens (or creates) the database at dbPath.
// It fails after openTimeout if another client process holds the file.
func New(ctx context.Context, dbPath string) (*Storage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	db, err := bbolt.Open(dbPath, 0600, &bbolt.Options{Timeout: openTimeout})
	if err != nil {
		return nil, fmt.Errorf("failed to open boltdb: %w", err)
	}

	s := &Storage{db: db, now: time.Now}

	if err := s.initBuckets(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize buckets: %w", err)
	}

	return s, nil
}

// Close closes the database. Repeated calls are no-ops.
func (s *Storage) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *Storage) initBuckets() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketAuth); err != nil {
			return fmt.Errorf("failed to create auth bucket: %w", err)
		}
		return nil
	})
}
