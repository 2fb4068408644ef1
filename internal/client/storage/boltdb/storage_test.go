package boltdb

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.etcd.io/bbolt"
)

func TestNew_CreatesAuthBucket(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "client.db")

	store, err := New(context.Background(), dbPath)
	require.NoError(t, err)
	defer func() {
		require.NoError(t, store.Close())
	}()

	err = store.db.View(func(tx *bbolt.Tx) error {
		if tx.Bucket(bucketAuth) == nil {
			return errBucketMissing
		}
		return nil
	})
	require.NoError(t, err)
}

func TestNew_InvalidPath(t *testing.T) {
	store, err := New(context.Background(), filepath.Join(t.TempDir(), "missing", "client.db"))
	assert.Error(t, err)
	assert.Nil(t, store)
}

func TestNew_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store, err := New(ctx, filepath.Join(t.TempDir(), "client.db"))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, store)
}

// Второй процесс клиента не ждет блокировку бесконечно
func TestNew_LockedFileTimesOut(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "client.db")

	first, err := New(context.Background(), dbPath)
	require.NoError(t, err)
	defer func() {
		_ = first.Close()
	}()

	second, err := New(context.Background(), dbPath)
	assert.ErrorIs(t, err, bbolt.ErrTimeout)
	assert.Nil(t, second)
}

func TestClose_Idempotent(t *testing.T) {
	store, err := New(context.Background(), filepath.Join(t.TempDir(), "client.db"))
	require.NoError(t, err)

	require.NoError(t, store.Close())
	assert.Nil(t, store.db)
	require.NoError(t, store.Close())

	_, err = store.GetAuth(context.Background())
	assert.ErrorIs(t, err, errClosed)
}
