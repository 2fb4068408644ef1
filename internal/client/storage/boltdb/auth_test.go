package boltdb

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.etcd.io/bbolt"

	"github.com/iudanet/storefront/internal/client/storage"
)

// создаём тестовое BoltDB хранилище с auth bucket
func createTestAuthStorage(t *testing.T) (*Storage, func()) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "auth_test.db")

	ctx := context.Background()
	store, err := New(ctx, dbPath)
	require.NoError(t, err)
	require.NotNil(t, store)

	cleanup := func() {
		// Закрываем БД
		require.NoError(t, store.Close())
		require.NoError(t, os.RemoveAll(tmpDir))
	}

	return store, cleanup
}

func TestStorage_SaveGetDeleteAuth(t *testing.T) {
	ctx := context.Background()
	store, cleanup := createTestAuthStorage(t)
	defer cleanup()

	auth := &storage.AuthData{
		UserID:        "user-id-123",
		Email:         "alice@example.com",
		Name:          "Alice",
		SessionID:     "session-cookie-value",
		EmailVerified: true,
		ExpiresAt:     time.Now().Add(time.Hour).Unix(),
	}

	// Проверяем что GetAuth до сохранения выдаст ErrAuthNotFound
	_, err := store.GetAuth(ctx)
	assert.ErrorIs(t, err, storage.ErrAuthNotFound)

	// Сохраняем auth
	err = store.SaveAuth(ctx, auth)
	require.NoError(t, err)

	// Получаем auth и сравниваем
	got, err := store.GetAuth(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, auth, got)

	// IsAuthenticated должна вернуть true (сессия не истекла)
	authOk, err := store.IsAuthenticated(ctx)
	require.NoError(t, err)
	assert.True(t, authOk)

	// Обновляем auth с истекшей сессией
	auth.ExpiresAt = time.Now().Add(-time.Hour).Unix()
	err = store.SaveAuth(ctx, auth)
	require.NoError(t, err)

	authOk, err = store.IsAuthenticated(ctx)
	require.NoError(t, err)
	assert.False(t, authOk)

	// Удаляем auth
	err = store.DeleteAuth(ctx)
	require.NoError(t, err)

	// После удаления GetAuth должен вернуть ErrAuthNotFound
	_, err = store.GetAuth(ctx)
	assert.ErrorIs(t, err, storage.ErrAuthNotFound)

	// Удаление уже отсутствующего auth возвращает ErrAuthNotFound
	err = store.DeleteAuth(ctx)
	assert.Error(t, err) // ожидаем ошибку, т.к. auth отсутствует
}

func TestStorage_IsAuthenticated_Errors(t *testing.T) {
	ctx := context.Background()
	store, cleanup := createTestAuthStorage(t)
	defer cleanup()

	// Если auth не существует, IsAuthenticated должна вернуть false, nil (не ошибку)
	authOk, err := store.IsAuthenticated(ctx)
	require.NoError(t, err)
	assert.False(t, authOk)
}

func TestStorage_DeleteAuth_BucketMissing(t *testing.T) {
	ctx := context.Background()
	store, cleanup := createTestAuthStorage(t)
	defer cleanup()

	// Для теста удалим bucket auth напрямую
	err := store.db.Update(func(tx *bbolt.Tx) error {
		return tx.DeleteBucket([]byte("auth"))
	})
	assert.NoError(t, err)

	// Теперь DeleteAuth должен вернуть ошибку "auth bucket not found"
	err = store.DeleteAuth(ctx)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "auth bucket not found")
}

func TestStorage_GetAuth_BucketMissing(t *testing.T) {
	ctx := context.Background()
	store, cleanup := createTestAuthStorage(t)
	defer cleanup()

	// Удаляем bucket auth напрямую
	err := store.db.Update(func(tx *bbolt.Tx) error {
		return tx.DeleteBucket([]byte("auth"))
	})
	assert.NoError(t, err)

	_, err = store.GetAuth(ctx)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "auth bucket not found")
}

func TestStorage_SaveAuth_BucketMissing(t *testing.T) {
	ctx := context.Background()
	store, cleanup := createTestAuthStorage(t)
	defer cleanup()

	// Удаляем bucket auth напрямую
	err := store.db.Update(func(tx *bbolt.Tx) error {
		return tx.DeleteBucket([]byte("auth"))
	})
	assert.NoError(t, err)

	err = store.SaveAuth(ctx, &storage.AuthData{
		Email:     "test@example.com",
		SessionID: "sid",
	})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "auth bucket not found")
}

func TestStorage_IsAuthenticated_UsesClock(t *testing.T) {
	ctx := context.Background()
	store, cleanup := createTestAuthStorage(t)
	defer cleanup()

	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	require.NoError(t, store.SaveAuth(ctx, &storage.AuthData{
		SessionID: "sid",
		ExpiresAt: now.Add(time.Minute).Unix(),
	}))

	ok, err := store.IsAuthenticated(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	// ровно в момент истечения сессия уже недействительна
	now = now.Add(time.Minute)
	ok, err = store.IsAuthenticated(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStorage_SaveAuth_RequiresSessionID(t *testing.T) {
	ctx := context.Background()
	store, cleanup := createTestAuthStorage(t)
	defer cleanup()

	assert.ErrorIs(t, store.SaveAuth(ctx, nil), storage.ErrInvalidAuth)
	assert.ErrorIs(t, store.SaveAuth(ctx, &storage.AuthData{Email: "a@example.com"}), storage.ErrInvalidAuth)

	_, err := store.GetAuth(ctx)
	assert.ErrorIs(t, err, storage.ErrAuthNotFound)
}

// Запись неизвестной версии формата считается отсутствующей
func TestStorage_GetAuth_UnknownVersion(t *testing.T) {
	ctx := context.Background()
	store, cleanup := createTestAuthStorage(t)
	defer cleanup()

	err := store.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketAuth).Put(authKey, []byte(`{"version":99,"auth":{"session_id":"sid"}}`))
	})
	require.NoError(t, err)

	_, err = store.GetAuth(ctx)
	assert.ErrorIs(t, err, storage.ErrAuthNotFound)
}

func TestStorage_CanceledContext(t *testing.T) {
	store, cleanup := createTestAuthStorage(t)
	defer cleanup()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := store.SaveAuth(ctx, &storage.AuthData{SessionID: "sid"})
	assert.ErrorIs(t, err, context.Canceled)
}
