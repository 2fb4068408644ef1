package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return mr, client
}

func TestRedis_IsRateLimited(t *testing.T) {
	ctx := context.Background()
	mr, client := newTestRedis(t)
	limiter := NewRedis(client, Config{MaxRequests: 3, Window: time.Minute}, "")

	for i := 0; i < 3; i++ {
		limited, err := limiter.IsRateLimited(ctx, "login:1.2.3.4")
		require.NoError(t, err)
		assert.False(t, limited)
	}

	limited, err := limiter.IsRateLimited(ctx, "login:1.2.3.4")
	require.NoError(t, err)
	assert.True(t, limited)

	// Счетчик не растет после превышения лимита
	value, err := mr.Get("rl:login:1.2.3.4")
	require.NoError(t, err)
	assert.Equal(t, "3", value)

	// Другой ключ не затронут
	limited, err = limiter.IsRateLimited(ctx, "login:5.6.7.8")
	require.NoError(t, err)
	assert.False(t, limited)
}

func TestRedis_WindowExpires(t *testing.T) {
	ctx := context.Background()
	mr, client := newTestRedis(t)
	limiter := NewRedis(client, Config{MaxRequests: 1, Window: time.Minute}, "test:")

	_, err := limiter.IsRateLimited(ctx, "k")
	require.NoError(t, err)
	limited, err := limiter.IsRateLimited(ctx, "k")
	require.NoError(t, err)
	require.True(t, limited)

	remaining, err := limiter.RemainingTime(ctx, "k")
	require.NoError(t, err)
	assert.Greater(t, remaining, time.Duration(0))
	assert.LessOrEqual(t, remaining, time.Minute)

	mr.FastForward(time.Minute + time.Second)

	limited, err = limiter.IsRateLimited(ctx, "k")
	require.NoError(t, err)
	assert.False(t, limited)
}

func TestRedis_RemainingTime_UnknownKey(t *testing.T) {
	_, client := newTestRedis(t)
	limiter := NewRedis(client, Config{}, "")

	remaining, err := limiter.RemainingTime(context.Background(), "missing")
	require.NoError(t, err)
	assert.Zero(t, remaining)
}

func TestRedis_WindowExpiry(t *testing.T) {
	ctx := context.Background()
	mr, client := newTestRedis(t)
	limiter := NewRedis(client, Config{MaxRequests: 1, Window: time.Minute}, "")

	_, _ = limiter.IsRateLimited(ctx, "k")
	require.True(t, mr.Exists("rl:k"))

	limited, err := limiter.IsRateLimited(ctx, "k")
	require.NoError(t, err)
	require.True(t, limited)

	mr.FastForward(time.Minute + time.Second)
	assert.False(t, mr.Exists("rl:k"))

	limited, err = limiter.IsRateLimited(ctx, "k")
	require.NoError(t, err)
	assert.False(t, limited)
}

func TestRedis_Unavailable(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer client.Close()

	limiter := NewRedis(client, Config{}, "")
	mr.Close()

	_, err = limiter.IsRateLimited(context.Background(), "k")
	assert.ErrorIs(t, err, ErrUnavailable)

	_, err = limiter.RemainingTime(context.Background(), "k")
	assert.ErrorIs(t, err, ErrUnavailable)
}
