// Package ratelimit provides fixed-window request limiting keyed by an
// arbitrary string (usually "<scope>:<client ip>").
package ratelimit

import (
	"context"
	"errors"
	"time"
)

const (
	// DefaultMaxRequests is the number of requests allowed per window
	DefaultMaxRequests = 5
	// DefaultWindow is the fixed window length
	DefaultWindow = time.Minute
)

// ErrUnavailable is returned when the backing store cannot be reached
var ErrUnavailable = errors.New("rate limiter unavailable")

// Limiter counts requests per key within fixed windows.
//
// IsRateLimited records the request and reports whether it exceeds the
// budget of the current window. Once a key is limited it stays limited
// until the window resets; further checks do not grow the counter.
// A window is never cleared early, only expiry starts a new one.
type Limiter interface {
	IsRateLimited(ctx context.Context, key string) (bool, error)
	// RemainingTime returns the time left until the key's window resets, or 0.
	RemainingTime(ctx context.Context, key string) (time.Duration, error)
}

// Config holds fixed window parameters
type Config struct {
	MaxRequests int
	Window      time.Duration
}

func (c Config) withDefaults() Config {
	if c.MaxRequests <= 0 {
		c.MaxRequests = DefaultMaxRequests
	}
	if c.Window <= 0 {
		c.Window = DefaultWindow
	}
	return c
}

// LoginKey builds the limiter key for login attempts from a client identity
func LoginKey(clientKey string) string {
	return "login:" + clientKey
}
