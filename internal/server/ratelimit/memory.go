package ratelimit

import (
	"context"
	"sync"
	"time"
)

// FixedWindow is an in-process Limiter. Buckets live in a mutex guarded map
// and are lost on restart.
type FixedWindow struct {
	buckets  map[string]*bucket
	now      func() time.Time
	cleanupC chan struct{}
	stopOnce sync.Once
	config   Config
	mu       sync.Mutex
}

// bucket хранит счетчик запросов для одного ключа
type bucket struct {
	resetAt time.Time
	count   int
}

// Option настраивает FixedWindow
type Option func(*FixedWindow)

// WithClock подменяет источник времени (для тестов)
func WithClock(now func() time.Time) Option {
	return func(fw *FixedWindow) {
		fw.now = now
	}
}

// WithoutCleanup отключает фоновую очистку buckets
func WithoutCleanup() Option {
	return func(fw *FixedWindow) {
		fw.cleanupC = nil
	}
}

// NewFixedWindow создает in-memory limiter и запускает периодическую очистку
func NewFixedWindow(cfg Config, opts ...Option) *FixedWindow {
	fw := &FixedWindow{
		buckets:  make(map[string]*bucket),
		now:      time.Now,
		cleanupC: make(chan struct{}),
		config:   cfg.withDefaults(),
	}

	for _, opt := range opts {
		opt(fw)
	}

	if fw.cleanupC != nil {
		go fw.cleanup()
	}

	return fw
}

// IsRateLimited implements Limiter
func (fw *FixedWindow) IsRateLimited(_ context.Context, key string) (bool, error) {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	now := fw.now()
	b, exists := fw.buckets[key]

	// Новое окно: первый запрос или предыдущее окно закончилось
	if !exists || now.After(b.resetAt) {
		fw.buckets[key] = &bucket{count: 1, resetAt: now.Add(fw.config.Window)}
		return false, nil
	}

	// Счетчик не растет после превышения лимита
	if b.count >= fw.config.MaxRequests {
		return true, nil
	}

	b.count++
	return false, nil
}

// RemainingTime implements Limiter
func (fw *FixedWindow) RemainingTime(_ context.Context, key string) (time.Duration, error) {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	b, exists := fw.buckets[key]
	if !exists {
		return 0, nil
	}

	remaining := b.resetAt.Sub(fw.now())
	if remaining < 0 {
		return 0, nil
	}

	return remaining, nil
}

// Stop останавливает cleanup goroutine
func (fw *FixedWindow) Stop() {
	fw.stopOnce.Do(func() {
		if fw.cleanupC != nil {
			close(fw.cleanupC)
		}
	})
}

// cleanup периодически удаляет buckets с истекшим окном
func (fw *FixedWindow) cleanup() {
	ticker := time.NewTicker(fw.config.Window * 2)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			fw.removeExpired()
		case <-fw.cleanupC:
			return
		}
	}
}

func (fw *FixedWindow) removeExpired() int {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	now := fw.now()
	removed := 0
	for key, b := range fw.buckets {
		if now.After(b.resetAt) {
			delete(fw.buckets, key)
			removed++
		}
	}

	return removed
}

func (fw *FixedWindow) size() int {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	return len(fw.buckets)
}
