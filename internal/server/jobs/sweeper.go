// Package jobs runs periodic maintenance tasks of the server.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// DefaultSweepSchedule каждые 30 минут
const DefaultSweepSchedule = "*/30 * * * *"

const sweepTimeout = time.Minute

var standardCronParser = cron.NewParser(
	cron.Minute |
		cron.Hour |
		cron.Dom |
		cron.Month |
		cron.Dow,
)

// SessionSweeper удаляет истекшие сессии
type SessionSweeper interface {
	SweepSessions(ctx context.Context) (int, error)
}

// Sweeper periodically deletes expired sessions on a cron schedule
type Sweeper struct {
	target   SessionSweeper
	logger   *slog.Logger
	cron     *cron.Cron
	schedule cron.Schedule
	mu       sync.Mutex
	started  bool
}

// ParseSchedule разбирает 5-польное cron выражение в UTC
func ParseSchedule(expr string) (cron.Schedule, error) {
	clean := strings.TrimSpace(expr)
	if clean == "" {
		return nil, errors.New("cron expression is required")
	}

	upper := strings.ToUpper(clean)
	if strings.Contains(upper, "TZ=") {
		return nil, errors.New("cron expression must be UTC-only (timezone prefixes are not allowed)")
	}

	schedule, err := standardCronParser.Parse(clean)
	if err != nil {
		return nil, fmt.Errorf("invalid cron expression: %w", err)
	}
	return schedule, nil
}

// NewSweeper создает Sweeper. Пустое выражение заменяется на DefaultSweepSchedule.
func NewSweeper(target SessionSweeper, expr string, logger *slog.Logger) (*Sweeper, error) {
	if expr == "" {
		expr = DefaultSweepSchedule
	}

	schedule, err := ParseSchedule(expr)
	if err != nil {
		return nil, err
	}

	return &Sweeper{
		target:   target,
		logger:   logger,
		schedule: schedule,
		cron:     cron.New(cron.WithLocation(time.UTC), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
	}, nil
}

// RunOnce выполняет одну очистку
func (s *Sweeper) RunOnce(ctx context.Context) (int, error) {
	count, err := s.target.SweepSessions(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Session sweep failed", slog.Any("error", err))
		return 0, err
	}

	s.logger.DebugContext(ctx, "Session sweep finished", slog.Int("count", count))
	return count, nil
}

// Next возвращает время следующего запуска после now
func (s *Sweeper) Next(now time.Time) time.Time {
	return s.schedule.Next(now.UTC())
}

// Start запускает планировщик. Повторный вызов ничего не делает.
func (s *Sweeper) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return
	}
	s.started = true

	s.cron.Schedule(s.schedule, cron.FuncJob(func() {
		ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
		defer cancel()
		_, _ = s.RunOnce(ctx)
	}))
	s.cron.Start()

	s.logger.Info("Session sweeper started", slog.Time("next_run", s.Next(time.Now())))
}

// Stop останавливает планировщик и ждет завершения текущей очистки
func (s *Sweeper) Stop(ctx context.Context) error {
	s.mu.Lock()
	started := s.started
	s.started = false
	s.mu.Unlock()

	if !started {
		return nil
	}

	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
