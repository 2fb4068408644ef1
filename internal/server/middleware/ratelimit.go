package middleware

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/iudanet/storefront/internal/server/handlers"
	"github.com/iudanet/storefront/internal/server/ratelimit"
	"github.com/iudanet/storefront/internal/server/telemetry"
	"github.com/iudanet/storefront/pkg/api"
)

// RateLimit создает middleware, ограничивающее частоту запросов по IP клиента.
// scope используется как префикс ключа и как атрибут метрики.
// Недоступный limiter не блокирует запросы.
func RateLimit(logger *slog.Logger, limiter ratelimit.Limiter, scope string, metrics *telemetry.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			ip, ok := handlers.GetClientIP(ctx)
			if !ok {
				ip = clientIP(r, false)
			}
			key := scope + ":" + ip

			limited, err := limiter.IsRateLimited(ctx, key)
			if err != nil {
				logger.ErrorContext(ctx, "Rate limiter unavailable", "scope", scope, "error", err)
				next.ServeHTTP(w, r)
				return
			}

			if limited {
				remaining, err := limiter.RemainingTime(ctx, key)
				if err != nil {
					logger.ErrorContext(ctx, "Failed to read rate limit window", "error", err)
				}
				seconds := retryAfterSeconds(remaining)

				metrics.RateLimited(ctx, scope)
				logger.WarnContext(ctx, "Rate limit exceeded",
					"scope", scope,
					"ip", ip,
					"method", r.Method,
					"path", r.URL.Path,
				)

				w.Header().Set("Retry-After", strconv.Itoa(seconds))
				writeError(w, api.ErrorResponse{
					Error:      "Too many requests. Please try again later.",
					RetryAfter: seconds,
				}, http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func retryAfterSeconds(d time.Duration) int {
	seconds := int((d + time.Second - 1) / time.Second)
	if seconds < 1 {
		return 1
	}
	return seconds
}
