package middleware

import (
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/iudanet/storefront/internal/server/handlers"
	"github.com/iudanet/storefront/internal/server/session"
)

// redactedParams параметры запроса, значения которых не попадают в лог
var redactedParams = []string{"token"}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    int64
}

// WriteHeader captures the status code
func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Write captures the number of bytes written
func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.written += int64(n)
	return n, err
}

// LoggingMiddleware логирует каждый запрос: метод, путь, маршрут, статус,
// длительность и размер ответа. Токены из query и cookie сессии в лог не попадают.
func LoggingMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			wrapped := &responseWriter{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}

			next.ServeHTTP(wrapped, r)

			duration := time.Since(start)

			// Определяем уровень логирования на основе статуса
			logLevel := slog.LevelInfo
			if wrapped.statusCode >= 500 {
				logLevel = slog.LevelError
			} else if wrapped.statusCode >= 400 {
				logLevel = slog.LevelWarn
			}

			attrs := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"remote_addr", r.RemoteAddr,
				"user_agent", r.UserAgent(),
				"status", wrapped.statusCode,
				"duration_ms", duration.Milliseconds(),
				"bytes_written", wrapped.written,
			}
			if q := sanitizeQuery(r.URL.Query()); q != "" {
				attrs = append(attrs, "query", q)
			}
			if ip, ok := handlers.GetClientIP(r.Context()); ok {
				attrs = append(attrs, "client_ip", ip)
			}
			// Pattern заполняет ServeMux, если он обернут напрямую
			if r.Pattern != "" {
				attrs = append(attrs, "route", r.Pattern)
			}
			// Значение cookie не логируется, только факт наличия
			attrs = append(attrs, "has_session", session.FromRequest(r) != "")

			logger.Log(r.Context(), logLevel, "HTTP request", attrs...)
		})
	}
}

// sanitizeQuery заменяет значения чувствительных параметров на ***
// Например: token=abc&x=1 -> token=%2A%2A%2A&x=1
func sanitizeQuery(q url.Values) string {
	if len(q) == 0 {
		return ""
	}

	for _, name := range redactedParams {
		if q.Has(name) {
			q.Set(name, "***")
		}
	}

	return q.Encode()
}

// LoggingWithSkip создает middleware с возможностью пропуска определенных путей
// Полезно для health checks и других эндпоинтов с высокой частотой запросов
func LoggingWithSkip(logger *slog.Logger, skipPaths []string) func(http.Handler) http.Handler {
	skipMap := make(map[string]bool)
	for _, path := range skipPaths {
		skipMap[path] = true
	}

	return func(next http.Handler) http.Handler {
		logged := LoggingMiddleware(logger)(next)

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if skipMap[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			logged.ServeHTTP(w, r)
		})
	}
}
