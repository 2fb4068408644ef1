package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/storefront/pkg/api"
)

// captureLog возвращает JSON logger и функцию, разбирающую записанные строки
func captureLog(t *testing.T) (*slog.Logger, func() []map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	return logger, func() []map[string]any {
		var entries []map[string]any
		for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
			if line == "" {
				continue
			}
			entry := map[string]any{}
			require.NoError(t, json.Unmarshal([]byte(line), &entry))
			entries = append(entries, entry)
		}
		return entries
	}
}

func TestLoggingMiddleware_LevelByStatus(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		wantLevel string
	}{
		{name: "login ok", status: http.StatusOK, wantLevel: "INFO"},
		{name: "registered", status: http.StatusCreated, wantLevel: "INFO"},
		{name: "rate limited", status: http.StatusTooManyRequests, wantLevel: "WARN"},
		{name: "unauthorized", status: http.StatusUnauthorized, wantLevel: "WARN"},
		{name: "mail down", status: http.StatusServiceUnavailable, wantLevel: "ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, entries := captureLog(t)

			handler := LoggingMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))

			req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
			req.RemoteAddr = "192.168.1.1:12345"
			req.Header.Set("User-Agent", "TestAgent/1.0")
			handler.ServeHTTP(httptest.NewRecorder(), req)

			logged := entries()
			require.Len(t, logged, 1)
			entry := logged[0]
			assert.Equal(t, "HTTP request", entry["msg"])
			assert.Equal(t, tt.wantLevel, entry["level"])
			assert.Equal(t, "POST", entry["method"])
			assert.Equal(t, "/api/v1/auth/login", entry["path"])
			assert.Equal(t, float64(tt.status), entry["status"])
			assert.Equal(t, "192.168.1.1:12345", entry["remote_addr"])
			assert.Equal(t, "TestAgent/1.0", entry["user_agent"])
		})
	}
}

func TestLoggingMiddleware_BytesWritten(t *testing.T) {
	logger, entries := captureLog(t)

	handler := LoggingMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

	entry := entries()[0]
	assert.Equal(t, float64(200), entry["status"])
	assert.Equal(t, float64(len(`{"status":"ok"}`)), entry["bytes_written"])
	assert.Contains(t, entry, "duration_ms")
}

// Маршрут берется из шаблона ServeMux, а не из фактического пути
func TestLoggingMiddleware_Route(t *testing.T) {
	logger, entries := captureLog(t)

	mux := http.NewServeMux()
	mux.HandleFunc("PATCH /api/v1/auth/profile", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	LoggingMiddleware(logger)(mux).ServeHTTP(httptest.NewRecorder(),
		httptest.NewRequest(http.MethodPatch, "/api/v1/auth/profile", nil))
	LoggingMiddleware(logger)(mux).ServeHTTP(httptest.NewRecorder(),
		httptest.NewRequest(http.MethodGet, "/api/v1/unknown", nil))

	logged := entries()
	require.Len(t, logged, 2)
	assert.Equal(t, "PATCH /api/v1/auth/profile", logged[0]["route"])
	assert.NotContains(t, logged[1], "route")
	assert.Equal(t, float64(http.StatusNotFound), logged[1]["status"])
}

func TestLoggingMiddleware_SessionCookieNotLogged(t *testing.T) {
	logger, entries := captureLog(t)

	handler := LoggingMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req.AddCookie(&http.Cookie{Name: api.SessionCookieName, Value: "secret-session-id"})
	handler.ServeHTTP(httptest.NewRecorder(), req)

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil))

	logged := entries()
	require.Len(t, logged, 2)
	assert.Equal(t, true, logged[0]["has_session"])
	assert.Equal(t, false, logged[1]["has_session"])

	raw, err := json.Marshal(logged)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "secret-session-id")
}

func TestSanitizeQuery(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "No query", input: "", expected: ""},
		{name: "Plain params kept", input: "page=2&sort=name", expected: "page=2&sort=name"},
		{name: "Verification token redacted", input: "token=abc123xyz", expected: "token=%2A%2A%2A"},
		{name: "Token redacted among other params", input: "token=secret&utm=mail", expected: "token=%2A%2A%2A&utm=mail"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := url.ParseQuery(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, sanitizeQuery(q))
		})
	}
}

func TestLoggingMiddleware_RedactsToken(t *testing.T) {
	logger, entries := captureLog(t)

	handler := ClientIP(false)(LoggingMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/verify-email?token=very-secret-token", nil)
	req.RemoteAddr = "192.0.2.4:5555"
	handler.ServeHTTP(httptest.NewRecorder(), req)

	entry := entries()[0]
	assert.Equal(t, "/api/v1/auth/verify-email", entry["path"])
	assert.Equal(t, "token=%2A%2A%2A", entry["query"])
	assert.Equal(t, "192.0.2.4", entry["client_ip"])
}

func TestLoggingWithSkip(t *testing.T) {
	logger, entries := captureLog(t)

	handler := LoggingWithSkip(logger, []string{"/api/v1/health"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, entries(), "health checks are not logged")

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil))
	logged := entries()
	require.Len(t, logged, 1)
	assert.Equal(t, "/api/v1/auth/me", logged[0]["path"])
}

func TestResponseWriter_DefaultsTo200(t *testing.T) {
	rw := &responseWriter{ResponseWriter: httptest.NewRecorder(), statusCode: http.StatusOK}

	n, err := rw.Write([]byte("Hello, "))
	require.NoError(t, err)
	assert.Equal(t, 7, n)
	_, err = rw.Write([]byte("World!"))
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, rw.statusCode)
	assert.Equal(t, int64(13), rw.written)

	rw.WriteHeader(http.StatusConflict)
	assert.Equal(t, http.StatusConflict, rw.statusCode)
}
