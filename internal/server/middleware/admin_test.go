package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/storefront/internal/server/handlers"
	"github.com/iudanet/storefront/internal/server/jwt"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestAdminAuth(t *testing.T) {
	tokens := jwt.NewService(testSecret)

	valid, err := tokens.Issue("ops", time.Hour)
	require.NoError(t, err)

	past := jwt.NewService(testSecret)
	past.SetClock(func() time.Time { return time.Now().Add(-2 * time.Hour) })
	expired, err := past.Issue("ops", time.Hour)
	require.NoError(t, err)

	foreign, err := jwt.NewService("ffffffffffffffffffffffffffffffff").Issue("ops", time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name           string
		header         string
		expectedStatus int
	}{
		{name: "valid token", header: "Bearer " + valid, expectedStatus: http.StatusOK},
		{name: "lowercase scheme", header: "bearer " + valid, expectedStatus: http.StatusOK},
		{name: "missing header", header: "", expectedStatus: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic " + valid, expectedStatus: http.StatusUnauthorized},
		{name: "no token", header: "Bearer", expectedStatus: http.StatusUnauthorized},
		{name: "expired token", header: "Bearer " + expired, expectedStatus: http.StatusUnauthorized},
		{name: "foreign secret", header: "Bearer " + foreign, expectedStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := AdminAuth(setupTestLogger(), tokens)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				subject, ok := handlers.GetAdminSubject(r.Context())
				assert.True(t, ok)
				assert.Equal(t, "ops", subject)
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/cleanup-sessions", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}
