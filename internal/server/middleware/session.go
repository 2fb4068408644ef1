package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/iudanet/storefront/internal/server/handlers"
	"github.com/iudanet/storefront/internal/server/session"
	"github.com/iudanet/storefront/pkg/api"
)

// RequireSession создает middleware, которое проверяет cookie сессии
// и кладет пользователя в контекст запроса
func RequireSession(logger *slog.Logger, sessions *session.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionID := session.FromRequest(r)
			if sessionID == "" {
				writeError(w, api.ErrorResponse{Error: "Unauthorized"}, http.StatusUnauthorized)
				return
			}

			user, err := sessions.Validate(r.Context(), sessionID)
			if err != nil {
				logger.DebugContext(r.Context(), "Session rejected", slog.Any("error", err))
				http.SetCookie(w, sessions.ClearCookie())
				writeError(w, api.ErrorResponse{Error: "Unauthorized"}, http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), handlers.UserKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
