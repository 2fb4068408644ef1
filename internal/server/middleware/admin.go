package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/iudanet/storefront/internal/server/handlers"
	"github.com/iudanet/storefront/internal/server/jwt"
	"github.com/iudanet/storefront/pkg/api"
)

// AdminAuth создает middleware для проверки admin JWT токена
// Ожидает заголовок Authorization: Bearer <token>
func AdminAuth(logger *slog.Logger, tokens *jwt.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logger.Warn("Missing Authorization header", "path", r.URL.Path)
				writeError(w, api.ErrorResponse{Error: "Unauthorized"}, http.StatusUnauthorized)
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				logger.Warn("Invalid Authorization header format")
				writeError(w, api.ErrorResponse{Error: "Unauthorized"}, http.StatusUnauthorized)
				return
			}

			claims, err := tokens.Validate(strings.TrimSpace(parts[1]))
			if err != nil {
				logger.Warn("Invalid admin token", "error", err)
				writeError(w, api.ErrorResponse{Error: "Unauthorized"}, http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), handlers.AdminSubjectKey, claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
