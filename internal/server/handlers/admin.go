package handlers

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/iudanet/storefront/internal/server/auth"
	"github.com/iudanet/storefront/pkg/api"
)

// AdminHandler обрабатывает служебные запросы, защищенные admin токеном
type AdminHandler struct {
	responder
	service *auth.Service
}

// NewAdminHandler создает новый handler для admin операций
func NewAdminHandler(logger *slog.Logger, service *auth.Service) *AdminHandler {
	return &AdminHandler{
		responder: responder{logger: logger},
		service:   service,
	}
}

// CleanupSessions обрабатывает POST /api/v1/admin/cleanup-sessions
func (h *AdminHandler) CleanupSessions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	count, err := h.service.SweepSessions(ctx)
	if err != nil {
		h.sendError(w, msgInternal, http.StatusInternalServerError)
		return
	}

	subject, _ := GetAdminSubject(ctx)
	h.logger.InfoContext(ctx, "Sessions cleanup requested",
		slog.String("subject", subject),
		slog.Int("count", count),
	)

	h.sendJSON(w, api.CleanupResponse{
		Success: true,
		Message: fmt.Sprintf("Cleaned up %d expired sessions", count),
		Count:   count,
	}, http.StatusOK)
}
