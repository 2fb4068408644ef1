package handlers

import (
	"errors"
	"log/slog"
	"net"
	"net/http"

	"github.com/iudanet/storefront/internal/server/auth"
	"github.com/iudanet/storefront/internal/server/session"
	"github.com/iudanet/storefront/pkg/api"
)

// AuthHandler обрабатывает запросы авторизации и профиля
type AuthHandler struct {
	responder
	service  *auth.Service
	sessions *session.Manager
}

// NewAuthHandler создает новый handler для авторизации
func NewAuthHandler(logger *slog.Logger, service *auth.Service) *AuthHandler {
	return &AuthHandler{
		responder: responder{logger: logger},
		service:   service,
		sessions:  service.Sessions(),
	}
}

// Register обрабатывает POST /api/v1/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req api.RegisterRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := h.service.Register(r.Context(), auth.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.writeAuthError(w, r, err)
		return
	}

	// Повторная отправка письма для неподтвержденного аккаунта
	status := http.StatusCreated
	if result.Resent {
		status = http.StatusOK
	}

	h.sendJSON(w, api.RegisterResponse{
		Message: msgRegistered,
		User:    toUserResponse(result.User),
	}, status)
}

// Login обрабатывает POST /api/v1/auth/login
// При успехе выставляет cookie сессии
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req api.LoginRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := h.service.Login(r.Context(), req.Email, req.Password, clientKey(r))
	if err != nil {
		h.writeAuthError(w, r, err)
		return
	}

	http.SetCookie(w, h.sessions.Cookie(result.Session.ID))
	h.sendJSON(w, api.LoginResponse{User: toUserResponse(result.User)}, http.StatusOK)
}

// Logout обрабатывает POST /api/v1/auth/logout
// Всегда успешен, даже без cookie
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.service.Logout(r.Context(), session.FromRequest(r))

	http.SetCookie(w, h.sessions.ClearCookie())
	h.sendJSON(w, api.SuccessResponse{Success: true}, http.StatusOK)
}

// Me обрабатывает GET /api/v1/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.Me(r.Context(), session.FromRequest(r))
	if err != nil {
		http.SetCookie(w, h.sessions.ClearCookie())
		h.writeAuthError(w, r, err)
		return
	}

	h.sendJSON(w, toUserResponse(user), http.StatusOK)
}

// Profile обрабатывает GET /api/v1/auth/profile
// Пользователь уже положен в контекст middleware сессии
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	user, ok := GetUser(r.Context())
	if !ok {
		h.sendError(w, msgUnauthorized, http.StatusUnauthorized)
		return
	}

	h.sendJSON(w, toUserResponse(user), http.StatusOK)
}

// UpdateProfile обрабатывает PATCH /api/v1/auth/profile
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req api.UpdateProfileRequest
	if !h.decode(w, r, &req) {
		return
	}

	user, err := h.service.UpdateProfile(r.Context(), session.FromRequest(r), req.Name)
	if err != nil {
		h.writeAuthError(w, r, err)
		return
	}

	h.sendJSON(w, toUserResponse(user), http.StatusOK)
}

// VerifyEmail обрабатывает GET /api/v1/auth/verify-email?token=
func (h *AuthHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.VerifyEmail(r.Context(), r.URL.Query().Get("token"))
	if err != nil {
		if errors.Is(err, auth.ErrInvalidOrExpiredToken) {
			h.sendError(w, msgInvalidVerifyTok, http.StatusBadRequest)
			return
		}
		h.writeAuthError(w, r, err)
		return
	}

	message := msgVerified
	if result.AlreadyVerified {
		message = msgAlreadyVerified
	}

	h.sendJSON(w, api.MessageResponse{Message: message}, http.StatusOK)
}

// RequestPasswordReset обрабатывает POST /api/v1/auth/request-password-reset
// Ответ не раскрывает, существует ли аккаунт
func (h *AuthHandler) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req api.PasswordResetRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.service.RequestPasswordReset(r.Context(), req.Email); errors.Is(err, auth.ErrMissingFields) {
		h.sendError(w, msgEmailRequired, http.StatusBadRequest)
		return
	}

	h.sendJSON(w, api.MessageResponse{Message: msgResetRequested}, http.StatusOK)
}

// ResetPassword обрабатывает POST /api/v1/auth/reset-password
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req api.ResetPasswordRequest
	if !h.decode(w, r, &req) {
		return
	}

	err := h.service.CompletePasswordReset(r.Context(), req.Token, req.Password, req.ConfirmPassword)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidOrExpiredToken) {
			h.sendError(w, msgInvalidResetTok, http.StatusBadRequest)
			return
		}
		h.writeAuthError(w, r, err)
		return
	}

	h.sendJSON(w, api.MessageResponse{Message: msgPasswordReset}, http.StatusOK)
}

// clientKey возвращает IP клиента, определенный middleware, либо адрес соединения
func clientKey(r *http.Request) string {
	if ip, ok := GetClientIP(r.Context()); ok {
		return ip
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
