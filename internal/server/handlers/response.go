package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/iudanet/storefront/internal/models"
	"github.com/iudanet/storefront/internal/server/auth"
	"github.com/iudanet/storefront/pkg/api"
)

// maxBodyBytes ограничение размера тела запроса
const maxBodyBytes = 1 << 20

// Сообщения, которые видит пользователь
const (
	msgInvalidBody      = "Invalid request body"
	msgMissingFields    = "Missing required fields."
	msgWeakPassword     = "Password does not meet security requirements. It must be at least 8 characters long and include at least one uppercase letter, one lowercase letter, and one number."
	msgInvalidEmail     = "Invalid email address."
	msgInvalidName      = "Name must be at most 100 characters and must not contain control characters."
	msgNameRequired     = "Name is required"
	msgPasswordMismatch = "Passwords do not match."
	msgEmailTaken       = "User with this email already exists"
	msgInvalidCreds     = "Invalid credentials"
	msgNotVerified      = "Please verify your email address before logging in."
	msgTooManyAttempts  = "Too many login attempts. Please try again later."
	msgUnauthorized     = "Unauthorized"
	msgInvalidToken     = "Invalid or expired token."
	msgDispatchFailed   = "Failed to send email. Please try again later."
	msgInternal         = "Internal server error"
	msgEmailRequired    = "Email is required"
	msgTokenMissing     = "Verification token is missing."
	msgRegistered       = "Registration successful. Please check your email to verify your account."
	msgVerified         = "Email verified successfully."
	msgAlreadyVerified  = "Email already verified."
	msgInvalidVerifyTok = "Invalid or expired verification token."
	msgInvalidResetTok  = "Invalid or expired password reset token."
	msgResetRequested   = "If an account with this email exists, a password reset link has been sent."
	msgPasswordReset    = "Password reset successfully."
)

// responder общие методы формирования JSON ответов
type responder struct {
	logger *slog.Logger
}

// sendJSON отправляет JSON ответ
func (h responder) sendJSON(w http.ResponseWriter, data any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode JSON response", slog.Any("error", err))
	}
}

// sendError отправляет JSON ответ с ошибкой
func (h responder) sendError(w http.ResponseWriter, message string, statusCode int) {
	h.sendJSON(w, api.ErrorResponse{Error: message}, statusCode)
}

// decode разбирает JSON тело запроса
func (h responder) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			h.sendError(w, msgMissingFields, http.StatusBadRequest)
			return false
		}
		h.logger.WarnContext(r.Context(), "failed to decode request body", slog.Any("error", err))
		h.sendError(w, msgInvalidBody, http.StatusBadRequest)
		return false
	}

	return true
}

// writeAuthError сопоставляет ошибки auth.Service со статусами HTTP
func (h responder) writeAuthError(w http.ResponseWriter, r *http.Request, err error) {
	var rateErr *auth.RateLimitError

	switch {
	case errors.As(err, &rateErr):
		seconds := rateErr.RetryAfterSeconds()
		w.Header().Set("Retry-After", strconv.Itoa(seconds))
		h.sendJSON(w, api.ErrorResponse{Error: msgTooManyAttempts, RetryAfter: seconds}, http.StatusTooManyRequests)
	case errors.Is(err, auth.ErrMissingFields):
		h.sendError(w, msgMissingFields, http.StatusBadRequest)
	case errors.Is(err, auth.ErrMissingToken):
		h.sendError(w, msgTokenMissing, http.StatusBadRequest)
	case errors.Is(err, auth.ErrWeakPassword):
		h.sendError(w, msgWeakPassword, http.StatusBadRequest)
	case errors.Is(err, auth.ErrInvalidEmail):
		h.sendError(w, msgInvalidEmail, http.StatusBadRequest)
	case errors.Is(err, auth.ErrMissingName):
		h.sendError(w, msgNameRequired, http.StatusBadRequest)
	case errors.Is(err, auth.ErrInvalidName):
		h.sendError(w, msgInvalidName, http.StatusBadRequest)
	case errors.Is(err, auth.ErrPasswordMismatch):
		h.sendError(w, msgPasswordMismatch, http.StatusBadRequest)
	case errors.Is(err, auth.ErrInvalidOrExpiredToken):
		h.sendError(w, msgInvalidToken, http.StatusBadRequest)
	case errors.Is(err, auth.ErrEmailAlreadyRegistered):
		h.sendError(w, msgEmailTaken, http.StatusConflict)
	case errors.Is(err, auth.ErrInvalidCredentials):
		h.sendError(w, msgInvalidCreds, http.StatusUnauthorized)
	case errors.Is(err, auth.ErrUnauthorized):
		h.sendError(w, msgUnauthorized, http.StatusUnauthorized)
	case errors.Is(err, auth.ErrEmailNotVerified):
		h.sendError(w, msgNotVerified, http.StatusForbidden)
	case errors.Is(err, auth.ErrEmailDispatchFailed):
		h.sendError(w, msgDispatchFailed, http.StatusServiceUnavailable)
	default:
		if !errors.Is(err, auth.ErrInternal) {
			h.logger.ErrorContext(r.Context(), "unexpected auth error", slog.Any("error", err))
		}
		h.sendError(w, msgInternal, http.StatusInternalServerError)
	}
}

func toUserResponse(u *models.PublicUser) *api.UserResponse {
	if u == nil {
		return nil
	}
	return &api.UserResponse{
		ID:            u.ID,
		Name:          u.Name,
		Email:         u.Email,
		EmailVerified: u.EmailVerified,
	}
}
