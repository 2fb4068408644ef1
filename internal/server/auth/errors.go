package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/iudanet/storefront/internal/validation"
)

// Ошибки сценариев авторизации. HTTP слой сопоставляет их со статусами.
var (
	ErrMissingFields          = errors.New("missing required fields")
	ErrMissingToken           = errors.New("token is missing")
	ErrInvalidEmail           = validation.ErrInvalidEmail
	ErrWeakPassword           = validation.ErrWeakPassword
	ErrInvalidName            = errors.New("invalid name")
	ErrMissingName            = validation.ErrEmptyName
	ErrPasswordMismatch       = errors.New("passwords do not match")
	ErrEmailAlreadyRegistered = errors.New("email already registered")
	ErrInvalidCredentials     = errors.New("invalid credentials")
	ErrEmailNotVerified       = errors.New("email not verified")
	ErrTooManyAttempts        = errors.New("too many attempts")
	ErrUnauthorized           = errors.New("unauthorized")
	ErrInvalidOrExpiredToken  = errors.New("invalid or expired token")
	ErrEmailDispatchFailed    = errors.New("email dispatch failed")
	ErrInternal               = errors.New("internal error")
)

// RateLimitError is returned when the caller exceeded the attempt budget.
// It matches ErrTooManyAttempts with errors.Is.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("too many attempts, retry after %s", e.RetryAfter)
}

func (e *RateLimitError) Is(target error) bool {
	return target == ErrTooManyAttempts
}

// RetryAfterSeconds rounds the wait up to whole seconds, at least 1
func (e *RateLimitError) RetryAfterSeconds() int {
	seconds := int((e.RetryAfter + time.Second - 1) / time.Second)
	if seconds < 1 {
		return 1
	}
	return seconds
}
