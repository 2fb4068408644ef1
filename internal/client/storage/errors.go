package storage

import "errors"

// Common client storage errors
var (
	// ErrAuthNotFound indicates that no authentication data exists
	ErrAuthNotFound = errors.New("authentication data not found")
	// ErrInvalidAuth сохраняемая сессия не содержит идентификатора
	ErrInvalidAuth = errors.New("authentication data has no session id")
)
