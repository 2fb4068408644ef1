package handlers

import (
	"context"

	"github.com/iudanet/storefront/internal/models"
)

// contextKey тип для ключей контекста
type contextKey string

const (
	// UserKey ключ для хранения *models.PublicUser в контексте
	UserKey contextKey = "user"
	// ClientIPKey ключ для хранения IP клиента в контексте
	ClientIPKey contextKey = "client_ip"
	// AdminSubjectKey ключ для хранения subject admin токена
	AdminSubjectKey contextKey = "admin_subject"
)

// GetUser извлекает пользователя текущей сессии из контекста запроса
func GetUser(ctx context.Context) (*models.PublicUser, bool) {
	user, ok := ctx.Value(UserKey).(*models.PublicUser)
	return user, ok && user != nil
}

// GetClientIP извлекает IP клиента из контекста запроса
func GetClientIP(ctx context.Context) (string, bool) {
	ip, ok := ctx.Value(ClientIPKey).(string)
	return ip, ok && ip != ""
}

// GetAdminSubject извлекает subject admin токена из контекста запроса
func GetAdminSubject(ctx context.Context) (string, bool) {
	subject, ok := ctx.Value(AdminSubjectKey).(string)
	return subject, ok
}
