package auth

import (
	"context"

	"github.com/iudanet/storefront/internal/client/api"
	pkgapi "github.com/iudanet/storefront/pkg/api"
)

// API описывает серверные вызовы, нужные клиентскому сервису.
// Реализуется *api.Client.
type API interface {
	Register(ctx context.Context, req pkgapi.RegisterRequest) (*pkgapi.RegisterResponse, error)
	Login(ctx context.Context, req pkgapi.LoginRequest) (*api.LoginResult, error)
	Logout(ctx context.Context, sessionID string) error
	Me(ctx context.Context, sessionID string) (*pkgapi.UserResponse, error)
	UpdateProfile(ctx context.Context, sessionID, name string) (*pkgapi.UserResponse, error)
	VerifyEmail(ctx context.Context, token string) (*pkgapi.MessageResponse, error)
	RequestPasswordReset(ctx context.Context, email string) (*pkgapi.MessageResponse, error)
	ResetPassword(ctx context.Context, req pkgapi.ResetPasswordRequest) (*pkgapi.MessageResponse, error)
}

var _ API = (*api.Client)(nil)
