package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/iudanet/storefront/internal/client/iocli"
	"github.com/iudanet/storefront/internal/client/storage"
	pkgapi "github.com/iudanet/storefront/pkg/api"
)

// ErrUnknownCommand команда не распознана
var ErrUnknownCommand = errors.New("unknown command")

// AuthService операции, которые CLI вызывает у клиентского сервиса авторизации
type AuthService interface {
	Register(ctx context.Context, name, email, password string) (*pkgapi.RegisterResponse, error)
	Login(ctx context.Context, email, password string) (*storage.AuthData, error)
	Logout(ctx context.Context) error
	Status(ctx context.Context) (*storage.AuthData, error)
	Me(ctx context.Context) (*pkgapi.UserResponse, error)
	UpdateProfile(ctx context.Context, name string) (*pkgapi.UserResponse, error)
	VerifyEmail(ctx context.Context, token string) (string, error)
	RequestPasswordReset(ctx context.Context, email string) (string, error)
	ResetPassword(ctx context.Context, token, password, confirm string) (string, error)
}

type Cli struct {
	io          iocli.IO
	authService AuthService
}

func New(io iocli.IO, authService AuthService) *Cli {
	return &Cli{
		io:          io,
		authService: authService,
	}
}

// PrintUsage выводит справку по командам
func PrintUsage(io iocli.IO) {
	io.Println("Storefront Client")
	io.Println()
	io.Println("Usage:")
	io.Println("  storefront [OPTIONS] COMMAND [ARGS]")
	io.Println()
	io.Println("Options:")
	io.Println("  --version      Show version information")
	io.Println("  --server URL   Server URL (default: http://localhost:8080)")
	io.Println("  --db PATH      Path to local session database (default: storefront-client.db)")
	io.Println()
	io.Println("Commands:")
	io.Println("  register          Create a new account")
	io.Println("  login             Sign in and save the session")
	io.Println("  logout            Sign out and delete the local session")
	io.Println("  status            Show the saved session")
	io.Println("  me                Show the signed in user")
	io.Println("  rename [NAME]     Change the display name")
	io.Println("  verify TOKEN      Confirm the email address")
	io.Println("  forgot [EMAIL]    Request a password reset email")
	io.Println("  reset TOKEN       Set a new password using the reset token")
	io.Println()
	io.Println("Examples:")
	io.Println("  storefront register")
	io.Println("  storefront --server https://shop.example.com login")
	io.Println("  storefront verify 3q2-7wEjx...")
}

// tokenArg возвращает первый аргумент или спрашивает его интерактивно
func (c *Cli) tokenArg(args []string, prompt string) (string, error) {
	if len(args) > 0 && args[0] != "" {
		return args[0], nil
	}
	value, err := c.io.ReadInput(prompt)
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return value, nil
}
