package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/iudanet/storefront/pkg/api"
)

// ErrNoSessionCookie сервер не выставил cookie сессии при входе
var ErrNoSessionCookie = errors.New("server did not return a session cookie")

// Error ошибка, которую вернул сервер
type Error struct {
	Message    string
	StatusCode int
	RetryAfter int // секунды, только для 429
}

func (e *Error) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("server error (%d): %s (retry after %ds)", e.StatusCode, e.Message, e.RetryAfter)
	}
	return fmt.Sprintf("server error (%d): %s", e.StatusCode, e.Message)
}

// IsUnauthorized сообщает, что сессия недействительна
func IsUnauthorized(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}

// Session cookie сессии, полученная при входе
type Session struct {
	ID        string
	ExpiresAt time.Time
}

// LoginResult результат входа
type LoginResult struct {
	User    *api.UserResponse
	Session Session
}

// Client представляет HTTP клиент для взаимодействия с сервером
type Client struct {
	httpClient *http.Client
	now        func() time.Time
	baseURL    string
}

// NewClient создает новый API клиент
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		now:     time.Now,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return fmt.Errorf("stopped after 10 redirects")
				}
				return nil
			},
		},
	}
}

// Register регистрирует нового пользователя
func (c *Client) Register(ctx context.Context, req api.RegisterRequest) (*api.RegisterResponse, error) {
	var resp api.RegisterResponse
	if _, err := c.doRequest(ctx, http.MethodPost, "/api/v1/auth/register", "", req, &resp); err != nil {
		return nil, fmt.Errorf("register request failed: %w", err)
	}
	return &resp, nil
}

// Login выполняет вход и возвращает cookie сессии
func (c *Client) Login(ctx context.Context, req api.LoginRequest) (*LoginResult, error) {
	var resp api.LoginResponse
	httpResp, err := c.doRequest(ctx, http.MethodPost, "/api/v1/auth/login", "", req, &resp)
	if err != nil {
		return nil, fmt.Errorf("login request failed: %w", err)
	}

	for _, cookie := range httpResp.Cookies() {
		if cookie.Name != api.SessionCookieName || cookie.Value == "" {
			continue
		}
		return &LoginResult{
			User:    resp.User,
			Session: Session{ID: cookie.Value, ExpiresAt: c.cookieExpiry(cookie)},
		}, nil
	}

	return nil, ErrNoSessionCookie
}

// cookieExpiry вычисляет момент истечения по Max-Age или Expires
func (c *Client) cookieExpiry(cookie *http.Cookie) time.Time {
	if cookie.MaxAge > 0 {
		return c.now().Add(time.Duration(cookie.MaxAge) * time.Second)
	}
	return cookie.Expires
}

// Logout завершает сессию на сервере
func (c *Client) Logout(ctx context.Context, sessionID string) error {
	if _, err := c.doRequest(ctx, http.MethodPost, "/api/v1/auth/logout", sessionID, nil, nil); err != nil {
		return fmt.Errorf("logout request failed: %w", err)
	}
	return nil
}

// Me возвращает владельца сессии
func (c *Client) Me(ctx context.Context, sessionID string) (*api.UserResponse, error) {
	var resp api.UserResponse
	if _, err := c.doRequest(ctx, http.MethodGet, "/api/v1/auth/me", sessionID, nil, &resp); err != nil {
		return nil, fmt.Errorf("me request failed: %w", err)
	}
	return &resp, nil
}

// UpdateProfile меняет отображаемое имя
func (c *Client) UpdateProfile(ctx context.Context, sessionID, name string) (*api.UserResponse, error) {
	var resp api.UserResponse
	req := api.UpdateProfileRequest{Name: name}
	if _, err := c.doRequest(ctx, http.MethodPatch, "/api/v1/auth/profile", sessionID, req, &resp); err != nil {
		return nil, fmt.Errorf("update profile request failed: %w", err)
	}
	return &resp, nil
}

// VerifyEmail подтверждает email по токену из письма
func (c *Client) VerifyEmail(ctx context.Context, token string) (*api.MessageResponse, error) {
	var resp api.MessageResponse
	path := "/api/v1/auth/verify-email?token=" + url.QueryEscape(token)
	if _, err := c.doRequest(ctx, http.MethodGet, path, "", nil, &resp); err != nil {
		return nil, fmt.Errorf("verify email request failed: %w", err)
	}
	return &resp, nil
}

// RequestPasswordReset запрашивает письмо для сброса пароля
func (c *Client) RequestPasswordReset(ctx context.Context, email string) (*api.MessageResponse, error) {
	var resp api.MessageResponse
	req := api.PasswordResetRequest{Email: email}
	if _, err := c.doRequest(ctx, http.MethodPost, "/api/v1/auth/request-password-reset", "", req, &resp); err != nil {
		return nil, fmt.Errorf("password reset request failed: %w", err)
	}
	return &resp, nil
}

// ResetPassword устанавливает новый пароль по токену из письма
func (c *Client) ResetPassword(ctx context.Context, req api.ResetPasswordRequest) (*api.MessageResponse, error) {
	var resp api.MessageResponse
	if _, err := c.doRequest(ctx, http.MethodPost, "/api/v1/auth/reset-password", "", req, &resp); err != nil {
		return nil, fmt.Errorf("reset password request failed: %w", err)
	}
	return &resp, nil
}

// doRequest выполняет HTTP запрос. Непустой sessionID отправляется как cookie.
func (c *Client) doRequest(ctx context.Context, method, path, sessionID string, body, result any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if sessionID != "" {
		req.AddCookie(&http.Cookie{Name: api.SessionCookieName, Value: sessionID})
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &Error{StatusCode: resp.StatusCode, Message: string(respBody)}

		var errResp api.ErrorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Error != "" {
			apiErr.Message = errResp.Error
			apiErr.RetryAfter = errResp.RetryAfter
		}
		if apiErr.RetryAfter == 0 {
			apiErr.RetryAfter, _ = strconv.Atoi(resp.Header.Get("Retry-After"))
		}

		return nil, apiErr
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return nil, fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return resp, nil
}
