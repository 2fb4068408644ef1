// Package jwt issues and validates short-lived admin bearer tokens that
// guard operational endpoints such as the session cleanup trigger.
package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// Issuer значение claim iss
	Issuer = "storefront"
	// RoleAdmin роль, дающая доступ к административным эндпоинтам
	RoleAdmin = "admin"
	// MinSecretLen минимальная длина секрета в production
	MinSecretLen = 32
)

var (
	// ErrInvalidToken токен не прошел проверку
	ErrInvalidToken = errors.New("invalid token")
	// ErrNotAdmin токен валиден, но не несет роль admin
	ErrNotAdmin = errors.New("token does not grant admin role")
	// ErrNoSecret секрет не настроен
	ErrNoSecret = errors.New("admin token secret is not configured")
)

// Claims represents admin token claims
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Service provides admin token generation and validation (HS256)
type Service struct {
	now    func() time.Time
	secret []byte
}

// NewService creates a new JWT service
// secret should be a cryptographically secure random string
func NewService(secret string) *Service {
	return &Service{
		secret: []byte(secret),
		now:    time.Now,
	}
}

// SetClock подменяет источник времени
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Issue creates an admin token for subject valid for ttl
func (s *Service) Issue(subject string, ttl time.Duration) (string, error) {
	if len(s.secret) == 0 {
		return "", ErrNoSecret
	}
	if subject == "" {
		return "", fmt.Errorf("subject is required")
	}
	if ttl <= 0 {
		return "", fmt.Errorf("ttl must be positive")
	}

	now := s.now()
	claims := Claims{
		Role: RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    Issuer,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, nil
}

// Validate parses tokenString and checks signature, expiry, issuer and role
func (s *Service) Validate(tokenString string) (*Claims, error) {
	if len(s.secret) == 0 {
		return nil, ErrNoSecret
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		// Проверяем что используется правильный алгоритм подписи
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	},
		jwt.WithIssuer(Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	if claims.Role != RoleAdmin {
		return nil, ErrNotAdmin
	}

	return claims, nil
}
