package crypto

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultBcryptCost стоимость bcrypt по умолчанию
const DefaultBcryptCost = 10

// ErrPasswordMismatch пароль не соответствует сохраненному хешу
var ErrPasswordMismatch = errors.New("password does not match")

// PasswordHasher хеширует и проверяет пароли медленной адаптивной функцией
type PasswordHasher interface {
	Hash(password string) (string, error)
	// Compare returns ErrPasswordMismatch when the password is wrong
	Compare(hash, password string) error
}

// BcryptHasher реализация PasswordHasher на bcrypt
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher создает hasher. Некорректная стоимость заменяется на DefaultBcryptCost.
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultBcryptCost
	}
	return &BcryptHasher{cost: cost}
}

// Hash возвращает bcrypt хеш пароля
func (h *BcryptHasher) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// Compare сравнивает пароль с хешем
func (h *BcryptHasher) Compare(hash, password string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if err == nil {
		return nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrPasswordMismatch
	}
	return fmt.Errorf("failed to compare password: %w", err)
}
