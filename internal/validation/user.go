package validation

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"unicode"
)

const (
	// MinPasswordLen минимальная длина пароля
	MinPasswordLen = 8
	// MaxPasswordLen максимальная длина пароля в байтах (ограничение bcrypt)
	MaxPasswordLen = 72
	// MaxEmailLen максимальная длина email (varchar(255) в схеме)
	MaxEmailLen = 255
	// MaxNameLen максимальная длина отображаемого имени
	MaxNameLen = 100
)

var (
	// ErrWeakPassword пароль не удовлетворяет требованиям сложности
	ErrWeakPassword = errors.New("password does not meet security requirements")
	// ErrInvalidEmail email имеет неверный формат
	ErrInvalidEmail = errors.New("invalid email address")
	// ErrEmptyName имя не задано
	ErrEmptyName = errors.New("name is required")
)

// ValidatePassword проверяет сложность пароля:
// минимум 8 символов, хотя бы одна заглавная, одна строчная буква и одна цифра
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLen || len(password) > MaxPasswordLen {
		return ErrWeakPassword
	}

	var hasUpper, hasLower, hasDigit bool
	for _, r := range password {
		switch {
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		case r >= 'a' && r <= 'z':
			hasLower = true
		case r >= '0' && r <= '9':
			hasDigit = true
		}
	}

	if !hasUpper || !hasLower || !hasDigit {
		return ErrWeakPassword
	}

	return nil
}

// ValidateEmail проверяет, что строка является одиночным адресом без отображаемого имени
func ValidateEmail(email string) error {
	if email == "" || len(email) > MaxEmailLen {
		return ErrInvalidEmail
	}

	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return ErrInvalidEmail
	}

	return nil
}

// NormalizeName убирает пробелы по краям и проверяет имя
func NormalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrEmptyName
	}

	if len([]rune(name)) > MaxNameLen {
		return "", fmt.Errorf("name must not exceed %d characters", MaxNameLen)
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return "", fmt.Errorf("name must not contain control characters")
		}
	}

	return name, nil
}
