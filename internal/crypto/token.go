package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
)

// TokenBytes длина случайной части токенов и идентификаторов сессий (256 бит)
const TokenBytes = 32

// SecureRandom источник криптографически стойких случайных байт.
// В тестах подменяется детерминированной реализацией.
type SecureRandom interface {
	Read(p []byte) (n int, err error)
}

// TokenGenerator выпускает одноразовые токены (подтверждение email, сброс пароля)
// и идентификаторы сессий
type TokenGenerator struct {
	random SecureRandom
}

// NewTokenGenerator создает генератор. nil означает crypto/rand.
func NewTokenGenerator(random SecureRandom) *TokenGenerator {
	if random == nil {
		random = rand.Reader
	}
	return &TokenGenerator{random: random}
}

// Generate возвращает сырой токен (hex, 64 символа) и его SHA256 хеш.
// Сырой токен уходит только в письмо, в БД сохраняется хеш.
func (g *TokenGenerator) Generate() (string, string, error) {
	raw, err := g.readBytes()
	if err != nil {
		return "", "", err
	}

	token := hex.EncodeToString(raw)
	return token, HashToken(token), nil
}

// NewSessionID возвращает новый непрозрачный идентификатор сессии (base64url без паддинга)
func (g *TokenGenerator) NewSessionID() (string, error) {
	raw, err := g.readBytes()
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

func (g *TokenGenerator) readBytes() ([]byte, error) {
	buf := make([]byte, TokenBytes)
	if _, err := io.ReadFull(g.random, buf); err != nil {
		return nil, fmt.Errorf("failed to generate random token: %w", err)
	}
	return buf, nil
}

// HashToken хеширует сырой токен с использованием SHA256.
// Используется и при выпуске, и при поиске пользователя по токену.
func HashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}
