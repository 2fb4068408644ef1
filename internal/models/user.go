package models

import "time"

// User представляет покупателя витрины
type User struct {
	ID                        string     `json:"id"`             // UUID пользователя
	Email                     string     `json:"email"`          // уникальный email (регистр сохраняется)
	Name                      string     `json:"name"`           // отображаемое имя
	PasswordHash              string     `json:"-"`              // bcrypt хеш пароля
	EmailVerified             bool       `json:"email_verified"` // подтвержден ли email
	VerificationToken         *string    `json:"-"`              // SHA256 хеш токена подтверждения
	VerificationTokenExpires  *time.Time `json:"-"`              // срок действия токена подтверждения
	VerificationConsumedToken *string    `json:"-"`              // хеш последнего использованного токена подтверждения
	ResetPasswordToken        *string    `json:"-"`              // SHA256 хеш токена сброса пароля
	ResetPasswordTokenExpires *time.Time `json:"-"`              // срок действия токена сброса
	CreatedAt                 time.Time  `json:"created_at"`     // время создания
	UpdatedAt                 time.Time  `json:"updated_at"`     // время последнего обновления
}

// Public возвращает публичное представление пользователя
func (u *User) Public() *PublicUser {
	return &PublicUser{
		ID:            u.ID,
		Name:          u.Name,
		Email:         u.Email,
		EmailVerified: u.EmailVerified,
	}
}

// PublicUser содержит поля пользователя, которые можно отдавать клиенту
type PublicUser struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"emailVerified"`
}

// Session представляет серверную сессию пользователя
type Session struct {
	ID             string    `json:"id"`               // непрозрачный идентификатор (значение cookie)
	UserID         string    `json:"user_id"`          // владелец сессии
	ExpiresAt      time.Time `json:"expires_at"`       // фиксированное время истечения
	LastAccessedAt time.Time `json:"last_accessed_at"` // время последнего обращения
	CreatedAt      time.Time `json:"created_at"`       // время создания
}

// Expired сообщает, истекла ли сессия к моменту now
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}
