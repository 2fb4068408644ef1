package api

// SessionCookieName имя cookie с идентификатором сессии
const SessionCookieName = "sessionId"

// UserResponse публичные поля пользователя
type UserResponse struct {
	ID            string `json:"id"`            // UUID пользователя
	Name          string `json:"name"`          // отображаемое имя
	Email         string `json:"email"`         // email
	EmailVerified bool   `json:"emailVerified"` // подтвержден ли email
}

// RegisterRequest представляет запрос на регистрацию нового пользователя
type RegisterRequest struct {
	Name     string `json:"name"`     // отображаемое имя
	Email    string `json:"email"`    // email (регистр учитывается)
	Password string `json:"password"` // пароль в открытом виде (только по TLS)
}

// RegisterResponse представляет ответ на успешную регистрацию
type RegisterResponse struct {
	Message string        `json:"message"` // сообщение для пользователя
	User    *UserResponse `json:"user"`    // созданный пользователь
}

// LoginRequest представляет запрос на аутентификацию
type LoginRequest struct {
	Email    string `json:"email"`    // email
	Password string `json:"password"` // пароль
}

// LoginResponse представляет ответ на успешный вход.
// Идентификатор сессии передается только в cookie.
type LoginResponse struct {
	User *UserResponse `json:"user"`
}

// UpdateProfileRequest представляет запрос на изменение профиля
type UpdateProfileRequest struct {
	Name string `json:"name"` // новое отображаемое имя
}

// PasswordResetRequest представляет запрос ссылки для сброса пароля
type PasswordResetRequest struct {
	Email string `json:"email"`
}

// ResetPasswordRequest представляет запрос на установку нового пароля
type ResetPasswordRequest struct {
	Token           string `json:"token"`           // сырой токен из письма
	Password        string `json:"password"`        // новый пароль
	ConfirmPassword string `json:"confirmPassword"` // подтверждение пароля
}

// SuccessResponse представляет ответ без данных
type SuccessResponse struct {
	Success bool `json:"success"`
}

// MessageResponse представляет ответ с сообщением
type MessageResponse struct {
	Message string `json:"message"`
}

// CleanupResponse представляет ответ на очистку сессий
type CleanupResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Count   int    `json:"count"` // количество удаленных сессий
}

// HealthResponse представляет ответ health check
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

// ErrorResponse представляет ответ с ошибкой
type ErrorResponse struct {
	Error      string `json:"error"`                // описание ошибки
	RetryAfter int    `json:"retryAfter,omitempty"` // секунды до следующей попытки (429)
}
