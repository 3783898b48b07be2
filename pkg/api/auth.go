package api

// Коды ошибок API. Клиент ветвится по Code, а не по HTTP статусу:
// DEVICE_MISMATCH ведет в сценарий сброса привязки, а не в generic ошибку.
const (
	CodeInvalidCredentials  = "INVALID_CREDENTIALS"
	CodeDeviceMismatch      = "DEVICE_MISMATCH"
	CodeResetAlreadyPending = "RESET_ALREADY_PENDING"
	CodeResetNotPending     = "RESET_NOT_PENDING"
)

// RegisterRequest представляет запрос на регистрацию нового наблюдателя
type RegisterRequest struct {
	Username    string `json:"username"`      // username пользователя
	Email       string `json:"email"`         // контактный email наблюдателя
	AuthKeyHash string `json:"auth_key_hash"` // SHA256 хеш auth_key (hex-encoded)
	PublicSalt  string `json:"public_salt"`   // base64 encoded salt (32 bytes)
}

// RegisterResponse представляет ответ на успешную регистрацию
type RegisterResponse struct {
	UserID     string `json:"user_id"`     // UUID пользователя
	ObserverID string `json:"observer_id"` // публичный идентификатор наблюдателя
	Message    string `json:"message"`     // сообщение об успешной регистрации
}

// SaltResponse представляет ответ с публичной солью пользователя
type SaltResponse struct {
	PublicSalt string `json:"public_salt"` // base64 encoded salt
}

// LoginRequest представляет запрос на аутентификацию.
// DeviceFingerprint - дайджест устройства, вычисленный клиентом
// в момент логина; сервер сверяет его с привязкой аккаунта.
type LoginRequest struct {
	Username          string `json:"username"`           // username пользователя
	AuthKeyHash       string `json:"auth_key_hash"`      // SHA256 хеш auth_key (hex-encoded)
	DeviceFingerprint string `json:"device_fingerprint"` // дайджест устройства (hex или fallback-*)
}

// TokenResponse представляет ответ с токенами доступа
type TokenResponse struct {
	AccessToken  string `json:"access_token"`  // JWT access token
	RefreshToken string `json:"refresh_token"` // refresh token
	ExpiresIn    int64  `json:"expires_in"`    // время жизни access token в секундах
}

// ErrorResponse представляет ответ с ошибкой
type ErrorResponse struct {
	Error   string `json:"error"`             // описание ошибки
	Code    string `json:"code,omitempty"`    // машинный код ошибки (см. константы выше)
	Message string `json:"message,omitempty"` // дополнительное сообщение
}
