package models

import "time"

// User представляет аккаунт наблюдателя в системе
type User struct {
	ID          string     `json:"id"`            // UUID пользователя
	Username    string     `json:"username"`      // уникальный username
	Email       string     `json:"email"`         // контактный email наблюдателя
	ObserverID  string     `json:"observer_id"`   // публичный идентификатор наблюдателя (OBS-XXXXXX)
	AuthKeyHash string     `json:"auth_key_hash"` // SHA256 хеш auth_key
	PublicSalt  string     `json:"public_salt"`   // base64 encoded salt (32 bytes)
	CreatedAt   time.Time  `json:"created_at"`    // время создания
	LastLogin   *time.Time `json:"last_login"`    // время последнего успешного входа
}

// RefreshToken представляет refresh token пользователя
type RefreshToken struct {
	Token     string    `json:"token"`      // случайный токен (base64)
	UserID    string    `json:"user_id"`    // ID пользователя
	ExpiresAt time.Time `json:"expires_at"` // время истечения
	CreatedAt time.Time `json:"created_at"` // время создания
}
