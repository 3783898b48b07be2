package validation

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"
)

// UsernamePattern определяет допустимый формат имени учетной записи наблюдателя.
// Латинские буквы, цифры и нижнее подчеркивание, 3-32 символа.
// Имя попадает в URL (/auth/salt/{username}), поэтому формат жесткий
var UsernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]{3,32}$`)

const (
	// MinUsernameLen минимальная длина username
	MinUsernameLen = 3
	// MaxUsernameLen максимальная длина username
	MaxUsernameLen = 32
	// MinPasswordLen минимальная длина пароля наблюдателя
	MinPasswordLen = 12
)

// ValidateUsername проверяет имя учетной записи наблюдателя
func ValidateUsername(username string) error {
	if username == "" {
		return fmt.Errorf("username cannot be empty")
	}

	if len(username) < MinUsernameLen {
		return fmt.Errorf("username must be at least %d characters long", MinUsernameLen)
	}

	if len(username) > MaxUsernameLen {
		return fmt.Errorf("username must not exceed %d characters", MaxUsernameLen)
	}

	if !UsernamePattern.MatchString(username) {
		return fmt.Errorf("username can only contain letters (a-z, A-Z), numbers (0-9), and underscores (_)")
	}

	return nil
}

// ValidatePassword проверяет минимальные требования к паролю.
// Пароль участвует в выводе auth key, сервер его никогда не видит
func ValidatePassword(password string) error {
	if password == "" {
		return fmt.Errorf("password cannot be empty")
	}

	if len(password) < MinPasswordLen {
		return fmt.Errorf("password must be at least %d characters long", MinPasswordLen)
	}

	return nil
}

// ValidateEmail проверяет контактный email наблюдателя.
// На этот адрес уходят уведомления о сбросе привязки устройства
func ValidateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email cannot be empty")
	}

	addr, err := mail.ParseAddress(email)
	if err != nil {
		return fmt.Errorf("invalid email address")
	}

	// ParseAddress принимает формы вида "Name <user@host>",
	// нам нужен голый адрес
	if addr.Address != email || !strings.Contains(email, "@") {
		return fmt.Errorf("invalid email address")
	}

	return nil
}
