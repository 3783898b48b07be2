package crypto

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
)

// HashAuthKey хеширует auth_key через SHA256 и возвращает hex-строку.
// Клиент отправляет серверу именно этот хеш, сам auth_key сеть не покидает
func HashAuthKey(authKey []byte) (string, error) {
	if len(authKey) == 0 {
		return "", fmt.Errorf("auth key cannot be empty")
	}

	hash := sha256.Sum256(authKey)

	return hex.EncodeToString(hash[:]), nil
}

// VerifyAuthKeyHash сравнивает предъявленный хеш auth_key с сохраненным.
// Сравнение за константное время, чтобы не давать тайминг-оракул
func VerifyAuthKeyHash(storedHash, presentedHash string) error {
	if storedHash == "" || presentedHash == "" {
		return fmt.Errorf("auth key hash cannot be empty")
	}

	if subtle.ConstantTimeCompare([]byte(storedHash), []byte(presentedHash)) != 1 {
		return fmt.Errorf("invalid auth key")
	}

	return nil
}

// VerifyAuthKey проверяет сырой auth_key против сохраненного хеша.
// Используется клиентом для самопроверки перед отправкой
func VerifyAuthKey(authKey []byte, hashedAuthKey string) error {
	computedHash, err := HashAuthKey(authKey)
	if err != nil {
		return err
	}

	return VerifyAuthKeyHash(hashedAuthKey, computedHash)
}
