package middleware

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
)

// AdminKeyHeader - заголовок с административным ключом
const AdminKeyHeader = "X-Admin-Key"

// AdminKeyMiddleware создает middleware для защиты административных endpoints.
// Решения по сбросу привязки принимают только операторы штаба, поэтому
// обычный пользовательский JWT здесь не годится.
func AdminKeyMiddleware(logger *slog.Logger, adminKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if adminKey == "" {
				// Ключ не сконфигурирован - админский API выключен
				logger.Warn("admin API disabled: no admin key configured")
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}

			provided := r.Header.Get(AdminKeyHeader)
			if subtle.ConstantTimeCompare([]byte(provided), []byte(adminKey)) != 1 {
				logger.Warn("invalid admin key", "path", r.URL.Path)
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
