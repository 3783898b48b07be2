package handlers

//go:generate moq -out device_service_mock.go . DeviceService

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pollwatch/devicebind/internal/crypto"
	"github.com/pollwatch/devicebind/internal/fingerprint"
	"github.com/pollwatch/devicebind/internal/models"
	"github.com/pollwatch/devicebind/internal/server/binding"
	"github.com/pollwatch/devicebind/internal/server/storage"
	"github.com/pollwatch/devicebind/internal/validation"
	"github.com/pollwatch/devicebind/pkg/api"
)

// DeviceService drives the device-binding workflow for logins and resets
type DeviceService interface {
	EvaluateLogin(ctx context.Context, accountID string, candidate fingerprint.Digest) (binding.LoginOutcome, error)
	RequestReset(ctx context.Context, user *models.User, candidate fingerprint.Digest, contactEmail string) (*models.ResetRequest, error)
	ResolveReset(ctx context.Context, requestID string, approve bool, resolvedBy string) (*models.ResetRequest, error)
}

// AuthHandler обрабатывает запросы авторизации
type AuthHandler struct {
	logger       *slog.Logger
	userStorage  storage.UserStorage
	tokenStorage storage.TokenStorage
	devices      DeviceService
	jwtConfig    JWTConfig
}

// NewAuthHandler создает новый handler для авторизации
func NewAuthHandler(logger *slog.Logger, userStorage storage.UserStorage, tokenStorage storage.TokenStorage, devices DeviceService, jwtConfig JWTConfig) *AuthHandler {
	return &AuthHandler{
		logger:       logger,
		userStorage:  userStorage,
		tokenStorage: tokenStorage,
		devices:      devices,
		jwtConfig:    jwtConfig,
	}
}

// Register обрабатывает POST /api/v1/auth/register
// Регистрация нового наблюдателя
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.ErrorContext(ctx, "failed to decode register request", slog.Any("error", err))
		h.sendError(w, http.StatusBadRequest, "", "invalid request body")
		return
	}

	if err := validation.ValidateUsername(req.Username); err != nil {
		h.logger.WarnContext(ctx, "invalid username", slog.String("username", req.Username), slog.Any("error", err))
		h.sendError(w, http.StatusBadRequest, "", err.Error())
		return
	}

	if req.AuthKeyHash == "" {
		h.sendError(w, http.StatusBadRequest, "", "auth_key_hash is required")
		return
	}
	if req.PublicSalt == "" {
		h.sendError(w, http.StatusBadRequest, "", "public_salt is required")
		return
	}
	if err := validation.ValidateEmail(req.Email); err != nil {
		h.sendError(w, http.StatusBadRequest, "", err.Error())
		return
	}

	userID := uuid.New().String()
	observerID := newObserverID(userID)

	user := &models.User{
		ID:          userID,
		Username:    req.Username,
		Email:       req.Email,
		ObserverID:  observerID,
		AuthKeyHash: req.AuthKeyHash, // SHA256 хеш auth_key от клиента
		PublicSalt:  req.PublicSalt,
		CreatedAt:   time.Now(),
	}

	if err := h.userStorage.CreateUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrUserAlreadyExists) {
			h.logger.WarnContext(ctx, "user already exists", slog.String("username", req.Username))
			h.sendError(w, http.StatusConflict, "", "username already taken")
			return
		}
		h.logger.ErrorContext(ctx, "failed to create user", slog.Any("error", err))
		h.sendError(w, http.StatusInternalServerError, "", "internal server error")
		return
	}

	h.logger.InfoContext(ctx, "user registered successfully",
		slog.String("username", req.Username),
		slog.String("user_id", userID),
		slog.String("observer_id", observerID))

	resp := api.RegisterResponse{
		UserID:     userID,
		ObserverID: observerID,
		Message:    "Observer registered successfully",
	}

	h.sendJSON(w, resp, http.StatusCreated)
}

// GetSalt обрабатывает GET /api/v1/auth/salt/{username}
// Получение public_salt пользователя
func (h *AuthHandler) GetSalt(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	username := r.PathValue("username")
	if username == "" {
		h.sendError(w, http.StatusBadRequest, "", "username is required")
		return
	}

	if err := validation.ValidateUsername(username); err != nil {
		h.logger.WarnContext(ctx, "invalid username", slog.String("username", username), slog.Any("error", err))
		h.sendError(w, http.StatusBadRequest, "", err.Error())
		return
	}

	user, err := h.userStorage.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			h.logger.WarnContext(ctx, "user not found", slog.String("username", username))
			h.sendError(w, http.StatusNotFound, "", "user not found")
			return
		}
		h.logger.ErrorContext(ctx, "failed to get user", slog.Any("error", err))
		h.sendError(w, http.StatusInternalServerError, "", "internal server error")
		return
	}

	resp := api.SaltResponse{
		PublicSalt: user.PublicSalt,
	}

	h.sendJSON(w, resp, http.StatusOK)
}

// Login обрабатывает POST /api/v1/auth/login
// Аутентификация: сначала credentials, затем верификация отпечатка
// устройства против привязки аккаунта. Mismatch отдается с отдельным
// кодом DEVICE_MISMATCH, чтобы клиент ушел в сценарий сброса, а не в
// generic ошибку логина.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.ErrorContext(ctx, "failed to decode login request", slog.Any("error", err))
		h.sendError(w, http.StatusBadRequest, "", "invalid request body")
		return
	}

	if err := validation.ValidateUsername(req.Username); err != nil {
		h.logger.WarnContext(ctx, "invalid username", slog.String("username", req.Username), slog.Any("error", err))
		h.sendError(w, http.StatusBadRequest, "", err.Error())
		return
	}

	if req.AuthKeyHash == "" {
		h.sendError(w, http.StatusBadRequest, "", "auth_key_hash is required")
		return
	}

	user, err := h.userStorage.GetUserByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			h.logger.WarnContext(ctx, "login failed: user not found", slog.String("username", req.Username))
			h.sendError(w, http.StatusUnauthorized, api.CodeInvalidCredentials, "invalid credentials")
			return
		}
		h.logger.ErrorContext(ctx, "failed to get user", slog.Any("error", err))
		h.sendError(w, http.StatusInternalServerError, "", "internal server error")
		return
	}

	// Клиент отправляет SHA256 хеш от auth_key (детерминированный)
	if err := crypto.VerifyAuthKeyHash(user.AuthKeyHash, req.AuthKeyHash); err != nil {
		h.logger.WarnContext(ctx, "login failed: invalid auth key", slog.String("username", req.Username))
		h.sendError(w, http.StatusUnauthorized, api.CodeInvalidCredentials, "invalid credentials")
		return
	}

	// Credentials в порядке - проверяем устройство
	outcome, err := h.devices.EvaluateLogin(ctx, user.ID, fingerprint.Digest(req.DeviceFingerprint))
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to evaluate device binding", slog.Any("error", err))
		h.sendError(w, http.StatusInternalServerError, "", "internal server error")
		return
	}
	if outcome == binding.OutcomeMismatch {
		h.logger.WarnContext(ctx, "login blocked: device mismatch",
			slog.String("username", req.Username),
			slog.String("user_id", user.ID))
		h.sendError(w, http.StatusForbidden, api.CodeDeviceMismatch,
			"this device does not match the one bound to your account; submit a device reset request to proceed")
		return
	}

	accessToken, expiresIn, err := GenerateAccessToken(h.jwtConfig, user.ID, user.Username)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to generate access token", slog.Any("error", err))
		h.sendError(w, http.StatusInternalServerError, "", "internal server error")
		return
	}

	refreshToken, expiresAt, err := GenerateRefreshToken(h.jwtConfig)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to generate refresh token", slog.Any("error", err))
		h.sendError(w, http.StatusInternalServerError, "", "internal server error")
		return
	}

	token := &models.RefreshToken{
		Token:     refreshToken,
		UserID:    user.ID,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	}

	if err := h.tokenStorage.SaveRefreshToken(ctx, token); err != nil {
		h.logger.ErrorContext(ctx, "failed to save refresh token", slog.Any("error", err))
		h.sendError(w, http.StatusInternalServerError, "", "internal server error")
		return
	}

	if err := h.userStorage.UpdateLastLogin(ctx, user.ID, time.Now()); err != nil {
		// Не критичная ошибка, логируем но не прерываем
		h.logger.WarnContext(ctx, "failed to update last login", slog.Any("error", err))
	}

	h.logger.InfoContext(ctx, "user logged in successfully",
		slog.String("username", req.Username),
		slog.String("user_id", user.ID),
		slog.Bool("first_bind", outcome == binding.OutcomeFirstBind))

	resp := api.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    expiresIn,
	}

	h.sendJSON(w, resp, http.StatusOK)
}

// Refresh обрабатывает POST /api/v1/auth/refresh
// Обновление access token с помощью refresh token
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	refreshToken, ok := bearerToken(r)
	if !ok {
		h.sendError(w, http.StatusUnauthorized, "", "Authorization header is required")
		return
	}

	storedToken, err := h.tokenStorage.GetRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, storage.ErrTokenNotFound) {
			h.logger.WarnContext(ctx, "refresh token not found")
			h.sendError(w, http.StatusUnauthorized, "", "invalid refresh token")
			return
		}
		h.logger.ErrorContext(ctx, "failed to get refresh token", slog.Any("error", err))
		h.sendError(w, http.StatusInternalServerError, "", "internal server error")
		return
	}

	if time.Now().After(storedToken.ExpiresAt) {
		h.logger.WarnContext(ctx, "refresh token expired", slog.String("user_id", storedToken.UserID))
		h.sendError(w, http.StatusUnauthorized, "", "refresh token expired")
		return
	}

	user, err := h.userStorage.GetUserByID(ctx, storedToken.UserID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to get user", slog.Any("error", err))
		h.sendError(w, http.StatusInternalServerError, "", "internal server error")
		return
	}

	newAccessToken, expiresIn, err := GenerateAccessToken(h.jwtConfig, user.ID, user.Username)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to generate access token", slog.Any("error", err))
		h.sendError(w, http.StatusInternalServerError, "", "internal server error")
		return
	}

	newRefreshToken, newExpiresAt, err := GenerateRefreshToken(h.jwtConfig)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to generate refresh token", slog.Any("error", err))
		h.sendError(w, http.StatusInternalServerError, "", "internal server error")
		return
	}

	// Ротация: старый токен удаляется, новый сохраняется
	if err := h.tokenStorage.DeleteRefreshToken(ctx, refreshToken); err != nil {
		h.logger.WarnContext(ctx, "failed to delete old refresh token", slog.Any("error", err))
	}

	newToken := &models.RefreshToken{
		Token:     newRefreshToken,
		UserID:    user.ID,
		ExpiresAt: newExpiresAt,
		CreatedAt: time.Now(),
	}

	if err := h.tokenStorage.SaveRefreshToken(ctx, newToken); err != nil {
		h.logger.ErrorContext(ctx, "failed to save refresh token", slog.Any("error", err))
		h.sendError(w, http.StatusInternalServerError, "", "internal server error")
		return
	}

	h.logger.InfoContext(ctx, "tokens refreshed successfully", slog.String("user_id", user.ID))

	resp := api.TokenResponse{
		AccessToken:  newAccessToken,
		RefreshToken: newRefreshToken,
		ExpiresIn:    expiresIn,
	}

	h.sendJSON(w, resp, http.StatusOK)
}

// Logout обрабатывает POST /api/v1/auth/logout
// Выход пользователя (удаление всех refresh tokens).
// Маршрут стоит за AuthMiddleware, user_id берем из контекста
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := GetUserID(ctx)
	if !ok {
		h.sendError(w, http.StatusUnauthorized, "", "unauthorized")
		return
	}

	deletedCount, err := h.tokenStorage.DeleteUserTokens(ctx, userID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to delete user tokens", slog.Any("error", err))
		h.sendError(w, http.StatusInternalServerError, "", "internal server error")
		return
	}

	h.logger.InfoContext(ctx, "user logged out successfully",
		slog.String("user_id", userID),
		slog.Int("tokens_deleted", deletedCount))

	w.WriteHeader(http.StatusNoContent)
}

// bearerToken извлекает токен из заголовка Authorization
func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	const bearerPrefix = "Bearer "
	if len(authHeader) <= len(bearerPrefix) || !strings.EqualFold(authHeader[:len(bearerPrefix)], bearerPrefix) {
		return "", false
	}
	return authHeader[len(bearerPrefix):], true
}

// newObserverID derives the public observer identifier from the user ID
func newObserverID(userID string) string {
	return "OBS-" + strings.ToUpper(strings.ReplaceAll(userID, "-", "")[:8])
}

// sendJSON отправляет JSON ответ
func (h *AuthHandler) sendJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	writeJSON(h.logger, w, data, statusCode)
}

// sendError отправляет JSON ответ с ошибкой
func (h *AuthHandler) sendError(w http.ResponseWriter, statusCode int, code, message string) {
	writeError(h.logger, w, statusCode, code, message)
}

func writeJSON(logger *slog.Logger, w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode JSON response", slog.Any("error", err))
	}
}

func writeError(logger *slog.Logger, w http.ResponseWriter, statusCode int, code, message string) {
	resp := api.ErrorResponse{
		Error:   http.StatusText(statusCode),
		Code:    code,
		Message: message,
	}
	writeJSON(logger, w, resp, statusCode)
}
