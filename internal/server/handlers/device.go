package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/pollwatch/devicebind/internal/fingerprint"
	"github.com/pollwatch/devicebind/internal/server/storage"
	"github.com/pollwatch/devicebind/internal/validation"
	"github.com/pollwatch/devicebind/pkg/api"
)

// DeviceHandler обрабатывает запросы сброса привязки устройства
type DeviceHandler struct {
	logger      *slog.Logger
	userStorage storage.UserStorage
	devices     DeviceService
}

// NewDeviceHandler создает новый handler для device reset workflow
func NewDeviceHandler(logger *slog.Logger, userStorage storage.UserStorage, devices DeviceService) *DeviceHandler {
	return &DeviceHandler{
		logger:      logger,
		userStorage: userStorage,
		devices:     devices,
	}
}

// RequestReset обрабатывает POST /api/v1/device/reset
// Заявка на сброс привязки. Endpoint доступен без токена: пользователь
// с mismatched устройством по определению не может залогиниться.
func (h *DeviceHandler) RequestReset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.DeviceResetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.ErrorContext(ctx, "failed to decode reset request", slog.Any("error", err))
		h.sendError(w, http.StatusBadRequest, "", "invalid request body")
		return
	}

	if err := validation.ValidateUsername(req.Username); err != nil {
		h.sendError(w, http.StatusBadRequest, "", err.Error())
		return
	}
	if req.DeviceFingerprint == "" {
		h.sendError(w, http.StatusBadRequest, "", "device_fingerprint is required")
		return
	}

	user, err := h.userStorage.GetUserByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			h.logger.WarnContext(ctx, "reset requested for unknown user", slog.String("username", req.Username))
			h.sendError(w, http.StatusNotFound, "", "user not found")
			return
		}
		h.logger.ErrorContext(ctx, "failed to get user", slog.Any("error", err))
		h.sendError(w, http.StatusInternalServerError, "", "internal server error")
		return
	}

	reset, err := h.devices.RequestReset(ctx, user, fingerprint.Digest(req.DeviceFingerprint), req.ContactEmail)
	if err != nil {
		if errors.Is(err, storage.ErrResetAlreadyPending) {
			h.logger.WarnContext(ctx, "reset already pending",
				slog.String("username", req.Username),
				slog.String("user_id", user.ID))
			h.sendError(w, http.StatusConflict, api.CodeResetAlreadyPending,
				"a reset request for this account is already awaiting review")
			return
		}
		h.logger.ErrorContext(ctx, "failed to create reset request", slog.Any("error", err))
		h.sendError(w, http.StatusInternalServerError, "", "internal server error")
		return
	}

	h.logger.InfoContext(ctx, "device reset requested",
		slog.String("username", req.Username),
		slog.String("request_id", reset.ID))

	resp := api.DeviceResetResponse{
		RequestID: reset.ID,
		Status:    string(reset.Status),
		Message:   "Reset request submitted; an administrator will review it",
	}

	h.sendJSON(w, resp, http.StatusCreated)
}

// AccountMeta обрабатывает GET /api/v1/accounts/{username}/meta
// Справка для формы сброса: observer ID и замаскированный email, чтобы
// пользователь убедился что сбрасывает свой аккаунт. Отпечаток привязки
// наружу не отдается никогда.
func (h *DeviceHandler) AccountMeta(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	username := r.PathValue("username")
	if err := validation.ValidateUsername(username); err != nil {
		h.sendError(w, http.StatusBadRequest, "", err.Error())
		return
	}

	user, err := h.userStorage.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			h.sendError(w, http.StatusNotFound, "", "user not found")
			return
		}
		h.logger.ErrorContext(ctx, "failed to get user", slog.Any("error", err))
		h.sendError(w, http.StatusInternalServerError, "", "internal server error")
		return
	}

	resp := api.AccountMetaResponse{
		Username:    user.Username,
		ObserverID:  user.ObserverID,
		MaskedEmail: maskEmail(user.Email),
	}

	h.sendJSON(w, resp, http.StatusOK)
}

// ResolveReset обрабатывает POST /api/v1/admin/device-resets/{id}
// Решение администратора по заявке: approve перепривязывает аккаунт к
// отпечатку из заявки, deny возвращает аккаунт в mismatched
func (h *DeviceHandler) ResolveReset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	requestID := r.PathValue("id")
	if requestID == "" {
		h.sendError(w, http.StatusBadRequest, "", "request id is required")
		return
	}

	var req api.ResolveResetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.ErrorContext(ctx, "failed to decode resolve request", slog.Any("error", err))
		h.sendError(w, http.StatusBadRequest, "", "invalid request body")
		return
	}

	if req.Action != "approve" && req.Action != "deny" {
		h.sendError(w, http.StatusBadRequest, "", "action must be approve or deny")
		return
	}
	if req.ResolvedBy == "" {
		h.sendError(w, http.StatusBadRequest, "", "resolved_by is required")
		return
	}

	reset, err := h.devices.ResolveReset(ctx, requestID, req.Action == "approve", req.ResolvedBy)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrResetNotFound):
			h.sendError(w, http.StatusNotFound, "", "reset request not found")
		case errors.Is(err, storage.ErrResetNotPending):
			h.logger.WarnContext(ctx, "reset already resolved", slog.String("request_id", requestID))
			h.sendError(w, http.StatusConflict, api.CodeResetNotPending,
				"reset request has already been resolved")
		default:
			h.logger.ErrorContext(ctx, "failed to resolve reset request", slog.Any("error", err))
			h.sendError(w, http.StatusInternalServerError, "", "internal server error")
		}
		return
	}

	h.logger.InfoContext(ctx, "device reset resolved",
		slog.String("request_id", requestID),
		slog.String("action", req.Action),
		slog.String("resolved_by", req.ResolvedBy))

	resp := api.ResolveResetResponse{
		RequestID: reset.ID,
		Status:    string(reset.Status),
	}

	h.sendJSON(w, resp, http.StatusOK)
}

// maskEmail скрывает local part email'а: "observer@example.org" -> "o******@example.org"
func maskEmail(email string) string {
	at := strings.LastIndex(email, "@")
	if at <= 0 {
		return ""
	}
	local := email[:at]
	if len(local) == 1 {
		return "*" + email[at:]
	}
	return local[:1] + strings.Repeat("*", len(local)-1) + email[at:]
}

func (h *DeviceHandler) sendJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	writeJSON(h.logger, w, data, statusCode)
}

func (h *DeviceHandler) sendError(w http.ResponseWriter, statusCode int, code, message string) {
	writeError(h.logger, w, statusCode, code, message)
}
