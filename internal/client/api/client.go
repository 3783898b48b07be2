package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pollwatch/devicebind/pkg/api"
)

// APIError - ошибка уровня API с машинным кодом от сервера.
// Клиент ветвится по Code: DEVICE_MISMATCH уводит в сценарий сброса,
// RESET_ALREADY_PENDING означает "ждите решения администратора".
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("server error (%d, %s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("server error (%d): %s", e.StatusCode, e.Message)
}

// IsDeviceMismatch проверяет, что ошибка - отказ по несовпадению устройства
func IsDeviceMismatch(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == api.CodeDeviceMismatch
}

// IsResetAlreadyPending проверяет, что по аккаунту уже есть pending запрос
func IsResetAlreadyPending(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == api.CodeResetAlreadyPending
}

// IsInvalidCredentials проверяет, что сервер отверг логин/пароль
func IsInvalidCredentials(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == api.CodeInvalidCredentials
}

// Client представляет HTTP клиент для взаимодействия с сервером
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient создает новый API клиент
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return fmt.Errorf("stopped after 10 redirects")
				}
				// Копируем заголовки Authorization при редиректе
				if len(via) > 0 && via[0].Header.Get("Authorization") != "" {
					req.Header.Set("Authorization", via[0].Header.Get("Authorization"))
				}
				return nil
			},
		},
	}
}

// Register регистрирует нового наблюдателя
func (c *Client) Register(ctx context.Context, req api.RegisterRequest) (*api.RegisterResponse, error) {
	var resp api.RegisterResponse
	err := c.doRequest(ctx, http.MethodPost, "/api/v1/auth/register", req, &resp, "")
	if err != nil {
		return nil, fmt.Errorf("register request failed: %w", err)
	}
	return &resp, nil
}

// GetSalt получает public_salt пользователя
func (c *Client) GetSalt(ctx context.Context, username string) (*api.SaltResponse, error) {
	var resp api.SaltResponse
	url := fmt.Sprintf("/api/v1/auth/salt/%s", username)
	err := c.doRequest(ctx, http.MethodGet, url, nil, &resp, "")
	if err != nil {
		return nil, fmt.Errorf("get salt request failed: %w", err)
	}
	return &resp, nil
}

// Login выполняет аутентификацию. При несовпадении устройства ошибка
// пройдет проверку IsDeviceMismatch.
func (c *Client) Login(ctx context.Context, req api.LoginRequest) (*api.TokenResponse, error) {
	var resp api.TokenResponse
	err := c.doRequest(ctx, http.MethodPost, "/api/v1/auth/login", req, &resp, "")
	if err != nil {
		return nil, fmt.Errorf("login request failed: %w", err)
	}
	return &resp, nil
}

// Refresh обновляет пару токенов по refresh token
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*api.TokenResponse, error) {
	var resp api.TokenResponse
	err := c.doRequest(ctx, http.MethodPost, "/api/v1/auth/refresh", nil, &resp, refreshToken)
	if err != nil {
		return nil, fmt.Errorf("refresh request failed: %w", err)
	}
	return &resp, nil
}

// Logout завершает сессию на сервере
func (c *Client) Logout(ctx context.Context, accessToken string) error {
	err := c.doRequest(ctx, http.MethodPost, "/api/v1/auth/logout", nil, nil, accessToken)
	if err != nil {
		return fmt.Errorf("logout request failed: %w", err)
	}
	return nil
}

// RequestDeviceReset отправляет заявку на перепривязку устройства
func (c *Client) RequestDeviceReset(ctx context.Context, req api.DeviceResetRequest) (*api.DeviceResetResponse, error) {
	var resp api.DeviceResetResponse
	err := c.doRequest(ctx, http.MethodPost, "/api/v1/device/reset", req, &resp, "")
	if err != nil {
		return nil, fmt.Errorf("device reset request failed: %w", err)
	}
	return &resp, nil
}

// AccountMeta получает несекретные метаданные аккаунта для экрана сброса
func (c *Client) AccountMeta(ctx context.Context, username string) (*api.AccountMetaResponse, error) {
	var resp api.AccountMetaResponse
	url := fmt.Sprintf("/api/v1/accounts/%s/meta", username)
	err := c.doRequest(ctx, http.MethodGet, url, nil, &resp, "")
	if err != nil {
		return nil, fmt.Errorf("account meta request failed: %w", err)
	}
	return &resp, nil
}

// doRequest выполняет HTTP запрос
func (c *Client) doRequest(ctx context.Context, method, path string, body, result interface{}, token string) error {
	url := c.baseURL + path

	var bodyReader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp api.ErrorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil && (errResp.Message != "" || errResp.Code != "") {
			return &APIError{
				StatusCode: resp.StatusCode,
				Code:       errResp.Code,
				Message:    errResp.Message,
			}
		}
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(respBody),
		}
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}
