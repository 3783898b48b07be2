package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/pollwatch/devicebind/internal/models"
)

const defaultSendGridURL = "https://api.sendgrid.com/v3/mail/send"

// EmailNotifier отправляет уведомления о запросе сброса через SendGrid.
// Пользователь в этот момент не может войти, поэтому email - единственный
// канал подтвердить, что заявка принята.
type EmailNotifier struct {
	logger      *slog.Logger
	client      *http.Client
	url         string
	apiKey      string
	senderEmail string
	senderName  string
}

// NewEmailNotifier создает notifier с SendGrid API ключом
func NewEmailNotifier(logger *slog.Logger, apiKey, senderEmail string) *EmailNotifier {
	return &EmailNotifier{
		logger:      logger,
		client:      &http.Client{Timeout: 15 * time.Second},
		url:         defaultSendGridURL,
		apiKey:      apiKey,
		senderEmail: senderEmail,
		senderName:  "PollWatch Support",
	}
}

// SendGrid request format
type sgEmail struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type sgContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type sgPersonalization struct {
	To []sgEmail `json:"to"`
}

type sgRequest struct {
	Personalizations []sgPersonalization `json:"personalizations"`
	From             sgEmail             `json:"from"`
	Subject          string              `json:"subject"`
	Content          []sgContent         `json:"content"`
}

// NotifyResetRequested реализует binding.Notifier
func (n *EmailNotifier) NotifyResetRequested(ctx context.Context, email string, reset *models.ResetRequest) error {
	body := sgRequest{
		Personalizations: []sgPersonalization{
			{To: []sgEmail{{Email: email}}},
		},
		From: sgEmail{
			Email: n.senderEmail,
			Name:  n.senderName,
		},
		Subject: "Device reset request received",
		Content: []sgContent{
			{
				Type: "text/plain",
				Value: fmt.Sprintf(
					"We received a request to re-bind your PollWatch account to a new device.\n\n"+
						"Request ID: %s\nSubmitted at: %s\n\n"+
						"An administrator will review the request. You will not be able to log in "+
						"from the new device until it is approved.\n\n"+
						"If you did not submit this request, contact your election headquarters immediately.",
					reset.ID,
					reset.RequestedAt.Format(time.RFC1123),
				),
			},
		},
	}

	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal sendgrid request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("failed to create sendgrid request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+n.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("sendgrid request failed: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			n.logger.Warn("failed to close sendgrid response body", "error", cerr)
		}
	}()

	// SendGrid отвечает 202 при успехе
	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("sendgrid error: status=%d body=%s", resp.StatusCode, respBody)
	}

	n.logger.Info("reset notification sent",
		slog.String("request_id", reset.ID))

	return nil
}

// LogNotifier пишет уведомление в лог вместо отправки почты.
// Используется в dev-окружении и когда SendGrid ключ не задан.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier создает log-only notifier
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// NotifyResetRequested реализует binding.Notifier
func (n *LogNotifier) NotifyResetRequested(ctx context.Context, email string, reset *models.ResetRequest) error {
	n.logger.InfoContext(ctx, "device reset requested (email delivery disabled)",
		slog.String("request_id", reset.ID),
		slog.String("contact_email", email))
	return nil
}
