package cli

import (
	"context"
	"fmt"
	"time"

	clientapi "github.com/pollwatch/devicebind/internal/client/api"
	"github.com/pollwatch/devicebind/internal/client/storage"
	"github.com/pollwatch/devicebind/internal/validation"
	"github.com/pollwatch/devicebind/pkg/api"
)

// runReset отправляет заявку на перепривязку аккаунта к текущему устройству.
// username может быть пустым - тогда он запрашивается интерактивно.
func (c *Cli) runReset(ctx context.Context, username string) error {
	c.io.Println("=== Device Reset Request ===")
	c.io.Println()

	if username == "" {
		var err error
		username, err = c.io.ReadInput("Username: ")
		if err != nil {
			return fmt.Errorf("failed to read username: %w", err)
		}
	}
	if err := validation.ValidateUsername(username); err != nil {
		return err
	}

	meta, err := c.apiClient.AccountMeta(ctx, username)
	if err != nil {
		return err
	}

	c.io.Printf("Account:     %s\n", meta.Username)
	c.io.Printf("Observer ID: %s\n", meta.ObserverID)
	c.io.Printf("Email:       %s\n", meta.MaskedEmail)
	c.io.Println()

	contactEmail, err := c.io.ReadInput("Contact email (empty = account email): ")
	if err != nil {
		return fmt.Errorf("failed to read email: %w", err)
	}

	digest := c.collectFingerprint(ctx)
	if digest.IsFallback() {
		c.io.Println()
		c.io.Println("⚠️  Device signals could not be collected fully. The request will")
		c.io.Println("   carry a degraded fingerprint; you may need to repeat it later.")
	}

	c.io.Println()
	c.io.Println("Submitting reset request...")

	resp, err := c.apiClient.RequestDeviceReset(ctx, api.DeviceResetRequest{
		Username:          username,
		ContactEmail:      contactEmail,
		DeviceFingerprint: digest.String(),
	})
	if err != nil {
		if clientapi.IsResetAlreadyPending(err) {
			c.io.Println()
			c.io.Println("A reset request for this account is already awaiting review.")
			c.io.Println("Wait for an administrator decision before submitting another one.")
			return nil
		}
		return err
	}

	// Запоминаем заявку локально для команды status
	_ = c.device.SaveResetRequest(ctx, &storage.ResetRecord{
		RequestID:   resp.RequestID,
		Username:    username,
		Status:      resp.Status,
		SubmittedAt: time.Now(),
	})

	c.io.Println()
	c.io.Println("✓ Reset request submitted!")
	c.io.Printf("Request ID: %s\n", resp.RequestID)
	c.io.Printf("Status:     %s\n", resp.Status)
	c.io.Println()
	c.io.Println("An administrator will review the request. A confirmation email has")
	c.io.Println("been sent to the contact address. You will be able to log in from")
	c.io.Println("this device once the request is approved.")

	return nil
}
