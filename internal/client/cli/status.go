package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pollwatch/devicebind/internal/client/storage"
)

func (c *Cli) runStatus(ctx context.Context) error {
	c.io.Println("=== Status ===")
	c.io.Println()

	isAuth, err := c.auth.IsAuthenticated(ctx)
	if err != nil {
		return fmt.Errorf("failed to check authentication: %w", err)
	}

	if !isAuth {
		c.io.Println("Session: not authenticated")
		c.io.Println()
		c.io.Println("Run 'pollwatch login' to authenticate.")
	} else {
		authData, err := c.auth.GetAuth(ctx)
		if err != nil {
			return fmt.Errorf("failed to get auth data: %w", err)
		}

		expiresAt := time.Unix(authData.ExpiresAt, 0)
		remaining := time.Until(expiresAt)

		c.io.Println("Session: authenticated")
		c.io.Printf("Username: %s\n", authData.Username)
		c.io.Printf("Token expires: %s\n", expiresAt.Format(time.RFC3339))
		if remaining > 0 {
			c.io.Printf("Time remaining: %s\n", remaining.Round(time.Second))
		}
	}

	c.io.Println()

	// Локальный отпечаток устройства
	rec, err := c.device.GetFingerprint(ctx)
	switch {
	case errors.Is(err, storage.ErrDeviceNotFound):
		c.io.Println("Device fingerprint: not computed yet (run 'pollwatch login')")
	case err != nil:
		return fmt.Errorf("failed to get device fingerprint: %w", err)
	default:
		c.io.Printf("Device fingerprint: %s\n", shortDigest(rec.Digest))
		if rec.Fallback {
			c.io.Println("⚠️  Fingerprint is degraded (device signals unavailable)")
		}
		c.io.Printf("Collected at: %s\n", rec.CollectedAt.Format(time.RFC3339))
	}

	// Отправленная заявка на сброс
	reset, err := c.device.GetResetRequest(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrResetNotFound) {
			return nil
		}
		return fmt.Errorf("failed to get reset request: %w", err)
	}

	c.io.Println()
	c.io.Println("Pending device reset request:")
	c.io.Printf("  Request ID: %s\n", reset.RequestID)
	c.io.Printf("  Account:    %s\n", reset.Username)
	c.io.Printf("  Status:     %s\n", reset.Status)
	c.io.Printf("  Submitted:  %s\n", reset.SubmittedAt.Format(time.RFC3339))

	return nil
}
