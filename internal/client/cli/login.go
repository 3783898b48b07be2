package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	clientapi "github.com/pollwatch/devicebind/internal/client/api"
	"github.com/pollwatch/devicebind/internal/client/storage"
	"github.com/pollwatch/devicebind/internal/crypto"
	"github.com/pollwatch/devicebind/internal/fingerprint"
	"github.com/pollwatch/devicebind/internal/validation"
	"github.com/pollwatch/devicebind/pkg/api"
)

func (c *Cli) runLogin(ctx context.Context) error {
	c.io.Println("=== Login ===")
	c.io.Println()

	username, err := c.io.ReadInput("Username: ")
	if err != nil {
		return fmt.Errorf("failed to read username: %w", err)
	}
	if err := validation.ValidateUsername(username); err != nil {
		return err
	}

	password, err := c.io.ReadPassword("Password: ")
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}

	saltResp, err := c.apiClient.GetSalt(ctx, username)
	if err != nil {
		return err
	}

	authKey, err := crypto.DeriveAuthKeyFromBase64Salt(password, username, saltResp.PublicSalt)
	if err != nil {
		return fmt.Errorf("failed to derive auth key: %w", err)
	}

	authKeyHash, err := crypto.HashAuthKey(authKey)
	if err != nil {
		return fmt.Errorf("failed to hash auth key: %w", err)
	}

	digest := c.collectFingerprint(ctx)

	c.io.Println()
	c.io.Println("Authenticating...")

	resp, err := c.apiClient.Login(ctx, api.LoginRequest{
		Username:          username,
		AuthKeyHash:       authKeyHash,
		DeviceFingerprint: digest.String(),
	})
	if err != nil {
		if clientapi.IsDeviceMismatch(err) {
			return c.handleMismatch(ctx, username)
		}
		return err
	}

	authData := &storage.AuthData{
		Username:     username,
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		PublicSalt:   saltResp.PublicSalt,
		ExpiresAt:    time.Now().Unix() + resp.ExpiresIn,
	}

	if err := c.auth.SaveAuth(ctx, authData); err != nil {
		return fmt.Errorf("failed to save auth data: %w", err)
	}

	c.io.Println()
	c.io.Println("✓ Login successful!")
	c.io.Printf("Username: %s\n", username)
	c.io.Printf("Access token expires in: %d seconds\n", resp.ExpiresIn)

	if digest.IsFallback() {
		c.io.Println()
		c.io.Println("⚠️  Device signals could not be collected; this session used a")
		c.io.Println("   degraded fingerprint and the device was not bound.")
	}

	return nil
}

// collectFingerprint вычисляет отпечаток устройства и кеширует его локально
func (c *Cli) collectFingerprint(ctx context.Context) fingerprint.Digest {
	fpCtx, cancel := context.WithTimeout(ctx, fingerprint.DefaultComputeTimeout)
	defer cancel()

	digest := fingerprint.Compute(fpCtx, c.signals)

	// Кеш нужен только для показа в status, ошибки не фатальны
	_ = c.device.SaveFingerprint(ctx, &storage.DeviceRecord{
		Digest:      digest.String(),
		Fallback:    digest.IsFallback(),
		CollectedAt: time.Now(),
	})

	return digest
}

// handleMismatch показывает контекст аккаунта и предлагает запросить сброс
func (c *Cli) handleMismatch(ctx context.Context, username string) error {
	c.io.Println()
	c.io.Println("✗ This device does not match the one bound to your account.")

	meta, err := c.apiClient.AccountMeta(ctx, username)
	if err == nil {
		c.io.Println()
		c.io.Printf("Account:     %s\n", meta.Username)
		c.io.Printf("Observer ID: %s\n", meta.ObserverID)
		c.io.Printf("Email:       %s\n", meta.MaskedEmail)
	}

	c.io.Println()
	answer, err := c.io.ReadInput("Request re-binding of the account to this device? [y/N]: ")
	if err != nil {
		return fmt.Errorf("failed to read answer: %w", err)
	}

	if !strings.EqualFold(answer, "y") && !strings.EqualFold(answer, "yes") {
		c.io.Println("Login aborted. Run 'pollwatch reset' later to request re-binding.")
		return nil
	}

	return c.runReset(ctx, username)
}
