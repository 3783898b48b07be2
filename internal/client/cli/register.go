package cli

import (
	"context"
	"fmt"

	"github.com/pollwatch/devicebind/internal/crypto"
	"github.com/pollwatch/devicebind/internal/validation"
	"github.com/pollwatch/devicebind/pkg/api"
)

func (c *Cli) runRegister(ctx context.Context) error {
	c.io.Println("=== Registration ===")
	c.io.Println()

	username, err := c.io.ReadInput("Username: ")
	if err != nil {
		return fmt.Errorf("failed to read username: %w", err)
	}
	if err := validation.ValidateUsername(username); err != nil {
		return err
	}

	email, err := c.io.ReadInput("Email: ")
	if err != nil {
		return fmt.Errorf("failed to read email: %w", err)
	}
	if email == "" {
		return fmt.Errorf("email is required")
	}

	password, err := c.io.ReadPassword("Password (min 12 chars): ")
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}
	if err := validation.ValidatePassword(password); err != nil {
		return err
	}

	confirm, err := c.io.ReadPassword("Confirm password: ")
	if err != nil {
		return fmt.Errorf("failed to read confirmation: %w", err)
	}
	if password != confirm {
		return fmt.Errorf("passwords do not match")
	}

	// Соль генерируется клиентом и хранится на сервере открыто
	saltB64, err := crypto.GenerateSaltBase64()
	if err != nil {
		return fmt.Errorf("failed to generate salt: %w", err)
	}

	authKey, err := crypto.DeriveAuthKeyFromBase64Salt(password, username, saltB64)
	if err != nil {
		return fmt.Errorf("failed to derive auth key: %w", err)
	}

	authKeyHash, err := crypto.HashAuthKey(authKey)
	if err != nil {
		return fmt.Errorf("failed to hash auth key: %w", err)
	}

	c.io.Println()
	c.io.Println("Registering observer...")

	resp, err := c.apiClient.Register(ctx, api.RegisterRequest{
		Username:    username,
		Email:       email,
		AuthKeyHash: authKeyHash,
		PublicSalt:  saltB64,
	})
	if err != nil {
		return err
	}

	c.io.Println()
	c.io.Println("✓ Registration successful!")
	c.io.Printf("Observer ID: %s\n", resp.ObserverID)
	c.io.Printf("User ID:     %s\n", resp.UserID)
	c.io.Println()
	c.io.Println("The first device you log in from will become bound to this account.")
	c.io.Println("Run 'pollwatch login' from your work device.")

	return nil
}
