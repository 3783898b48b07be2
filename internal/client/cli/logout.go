package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/pollwatch/devicebind/internal/client/storage"
)

func (c *Cli) runLogout(ctx context.Context) error {
	c.io.Println("=== Logout ===")

	authData, err := c.auth.GetAuth(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrAuthNotFound) {
			c.io.Println("Not authenticated, nothing to do.")
			return nil
		}
		return fmt.Errorf("failed to get auth data: %w", err)
	}

	// Серверный logout best-effort: локальную сессию чистим в любом случае
	if err := c.apiClient.Logout(ctx, authData.AccessToken); err != nil {
		c.io.Printf("Warning: server logout failed: %v\n", err)
	}

	if err := c.auth.DeleteAuth(ctx); err != nil && !errors.Is(err, storage.ErrAuthNotFound) {
		return fmt.Errorf("failed to delete local session: %w", err)
	}

	c.io.Println("✓ Logout successful!")
	c.io.Println("Your local session has been deleted.")

	return nil
}
