package storage

//go:generate moq -out binding_mock.go . BindingStorage

import (
	"context"
	"time"

	"github.com/pollwatch/devicebind/internal/models"
)

// BindingStorage defines interface for fingerprint binding persistence.
// Каждый аккаунт имеет не более одной привязки; замена происходит только
// через ApproveReset в ResetStorage (единственный writer замен).
type BindingStorage interface {
	// CreateBinding stores the first binding for an account.
	// Called on the first successful login from an unbound device.
	CreateBinding(ctx context.Context, binding *models.FingerprintBinding) error

	// GetBinding retrieves the binding for an account
	// Returns ErrBindingNotFound if the account is unbound
	GetBinding(ctx context.Context, accountID string) (*models.FingerprintBinding, error)

	// TouchBinding updates the last successful verification timestamp
	TouchBinding(ctx context.Context, accountID string, verifiedAt time.Time) error
}
