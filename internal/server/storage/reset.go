package storage

//go:generate moq -out reset_mock.go . ResetStorage

import (
	"context"
	"time"

	"github.com/pollwatch/devicebind/internal/models"
)

// ResetStorage defines interface for the reset request audit table.
// Записи append-mostly: создаются пользователем, мутируются только
// административным решением и никогда не удаляются.
type ResetStorage interface {
	// CreateResetRequest stores a new pending reset request.
	// Returns ErrResetAlreadyPending if the account already has a pending
	// request; the uniqueness must be enforced by the storage itself
	// (constraint), not by a read-then-write check.
	CreateResetRequest(ctx context.Context, req *models.ResetRequest) error

	// GetResetRequest retrieves a request by ID
	// Returns ErrResetNotFound if it doesn't exist
	GetResetRequest(ctx context.Context, requestID string) (*models.ResetRequest, error)

	// GetPendingResetRequest retrieves the pending request for an account
	// Returns ErrResetNotFound if there is none
	GetPendingResetRequest(ctx context.Context, accountID string) (*models.ResetRequest, error)

	// ListResetRequests returns the audit trail for an account, newest first
	ListResetRequests(ctx context.Context, accountID string) ([]*models.ResetRequest, error)

	// ApproveReset atomically marks a pending request approved and replaces
	// the account's fingerprint binding with the request's candidate digest.
	// Returns ErrResetNotPending if the request was already resolved
	// (including by a concurrent resolution - the loser gets this error).
	ApproveReset(ctx context.Context, requestID, resolvedBy string, resolvedAt time.Time) error

	// DenyReset marks a pending request denied; the binding is untouched.
	// Returns ErrResetNotPending if the request was already resolved.
	DenyReset(ctx context.Context, requestID, resolvedBy string, resolvedAt time.Time) error
}
