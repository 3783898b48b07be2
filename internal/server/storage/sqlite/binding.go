package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/pollwatch/devicebind/internal/models"
	"github.com/pollwatch/devicebind/internal/server/storage"
)

// CreateBinding stores the first fingerprint binding for an account.
// Повторная вставка для того же аккаунта - ошибка: замена привязки
// происходит только через ApproveReset.
func (s *Storage) CreateBinding(ctx context.Context, binding *models.FingerprintBinding) error {
	query := `
		INSERT INTO fingerprint_bindings (account_id, bound_digest, bound_at, last_verified_at)
		VALUES (?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		binding.AccountID,
		binding.BoundDigest,
		binding.BoundAt,
		binding.LastVerifiedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to insert binding: %w", err)
	}

	return nil
}

// GetBinding retrieves the fingerprint binding for an account
func (s *Storage) GetBinding(ctx context.Context, accountID string) (*models.FingerprintBinding, error) {
	query := `
		SELECT account_id, bound_digest, bound_at, last_verified_at
		FROM fingerprint_bindings
		WHERE account_id = ?
	`

	binding := &models.FingerprintBinding{}
	var lastVerified sql.NullTime

	err := s.db.QueryRowContext(ctx, query, accountID).Scan(
		&binding.AccountID,
		&binding.BoundDigest,
		&binding.BoundAt,
		&lastVerified,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrBindingNotFound
		}
		return nil, fmt.Errorf("failed to get binding: %w", err)
	}

	if lastVerified.Valid {
		binding.LastVerifiedAt = &lastVerified.Time
	}

	return binding, nil
}

// TouchBinding updates the last successful verification timestamp
func (s *Storage) TouchBinding(ctx context.Context, accountID string, verifiedAt time.Time) error {
	query := `UPDATE fingerprint_bindings SET last_verified_at = ? WHERE account_id = ?`

	result, err := s.db.ExecContext(ctx, query, verifiedAt, accountID)
	if err != nil {
		return fmt.Errorf("failed to touch binding: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return storage.ErrBindingNotFound
	}

	return nil
}
