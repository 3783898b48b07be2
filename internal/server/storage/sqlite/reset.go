package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pollwatch/devicebind/internal/models"
	"github.com/pollwatch/devicebind/internal/server/storage"
)

const resetColumns = `id, account_id, candidate_digest, contact_email, requested_at, status, resolved_at, resolved_by`

// CreateResetRequest stores a new pending reset request. The partial
// unique index on (account_id) WHERE status = 'pending' rejects a second
// pending request at the database level.
func (s *Storage) CreateResetRequest(ctx context.Context, req *models.ResetRequest) error {
	query := `
		INSERT INTO reset_requests (id, account_id, candidate_digest, contact_email, requested_at, status, resolved_at, resolved_by)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		req.ID,
		req.AccountID,
		req.CandidateDigest,
		req.ContactEmail,
		req.RequestedAt,
		req.Status,
		req.ResolvedAt,
		req.ResolvedBy,
	)

	if err != nil {
		// Частичный уникальный индекс: уже есть pending запрос
		if strings.Contains(err.Error(), "UNIQUE constraint failed: reset_requests.account_id") {
			return storage.ErrResetAlreadyPending
		}
		return fmt.Errorf("failed to insert reset request: %w", err)
	}

	return nil
}

// GetResetRequest retrieves a reset request by ID
func (s *Storage) GetResetRequest(ctx context.Context, requestID string) (*models.ResetRequest, error) {
	query := `SELECT ` + resetColumns + ` FROM reset_requests WHERE id = ?`
	return s.scanReset(s.db.QueryRowContext(ctx, query, requestID))
}

// GetPendingResetRequest retrieves the pending reset request for an account
func (s *Storage) GetPendingResetRequest(ctx context.Context, accountID string) (*models.ResetRequest, error) {
	query := `SELECT ` + resetColumns + ` FROM reset_requests WHERE account_id = ? AND status = 'pending'`
	return s.scanReset(s.db.QueryRowContext(ctx, query, accountID))
}

// ListResetRequests returns the audit trail for an account, newest first
func (s *Storage) ListResetRequests(ctx context.Context, accountID string) ([]*models.ResetRequest, error) {
	query := `
		SELECT ` + resetColumns + `
		FROM reset_requests
		WHERE account_id = ?
		ORDER BY requested_at DESC
	`

	rows, err := s.db.QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to query reset requests: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var requests []*models.ResetRequest
	for rows.Next() {
		req, err := s.scanResetRow(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate reset requests: %w", err)
	}

	return requests, nil
}

// ApproveReset atomically marks a pending request approved and replaces
// the account's fingerprint binding with the request's candidate digest.
// Два конкурентных approve для одного аккаунта сериализуются: проигравший
// увидит rows=0 на conditional UPDATE и получит ErrResetNotPending.
func (s *Storage) ApproveReset(ctx context.Context, requestID, resolvedBy string, resolvedAt time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var accountID, candidateDigest string
	err = tx.QueryRowContext(ctx,
		`SELECT account_id, candidate_digest FROM reset_requests WHERE id = ?`,
		requestID,
	).Scan(&accountID, &candidateDigest)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.ErrResetNotFound
		}
		return fmt.Errorf("failed to load reset request: %w", err)
	}

	if err := resolvePending(ctx, tx, requestID, models.ResetApproved, resolvedBy, resolvedAt); err != nil {
		return err
	}

	// Замена привязки целиком: новый дайджест, новый момент привязки,
	// счетчик верификаций обнуляется
	_, err = tx.ExecContext(ctx, `
		INSERT INTO fingerprint_bindings (account_id, bound_digest, bound_at, last_verified_at)
		VALUES (?, ?, ?, NULL)
		ON CONFLICT(account_id) DO UPDATE SET
			bound_digest = excluded.bound_digest,
			bound_at = excluded.bound_at,
			last_verified_at = NULL
	`, accountID, candidateDigest, resolvedAt)
	if err != nil {
		return fmt.Errorf("failed to replace binding: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit reset approval: %w", err)
	}

	return nil
}

// DenyReset marks a pending request denied; the binding is untouched.
func (s *Storage) DenyReset(ctx context.Context, requestID, resolvedBy string, resolvedAt time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var exists int
	err = tx.QueryRowContext(ctx,
		`SELECT 1 FROM reset_requests WHERE id = ?`, requestID,
	).Scan(&exists)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.ErrResetNotFound
		}
		return fmt.Errorf("failed to load reset request: %w", err)
	}

	if err := resolvePending(ctx, tx, requestID, models.ResetDenied, resolvedBy, resolvedAt); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit reset denial: %w", err)
	}

	return nil
}

// resolvePending flips a request out of pending. rows=0 means the request
// was already resolved, possibly by a concurrent administrator.
func resolvePending(ctx context.Context, tx *sql.Tx, requestID string, status models.ResetStatus, resolvedBy string, resolvedAt time.Time) error {
	result, err := tx.ExecContext(ctx, `
		UPDATE reset_requests
		SET status = ?, resolved_at = ?, resolved_by = ?
		WHERE id = ? AND status = 'pending'
	`, status, resolvedAt, resolvedBy, requestID)
	if err != nil {
		return fmt.Errorf("failed to resolve reset request: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return storage.ErrResetNotPending
	}

	return nil
}

func (s *Storage) scanReset(row *sql.Row) (*models.ResetRequest, error) {
	req := &models.ResetRequest{}
	var resolvedAt sql.NullTime

	err := row.Scan(
		&req.ID,
		&req.AccountID,
		&req.CandidateDigest,
		&req.ContactEmail,
		&req.RequestedAt,
		&req.Status,
		&resolvedAt,
		&req.ResolvedBy,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrResetNotFound
		}
		return nil, fmt.Errorf("failed to get reset request: %w", err)
	}

	if resolvedAt.Valid {
		req.ResolvedAt = &resolvedAt.Time
	}

	return req, nil
}

func (s *Storage) scanResetRow(rows *sql.Rows) (*models.ResetRequest, error) {
	req := &models.ResetRequest{}
	var resolvedAt sql.NullTime

	err := rows.Scan(
		&req.ID,
		&req.AccountID,
		&req.CandidateDigest,
		&req.ContactEmail,
		&req.RequestedAt,
		&req.Status,
		&resolvedAt,
		&req.ResolvedBy,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan reset request: %w", err)
	}

	if resolvedAt.Valid {
		req.ResolvedAt = &resolvedAt.Time
	}

	return req, nil
}
