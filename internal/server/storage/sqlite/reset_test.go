package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pollwatch/devicebind/internal/models"
	"github.com/pollwatch/devicebind/internal/server/storage"
)

func newPendingRequest(accountID, candidate string) *models.ResetRequest {
	return &models.ResetRequest{
		ID:              uuid.New().String(),
		AccountID:       accountID,
		CandidateDigest: candidate,
		ContactEmail:    "observer@example.org",
		RequestedAt:     time.Now(),
		Status:          models.ResetPending,
	}
}

func TestResetStorage_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	accountID := createTestUser(t, ctx, s)
	req := newPendingRequest(accountID, "candidate-digest")

	err := s.CreateResetRequest(ctx, req)
	require.NoError(t, err)

	retrieved, err := s.GetResetRequest(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, req.ID, retrieved.ID)
	assert.Equal(t, accountID, retrieved.AccountID)
	assert.Equal(t, "candidate-digest", retrieved.CandidateDigest)
	assert.Equal(t, models.ResetPending, retrieved.Status)
	assert.Nil(t, retrieved.ResolvedAt)

	pending, err := s.GetPendingResetRequest(ctx, accountID)
	require.NoError(t, err)
	assert.Equal(t, req.ID, pending.ID)
}

func TestResetStorage_SecondPendingRejected(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	accountID := createTestUser(t, ctx, s)

	err := s.CreateResetRequest(ctx, newPendingRequest(accountID, "first"))
	require.NoError(t, err)

	// Инвариант держит частичный уникальный индекс, не прикладной код
	err = s.CreateResetRequest(ctx, newPendingRequest(accountID, "second"))
	assert.ErrorIs(t, err, storage.ErrResetAlreadyPending)

	// В журнале ровно одна строка
	requests, err := s.ListResetRequests(ctx, accountID)
	require.NoError(t, err)
	assert.Len(t, requests, 1)
}

func TestResetStorage_PendingAllowedAfterResolution(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	accountID := createTestUser(t, ctx, s)
	first := newPendingRequest(accountID, "first")
	require.NoError(t, s.CreateResetRequest(ctx, first))
	require.NoError(t, s.DenyReset(ctx, first.ID, "admin1", time.Now()))

	// После закрытия запроса новый pending снова возможен
	err := s.CreateResetRequest(ctx, newPendingRequest(accountID, "second"))
	require.NoError(t, err)

	requests, err := s.ListResetRequests(ctx, accountID)
	require.NoError(t, err)
	assert.Len(t, requests, 2, "denied request is kept for audit")
}

func TestResetStorage_ApproveReset_ReplacesBinding(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	accountID := createTestUser(t, ctx, s)
	createTestBinding(t, ctx, s, accountID, "old-digest")

	req := newPendingRequest(accountID, "xyz789digest")
	require.NoError(t, s.CreateResetRequest(ctx, req))

	resolvedAt := time.Now().Truncate(time.Second)
	err := s.ApproveReset(ctx, req.ID, "admin1", resolvedAt)
	require.NoError(t, err)

	// Привязка заменена на кандидата из запроса
	binding, err := s.GetBinding(ctx, accountID)
	require.NoError(t, err)
	assert.Equal(t, "xyz789digest", binding.BoundDigest)
	assert.Nil(t, binding.LastVerifiedAt)

	// Запрос закрыт с аудитом
	resolved, err := s.GetResetRequest(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ResetApproved, resolved.Status)
	assert.Equal(t, "admin1", resolved.ResolvedBy)
	require.NotNil(t, resolved.ResolvedAt)
}

func TestResetStorage_ApproveReset_UnboundAccount(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	// Запрос сброса у еще непривязанного аккаунта: approve создает привязку
	accountID := createTestUser(t, ctx, s)
	req := newPendingRequest(accountID, "fresh-digest")
	require.NoError(t, s.CreateResetRequest(ctx, req))

	require.NoError(t, s.ApproveReset(ctx, req.ID, "admin1", time.Now()))

	binding, err := s.GetBinding(ctx, accountID)
	require.NoError(t, err)
	assert.Equal(t, "fresh-digest", binding.BoundDigest)
}

func TestResetStorage_ResolveTwiceFails(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	accountID := createTestUser(t, ctx, s)
	createTestBinding(t, ctx, s, accountID, "old-digest")

	req := newPendingRequest(accountID, "candidate")
	require.NoError(t, s.CreateResetRequest(ctx, req))
	require.NoError(t, s.ApproveReset(ctx, req.ID, "admin1", time.Now()))

	// Повторное решение по закрытому запросу отклоняется
	err := s.ApproveReset(ctx, req.ID, "admin2", time.Now())
	assert.ErrorIs(t, err, storage.ErrResetNotPending)

	err = s.DenyReset(ctx, req.ID, "admin2", time.Now())
	assert.ErrorIs(t, err, storage.ErrResetNotPending)

	// Проигравший не перезаписал привязку
	binding, err := s.GetBinding(ctx, accountID)
	require.NoError(t, err)
	assert.Equal(t, "candidate", binding.BoundDigest)
	resolved, err := s.GetResetRequest(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, "admin1", resolved.ResolvedBy)
}

func TestResetStorage_DenyReset_KeepsBinding(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	accountID := createTestUser(t, ctx, s)
	createTestBinding(t, ctx, s, accountID, "old-digest")

	req := newPendingRequest(accountID, "attacker-digest")
	require.NoError(t, s.CreateResetRequest(ctx, req))

	require.NoError(t, s.DenyReset(ctx, req.ID, "admin1", time.Now()))

	binding, err := s.GetBinding(ctx, accountID)
	require.NoError(t, err)
	assert.Equal(t, "old-digest", binding.BoundDigest, "denial must not touch the binding")

	resolved, err := s.GetResetRequest(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ResetDenied, resolved.Status)
}

func TestResetStorage_ResolveUnknownRequest(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	err := s.ApproveReset(ctx, "nonexistent", "admin1", time.Now())
	assert.ErrorIs(t, err, storage.ErrResetNotFound)

	err = s.DenyReset(ctx, "nonexistent", "admin1", time.Now())
	assert.ErrorIs(t, err, storage.ErrResetNotFound)
}
