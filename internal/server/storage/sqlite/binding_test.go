package sqlite

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pollwatch/devicebind/internal/models"
	"github.com/pollwatch/devicebind/internal/server/storage"
)

func TestBindingStorage_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	accountID := createTestUser(t, ctx, s)
	digest := strings.Repeat("ab12", 16)

	boundAt := time.Now().Truncate(time.Second)
	err := s.CreateBinding(ctx, &models.FingerprintBinding{
		AccountID:   accountID,
		BoundDigest: digest,
		BoundAt:     boundAt,
	})
	require.NoError(t, err)

	binding, err := s.GetBinding(ctx, accountID)
	require.NoError(t, err)
	assert.Equal(t, accountID, binding.AccountID)
	assert.Equal(t, digest, binding.BoundDigest)
	assert.WithinDuration(t, boundAt, binding.BoundAt, time.Second)
	assert.Nil(t, binding.LastVerifiedAt)
}

func TestBindingStorage_GetBinding_NotFound(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	accountID := createTestUser(t, ctx, s)

	_, err := s.GetBinding(ctx, accountID)
	assert.ErrorIs(t, err, storage.ErrBindingNotFound)
}

func TestBindingStorage_CreateBinding_SecondInsertFails(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	accountID := createTestUser(t, ctx, s)
	createTestBinding(t, ctx, s, accountID, "digest-one")

	// Ровно одна привязка на аккаунт: прямой повторный INSERT запрещен
	err := s.CreateBinding(ctx, &models.FingerprintBinding{
		AccountID:   accountID,
		BoundDigest: "digest-two",
		BoundAt:     time.Now(),
	})
	require.Error(t, err)

	binding, err := s.GetBinding(ctx, accountID)
	require.NoError(t, err)
	assert.Equal(t, "digest-one", binding.BoundDigest)
}

func TestBindingStorage_TouchBinding(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	accountID := createTestUser(t, ctx, s)
	createTestBinding(t, ctx, s, accountID, "digest")

	verifiedAt := time.Now().Truncate(time.Second)
	err := s.TouchBinding(ctx, accountID, verifiedAt)
	require.NoError(t, err)

	binding, err := s.GetBinding(ctx, accountID)
	require.NoError(t, err)
	require.NotNil(t, binding.LastVerifiedAt)
	assert.WithinDuration(t, verifiedAt, *binding.LastVerifiedAt, time.Second)

	err = s.TouchBinding(ctx, "nonexistent", verifiedAt)
	assert.ErrorIs(t, err, storage.ErrBindingNotFound)
}
