package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/pollwatch/devicebind/internal/models"
)

// Helper functions

func setupTestStorage(t *testing.T) (*Storage, func()) {
	ctx := context.Background()

	// Используем in-memory database для тестов
	storage, err := New(ctx, ":memory:")
	require.NoError(t, err)

	cleanup := func() {
		_ = storage.Close()
	}

	return storage, cleanup
}

func createTestUser(t *testing.T, ctx context.Context, s *Storage) string {
	userID := uuid.New().String()
	user := &models.User{
		ID:          userID,
		Username:    "observer_" + userID[:8],
		Email:       "observer@example.org",
		ObserverID:  "OBS-" + userID[:6],
		AuthKeyHash: "hash",
		PublicSalt:  "salt",
		CreatedAt:   time.Now(),
		LastLogin:   nil,
	}

	err := s.CreateUser(ctx, user)
	require.NoError(t, err)

	return userID
}

func createTestBinding(t *testing.T, ctx context.Context, s *Storage, accountID, digest string) {
	err := s.CreateBinding(ctx, &models.FingerprintBinding{
		AccountID:   accountID,
		BoundDigest: digest,
		BoundAt:     time.Now(),
	})
	require.NoError(t, err)
}

func timePtr(t time.Time) *time.Time {
	return &t
}
