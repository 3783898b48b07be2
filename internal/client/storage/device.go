package storage

import (
	"context"
	"time"
)

// DeviceStorage defines interface for caching the local device fingerprint
// and tracking the last submitted reset request.
type DeviceStorage interface {
	// SaveFingerprint stores the last computed device fingerprint
	SaveFingerprint(ctx context.Context, rec *DeviceRecord) error

	// GetFingerprint retrieves the cached device fingerprint
	// Returns ErrDeviceNotFound if nothing is cached
	GetFingerprint(ctx context.Context) (*DeviceRecord, error)

	// SaveResetRequest stores info about a submitted reset request
	SaveResetRequest(ctx context.Context, rec *ResetRecord) error

	// GetResetRequest retrieves the last submitted reset request
	// Returns ErrResetNotFound if no request was tracked
	GetResetRequest(ctx context.Context) (*ResetRecord, error)

	// DeleteResetRequest clears the tracked reset request
	DeleteResetRequest(ctx context.Context) error
}

// DeviceRecord - кешированный отпечаток устройства.
// Отпечаток детерминирован, кеш нужен чтобы показать его в `status`
// и не пересчитывать raster на каждый запрос.
type DeviceRecord struct {
	Digest      string    `json:"digest"`
	Fallback    bool      `json:"fallback"` // деградированный отпечаток, не привязывается
	CollectedAt time.Time `json:"collected_at"`
}

// ResetRecord - локальная отметка об отправленной заявке на сброс
type ResetRecord struct {
	RequestID   string    `json:"request_id"`
	Username    string    `json:"username"`
	Status      string    `json:"status"`
	SubmittedAt time.Time `json:"submitted_at"`
}
