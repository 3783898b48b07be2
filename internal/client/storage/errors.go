package storage

import "errors"

// Common client storage errors
var (
	// ErrAuthNotFound indicates that no authentication data exists
	ErrAuthNotFound = errors.New("authentication data not found")

	// ErrDeviceNotFound indicates that no cached device fingerprint exists
	ErrDeviceNotFound = errors.New("device fingerprint not found")

	// ErrResetNotFound indicates that no tracked reset request exists
	ErrResetNotFound = errors.New("reset request not found")

	// ErrStorageClosed indicates that storage is closed
	ErrStorageClosed = errors.New("storage is closed")
)
