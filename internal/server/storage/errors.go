package storage

import "errors"

// Common storage errors
var (
	// ErrUserNotFound indicates that user was not found in storage
	ErrUserNotFound = errors.New("user not found")

	// ErrUserAlreadyExists indicates that user with this username already exists
	ErrUserAlreadyExists = errors.New("user already exists")

	// ErrTokenNotFound indicates that refresh token was not found
	ErrTokenNotFound = errors.New("refresh token not found")

	// ErrBindingNotFound indicates that the account has no fingerprint binding yet
	ErrBindingNotFound = errors.New("fingerprint binding not found")

	// ErrResetNotFound indicates that reset request was not found
	ErrResetNotFound = errors.New("reset request not found")

	// ErrResetAlreadyPending indicates that the account already has a pending
	// reset request; a second one is rejected to keep the audit trail unambiguous
	ErrResetAlreadyPending = errors.New("reset request already pending")

	// ErrResetNotPending indicates a resolution attempt on a request that is
	// not in pending state (already approved or denied)
	ErrResetNotPending = errors.New("reset request is not pending")
)
