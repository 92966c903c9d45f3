// Package common defines the error taxonomy and constants shared by the
// client and server sides of HomeKeeper. Callers match errors with errors.Is.
package common

import "errors"

var (
	// Remote operation attempted without an established identity.
	ErrUnauthenticated = errors.New("unauthenticated")

	// No backup (or other requested object) exists.
	ErrNotFound = errors.New("not found")

	// Cross-identity access attempt.
	ErrForbidden = errors.New("forbidden")

	// Stored or transported data could not be parsed.
	ErrCorrupted = errors.New("corrupted data")

	// Local medium rejected a write because it is full.
	ErrQuotaExceeded = errors.New("quota exceeded")

	// Remote call failed for network or service reasons.
	ErrTransportFailure = errors.New("transport failure")

	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAlreadyExists      = errors.New("already exists")
	ErrValidation         = errors.New("validation error")
	ErrInternal           = errors.New("internal error")

	// Token lifecycle errors.
	ErrInvalidToken        = errors.New("invalid token")
	ErrTokenExpired        = errors.New("token expired")
	ErrRefreshTokenExpired = errors.New("refresh token expired")

	// Collection-level errors.
	ErrDuplicateRecord    = errors.New("duplicate record id")
	ErrReservedCollection = errors.New("reserved collection name")
)
