// Package common defines shared constants and sentinel errors used across
// the server layers of tact0. Callers should use errors.Is to match these
// values.
package common

import "errors"

var (
	// Startup errors. A process must not serve traffic after one of these.
	ErrConfiguration = errors.New("configuration error")

	// Repository-level errors.
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")

	// Service-level errors.
	ErrInternal           = errors.New("internal error")
	ErrValidation         = errors.New("validation error")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")

	// Auth errors (invalid, malformed or expired token; never distinguished).
	ErrInvalidToken = errors.New("invalid token")

	// Engine relay errors.
	ErrMisconfigured   = errors.New("engine is not configured")
	ErrInvalidResponse = errors.New("invalid engine response")
)
