// Package common defines shared constants and sentinel errors used across
// dropcrate components. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal = errors.New("internal error")

	// ErrValidation marks malformed, oversized or disallowed-type input.
	// The request is rejected and no state changes.
	ErrValidation = errors.New("validation error")

	// ErrNotFoundOrForbidden is returned when a file is absent or owned by
	// another identity. The two cases are merged so callers cannot probe
	// for the existence of other users' files.
	ErrNotFoundOrForbidden = errors.New("file not found or access denied")

	// Auth errors (missing, invalid, malformed or expired token).
	ErrInvalidToken = errors.New("invalid token")
)
