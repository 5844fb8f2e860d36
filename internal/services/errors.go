package services

import "errors"

// Error kinds surfaced by the service layer. Handlers translate these to
// HTTP status codes; anything unwrapped is treated as a persistence error.
var (
	// ErrNotFound covers both "does not exist" and "not owned by the
	// caller" so that a non-owner cannot distinguish the two cases.
	ErrNotFound = errors.New("not found")

	// ErrValidation marks malformed or missing input.
	ErrValidation = errors.New("invalid input")

	// ErrUnauthorized marks a failed credential or token check.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrDuplicateEmail marks a registration attempt for an email that
	// already has an account.
	ErrDuplicateEmail = errors.New("user already exists")
)
