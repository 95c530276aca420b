package shared

import "errors"

var (
	// ErrNotFound indicates the resource is absent or not owned by the requester.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate indicates a uniqueness conflict, e.g. signup with a known email.
	ErrDuplicate = errors.New("duplicate entry")
	// ErrValidation indicates missing or malformed input fields.
	ErrValidation = errors.New("validation failed")
	// ErrInvalidCredentials indicates login failure; unknown email and wrong
	// password deliberately collapse into this single outcome.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnauthorized indicates a missing, malformed, or expired token.
	ErrUnauthorized = errors.New("unauthorized")
)
