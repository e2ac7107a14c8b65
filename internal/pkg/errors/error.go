package xerrors

import "errors"

// Common reusable application errors
var (
	ErrNotFound        = errors.New("resource not found")
	ErrUnauthorized    = errors.New("unauthorized access")
	ErrForbidden       = errors.New("forbidden")
	ErrInvalidInput    = errors.New("invalid input")
	ErrConflict        = errors.New("conflict")
	ErrRateLimited     = errors.New("too many requests")
	ErrUnavailable     = errors.New("service unavailable")
	ErrNotConfigured   = errors.New("not configured")
	ErrInvalidVerifier = errors.New("invalid verification code")
)
