package domain

import "errors"

// Errors shared by the services and the guard. Token errors live in jwtx.
var (
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrTooManyAttempts    = errors.New("too_many_attempts")
	ErrUserNotFound       = errors.New("user_not_found")
	ErrPermissionDenied   = errors.New("permission_denied")
	ErrValidation         = errors.New("validation_error")
	ErrNoSession          = errors.New("no_session")
)
