package guard

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/aussiebroadwan/epicevents/internal/auth/domain"
	"github.com/aussiebroadwan/epicevents/pkg/jwtx"
)

// Kind is the user facing category of a failure.
type Kind int

const (
	KindUnexpected Kind = iota
	KindInvalidCredentials
	KindExpiredToken
	KindInvalidToken
	KindUserNotFound
	KindPermissionDenied
	KindValidation
)

func (k Kind) String() string {
	switch k {
	case KindInvalidCredentials:
		return "invalid_credentials"
	case KindExpiredToken:
		return "expired_token"
	case KindInvalidToken:
		return "invalid_token"
	case KindUserNotFound:
		return "user_not_found"
	case KindPermissionDenied:
		return "permission_denied"
	case KindValidation:
		return "validation_error"
	default:
		return "unexpected"
	}
}

// RequiresLogin reports whether the caller has to log in again to recover.
func (k Kind) RequiresLogin() bool {
	return k == KindExpiredToken || k == KindInvalidToken || k == KindUserNotFound
}

// Expected reports whether the failure is part of normal operation and so
// stays out of error reporting.
func (k Kind) Expected() bool { return k != KindUnexpected }

// Error is what a guarded operation returns on failure. errors.Is and
// errors.As still reach the original cause through Unwrap.
type Error struct {
	Kind Kind
	Op   string // action or operation name
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Classify maps any error onto a Kind. Errors that match nothing known are
// KindUnexpected.
func Classify(err error) Kind {
	var ge *Error
	var ve validator.ValidationErrors

	switch {
	case err == nil:
		return KindUnexpected
	case errors.As(err, &ge):
		return ge.Kind
	case errors.Is(err, domain.ErrInvalidCredentials), errors.Is(err, domain.ErrTooManyAttempts):
		return KindInvalidCredentials
	case errors.Is(err, jwtx.ErrExpired):
		return KindExpiredToken
	case errors.Is(err, jwtx.ErrInvalid), errors.Is(err, domain.ErrNoSession):
		return KindInvalidToken
	case errors.Is(err, domain.ErrUserNotFound):
		return KindUserNotFound
	case errors.Is(err, domain.ErrPermissionDenied):
		return KindPermissionDenied
	case errors.Is(err, domain.ErrValidation), errors.As(err, &ve):
		return KindValidation
	default:
		return KindUnexpected
	}
}
