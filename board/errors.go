package board

import (
	"errors"
	"fmt"
)

// Kind classifies a business-rule failure. Errors without a Kind are
// infrastructure failures and are reported as server-side problems.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindAuthorization
	KindState
	KindCapacity
	KindLimit
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuthorization:
		return "authorization"
	case KindState:
		return "state"
	case KindCapacity:
		return "capacity"
	case KindLimit:
		return "limit"
	case KindNotFound:
		return "not_found"
	}
	return "unknown"
}

// Error is a client-caused failure carrying a user-facing message.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

// Is matches on Kind so callers can write errors.Is(err, board.ErrNotFound).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Message == "" || t.Message == e.Message)
}

// Sentinels for errors.Is comparisons by kind.
var (
	ErrValidation    = &Error{Kind: KindValidation}
	ErrAuthorization = &Error{Kind: KindAuthorization}
	ErrState         = &Error{Kind: KindState}
	ErrCapacity      = &Error{Kind: KindCapacity}
	ErrLimit         = &Error{Kind: KindLimit}
	ErrNotFound      = &Error{Kind: KindNotFound}
)

func newError(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// NotFound builds a KindNotFound error. Stores use it to translate
// driver-level "no rows" results.
func NotFound(format string, args ...interface{}) *Error {
	return newError(KindNotFound, format, args...)
}

// Invalid builds a KindValidation error for input checks made outside
// this package.
func Invalid(format string, args ...interface{}) *Error {
	return newError(KindValidation, format, args...)
}

// KindOf returns the Kind of err, or 0 for infrastructure errors.
func KindOf(err error) Kind {
	var be *Error
	if errors.As(err, &be) {
		return be.Kind
	}
	return 0
}

// IsClientError reports whether err was caused by the caller rather than
// by the backing services.
func IsClientError(err error) bool {
	return KindOf(err) != 0
}
