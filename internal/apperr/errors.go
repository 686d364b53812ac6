package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a business error. The HTTP layer maps kinds to status codes;
// the core only cares about the taxonomy.
type Kind int

const (
	KindBadRequest Kind = iota + 1
	KindNotFound
	KindConflict
	KindUnauthorized
	KindForbidden
)

func (k Kind) String() string {
	switch k {
	case KindBadRequest:
		return "bad_request"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	}
	return "unknown"
}

type Error struct {
	Kind   Kind
	Detail string
	err    error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Detail, e.err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func (e *Error) Unwrap() error { return e.err }

func BadRequest(detail string) error   { return &Error{Kind: KindBadRequest, Detail: detail} }
func NotFound(detail string) error     { return &Error{Kind: KindNotFound, Detail: detail} }
func Conflict(detail string) error     { return &Error{Kind: KindConflict, Detail: detail} }
func Unauthorized(detail string) error { return &Error{Kind: KindUnauthorized, Detail: detail} }
func Forbidden(detail string) error    { return &Error{Kind: KindForbidden, Detail: detail} }

func BadRequestf(format string, args ...any) error {
	return &Error{Kind: KindBadRequest, Detail: fmt.Sprintf(format, args...)}
}

func NotFoundf(format string, args ...any) error {
	return &Error{Kind: KindNotFound, Detail: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and detail to an underlying error.
func Wrap(kind Kind, detail string, err error) error {
	return &Error{Kind: kind, Detail: detail, err: err}
}

// KindOf extracts the kind from err, or 0 if err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// DetailOf extracts the human-readable detail, falling back to err.Error().
func DetailOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Detail
	}
	return err.Error()
}

func IsBadRequest(err error) bool   { return KindOf(err) == KindBadRequest }
func IsNotFound(err error) bool     { return KindOf(err) == KindNotFound }
func IsConflict(err error) bool     { return KindOf(err) == KindConflict }
func IsUnauthorized(err error) bool { return KindOf(err) == KindUnauthorized }
func IsForbidden(err error) bool    { return KindOf(err) == KindForbidden }
