// Package apperr carries a small error taxonomy shared by every layer.
// Handlers map kinds to HTTP statuses; services and domain code return
// kinds without knowing about HTTP.
package apperr

import "errors"

type Kind int

const (
	Internal Kind = iota
	Validation
	AuthRequired
	Forbidden
	NotFound
	Upstream
	UnsupportedCurrency
)

// Error pairs a kind with a stable machine-readable code. Fields holds
// per-field violation codes for validation errors.
type Error struct {
	Kind   Kind
	Code   string
	Fields map[string]string
	cause  error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.Code + ": " + e.cause.Error()
	}
	return e.Code
}

func (e *Error) Unwrap() error { return e.cause }

// WithFields returns a copy of e carrying the given field violations.
func (e *Error) WithFields(fields map[string]string) *Error {
	out := *e
	out.Fields = fields
	return &out
}

func New(kind Kind, code string) *Error {
	return &Error{Kind: kind, Code: code}
}

func Wrap(kind Kind, code string, cause error) *Error {
	return &Error{Kind: kind, Code: code, cause: cause}
}

// KindOf reports the kind of err if it is (or wraps) an *Error.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return Internal, false
}

func IsKind(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

// FieldsOf returns the field violations of err, or nil.
func FieldsOf(err error) map[string]string {
	var e *Error
	if errors.As(err, &e) {
		return e.Fields
	}
	return nil
}
