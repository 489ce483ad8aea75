// Package apperr defines the error categories shared by every layer.
// Domain packages wrap these sentinels so the HTTP boundary can map
// failures to status codes with errors.Is.
package apperr

import "errors"

var (
	// ErrNotFound means a referenced natural key does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict means the single-selected-account rule would be violated.
	ErrConflict = errors.New("conflict")

	// ErrUpstream means the provider answered non-2xx, was unreachable,
	// or returned a payload that could not be mapped.
	ErrUpstream = errors.New("upstream error")

	// ErrValidation means an inbound request was malformed.
	ErrValidation = errors.New("validation error")
)

// Wrap returns an error that matches kind and carries msg.
func Wrap(kind error, msg string) error {
	return &kindError{kind: kind, msg: msg}
}

type kindError struct {
	kind error
	msg  string
}

func (e *kindError) Error() string { return e.msg }

func (e *kindError) Unwrap() error { return e.kind }
