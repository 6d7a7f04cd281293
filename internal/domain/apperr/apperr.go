// Package apperr defines the error kinds every request path reports.
// Callers wrap a kind with context via fmt.Errorf("...: %w", apperr.ErrX)
// and transports map the kind with errors.Is.
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds.
var (
	ErrUnauthorized = errors.New("please sign in")
	ErrForbidden    = errors.New("not permitted")
	ErrNotFound     = errors.New("not found")
	ErrInvalidState = errors.New("invalid state")
	ErrValidation   = errors.New("invalid input")
)

// Forbidden wraps ErrForbidden with a caller-facing reason.
func Forbidden(reason string) error {
	return fmt.Errorf("%s: %w", reason, ErrForbidden)
}

// NotFound wraps ErrNotFound naming the missing thing.
func NotFound(what string) error {
	return fmt.Errorf("%s: %w", what, ErrNotFound)
}

// InvalidState wraps ErrInvalidState with a descriptive reason.
func InvalidState(reason string) error {
	return fmt.Errorf("%s: %w", reason, ErrInvalidState)
}

// Validation wraps ErrValidation with a descriptive reason.
func Validation(reason string) error {
	return fmt.Errorf("%s: %w", reason, ErrValidation)
}

// Reason returns the message of err without the kind suffix, for display.
func Reason(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	for _, kind := range []error{ErrUnauthorized, ErrForbidden, ErrNotFound, ErrInvalidState, ErrValidation} {
		suffix := ": " + kind.Error()
		if errors.Is(err, kind) && strings.HasSuffix(msg, suffix) {
			return strings.TrimSuffix(msg, suffix)
		}
	}
	return msg
}
