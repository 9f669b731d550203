package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrValidation         = errors.New("invalid input")
	ErrAuth               = errors.New("authentication failed")
	ErrNotFound           = errors.New("not found")
	ErrNetwork            = errors.New("network error")
	ErrServer             = errors.New("server error")
	ErrIncompleteForm     = errors.New("label form is incomplete")
	ErrInvalidTransition  = errors.New("invalid step transition")
	ErrNoSession          = errors.New("no session")
	ErrSubmissionInFlight = errors.New("submission already in flight")
)

// APIError is a non-2xx backend response. It unwraps to one of the
// sentinel kinds above so callers can branch with errors.Is.
type APIError struct {
	Kind   error
	Status int
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%v (status %d)", e.Kind, e.Status)
	}
	return e.Detail
}

func (e *APIError) Unwrap() error {
	return e.Kind
}

// FromStatus classifies an HTTP status code.
func FromStatus(status int, detail string) *APIError {
	var kind error
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		kind = ErrAuth
	case status == http.StatusNotFound:
		kind = ErrNotFound
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		kind = ErrValidation
	default:
		kind = ErrServer
	}
	return &APIError{Kind: kind, Status: status, Detail: detail}
}

// Retryable reports whether repeating the same call may succeed without
// the user changing anything.
func Retryable(err error) bool {
	return errors.Is(err, ErrNetwork) || errors.Is(err, ErrServer)
}

func Validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
