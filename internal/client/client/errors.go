package client

import (
	"errors"
	"fmt"
)

var (
	ErrUnavailable  = errors.New("server unavailable")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrExport       = errors.New("export failed")
)

// ValidationError is a 4xx rejection other than 401/403/404. Message is the
// server's own text and is shown to the user unchanged.
type ValidationError struct {
	Status  int
	Message string
}

func (e *ValidationError) Error() string {
	if e.Status == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
}

// IsRetryable reports whether repeating the same request may succeed.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}

// UserMessage renders err for display: validation messages verbatim,
// sentinel errors as their short text.
func UserMessage(err error) string {
	var ve *ValidationError
	switch {
	case errors.As(err, &ve):
		return ve.Message
	case errors.Is(err, ErrUnauthorized):
		return "session expired, please log in again"
	case errors.Is(err, ErrForbidden):
		return "you do not have permission to do that"
	case errors.Is(err, ErrNotFound):
		return "not found"
	case errors.Is(err, ErrUnavailable):
		return "server unavailable, try again"
	default:
		return err.Error()
	}
}
