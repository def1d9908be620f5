package backend

import (
	"errors"
	"fmt"
	"net/http"
)

// GenericMessage is shown when the backend gives no usable message.
const GenericMessage = "Something went wrong. Please try again."

// ErrUnauthorized is returned before any network call when no token is
// available for an authenticated request.
var ErrUnauthorized = errors.New("backend: missing authorization token")

// Error is a non-2xx response from the backend.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("backend returned status %d: %s", e.StatusCode, e.Message)
}

// UserMessage returns the backend message, or GenericMessage when empty.
func (e *Error) UserMessage() string {
	if e.Message == "" {
		return GenericMessage
	}
	return e.Message
}

// Message turns any error from this package into text fit for display.
func Message(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, ErrUnauthorized) {
		return "Please sign in to continue."
	}
	var be *Error
	if errors.As(err, &be) {
		return be.UserMessage()
	}
	return GenericMessage
}

// IsUnauthorized reports whether err means the session token is missing or
// was rejected by the backend.
func IsUnauthorized(err error) bool {
	if errors.Is(err, ErrUnauthorized) {
		return true
	}
	var be *Error
	return errors.As(err, &be) && be.StatusCode == http.StatusUnauthorized
}
