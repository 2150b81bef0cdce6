package bsm

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrCannotConnect indicates the manager API could not be reached at all.
	ErrCannotConnect = errors.New("cannot connect to manager API")

	// ErrInvalidAuth indicates the credentials were rejected even after a
	// fresh login attempt.
	ErrInvalidAuth = errors.New("invalid manager API credentials")

	// ErrServerNotFound indicates the named server does not exist on the manager.
	ErrServerNotFound = errors.New("server not found")

	// ErrServerNotRunning indicates the operation requires a running server process.
	ErrServerNotRunning = errors.New("server is not running")
)

// APIError represents a non-success reply from the manager API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("manager API error (status %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("manager API error (status %d)", e.StatusCode)
}

// IsNotRunningMessage recognizes the reply wording the manager uses when a
// server process is down, regardless of the HTTP status it arrives with.
func IsNotRunningMessage(message string) bool {
	return strings.Contains(strings.ToLower(message), "is not running")
}

// ClassifyError maps an API failure onto the outcome enum used by actions.
func ClassifyError(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, ErrServerNotRunning):
		return OutcomeNotRunning
	case errors.Is(err, ErrServerNotFound):
		return OutcomeNotFound
	default:
		return OutcomeError
	}
}
