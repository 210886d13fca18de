package apiclient

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig is returned by NewClient for an unusable configuration
	ErrInvalidConfig = errors.New("invalid api client config")

	// ErrNetworkError is returned when the request never produced a response
	ErrNetworkError = errors.New("network error")

	// ErrUnauthorized is returned for 401 responses
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotFound is returned for 404 responses
	ErrNotFound = errors.New("resource not found")

	// ErrConflict is returned for 409 responses
	ErrConflict = errors.New("conflict")

	// ErrInvalidRequest is returned for the remaining 4xx responses
	ErrInvalidRequest = errors.New("invalid request")

	// ErrServer is returned for 5xx responses
	ErrServer = errors.New("server error")
)

// Error describes a non-2xx response. It unwraps to one of the sentinels above.
type Error struct {
	Method  string
	Path    string
	Status  int
	Code    string
	Message string
	kind    error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Status, e.Message)
	}
	return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.Status)
}

func (e *Error) Unwrap() error {
	return e.kind
}

func kindForStatus(status int) error {
	switch {
	case status == 401:
		return ErrUnauthorized
	case status == 404:
		return ErrNotFound
	case status == 409:
		return ErrConflict
	case status >= 500:
		return ErrServer
	default:
		return ErrInvalidRequest
	}
}

// StatusOf returns the HTTP status carried by err, or 0 when err is not an *Error
func StatusOf(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}
