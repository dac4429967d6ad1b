package api

import (
	"errors"
	"fmt"
)

var (
	// ErrUnavailable means the server could not be reached or did not
	// answer; the operation was never evaluated and is safe to retry.
	ErrUnavailable = errors.New("server unavailable")

	// ErrUnauthorized means the server rejected the credentials.
	ErrUnauthorized = errors.New("unauthorized")
)

// APIError is a non-2xx response that carried an application error body.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("http %d %s: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("http %d: %s", e.StatusCode, e.Message)
}
