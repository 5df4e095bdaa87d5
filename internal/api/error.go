package api

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is the typed error returned for any non-2xx response. It carries the
// HTTP status code so callers can branch on it (401 gets credential-specific
// messaging, everything else a generic one).
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", http.StatusText(e.StatusCode), e.Message)
	}
	return fmt.Sprintf("unexpected status: %d", e.StatusCode)
}

// IsStatus reports whether err is an API error with the given HTTP status.
func IsStatus(err error, statusCode int) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.StatusCode == statusCode
}

func IsUnauthorized(err error) bool {
	return IsStatus(err, http.StatusUnauthorized)
}

func IsNotFound(err error) bool {
	return IsStatus(err, http.StatusNotFound)
}
