// Package validate holds the client-side form rules applied before any
// request is made. The server revalidates everything.
package validate

import (
	"errors"
	"strings"
)

const minPasswordLength = 8

// Username checks a new username. When formerUsername is non-empty the new
// value must differ from it.
func Username(username, formerUsername string) error {
	trimmed := strings.TrimSpace(username)
	if trimmed == "" {
		return errors.New("username cannot be empty")
	}
	if formerUsername != "" && trimmed == strings.TrimSpace(formerUsername) {
		return errors.New("new username cannot be the same as your current username")
	}
	return nil
}

// Password checks a password and, when confirmation is non-empty, that both
// match.
func Password(password, confirmation string) error {
	trimmed := strings.TrimSpace(password)
	if trimmed == "" {
		return errors.New("password is required")
	}
	if len(trimmed) < minPasswordLength {
		return errors.New("password must be at least 8 characters")
	}
	if confirmation != "" && trimmed != strings.TrimSpace(confirmation) {
		return errors.New("password and confirmation do not match")
	}
	return nil
}
