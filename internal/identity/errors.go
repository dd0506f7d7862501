package identity

import (
	"errors"
	"strings"
)

var (
	ErrDuplicateEmail = errors.New("a user with this email already exists")
	ErrBadCredentials = errors.New("invalid password")
	ErrDeactivated    = errors.New("account is deactivated, contact an administrator")
)

// ValidationError aggregates every failed check so the caller can show
// them all at once instead of one per round trip.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Errors, "; ")
}
