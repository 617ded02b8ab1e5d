package auth

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors forming the service's failure taxonomy. Handlers map
// these to HTTP statuses; anything else is treated as a server error.
var (
	// ErrEmailTaken indicates signup or profile update with an email that
	// already belongs to a different user.
	ErrEmailTaken = errors.New("email already in use")

	// ErrInvalidCredentials is returned for both an unknown email and a
	// wrong password, so responses cannot be used for account enumeration.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrPasswordIncorrect indicates a failed current-password re-check on
	// a destructive profile operation. Distinct from ErrInvalidCredentials
	// because the caller is already authenticated.
	ErrPasswordIncorrect = errors.New("password is incorrect")

	// ErrNotFound indicates the authenticated user's record is gone.
	ErrNotFound = errors.New("user not found")
)

// ValidationError collects input shape violations.
type ValidationError struct {
	Issues []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid payload: %s", strings.Join(e.Issues, "; "))
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
