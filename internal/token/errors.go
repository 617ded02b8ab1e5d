package token

import "errors"

// Verification failures. Callers must not leak which of these occurred to
// the client; the middleware collapses all of them into a single 401.
var (
	// ErrExpired indicates the token's embedded expiry has passed.
	ErrExpired = errors.New("session token has expired")

	// ErrNotYetValid indicates the token's issued-at time is in the future.
	ErrNotYetValid = errors.New("session token is not yet valid")

	// ErrMalformed indicates the token cannot be parsed.
	ErrMalformed = errors.New("session token is malformed")

	// ErrInvalidSignature indicates the signature does not match.
	ErrInvalidSignature = errors.New("session token signature is invalid")
)
