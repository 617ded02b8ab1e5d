// Package store defines the persistence boundary for user records.
package store

import (
	"context"
	"errors"
)

// Sentinel errors returned by UserStore implementations.
var (
	// ErrNotFound indicates no user matched the lookup.
	ErrNotFound = errors.New("user not found")

	// ErrEmailTaken indicates the email is already used by another user.
	// Implementations must return this for both an up-front duplicate check
	// and a lost create race, so callers see a single atomic failure mode.
	ErrEmailTaken = errors.New("email already in use")
)

// UserStore is the credential store interface.
// All methods must be safe for concurrent use. Email uniqueness is the
// store's responsibility: Create rejects a duplicate email, and Update
// rejects an email collision with a different user ID.
type UserStore interface {
	// Create persists a new user and fills in ID and timestamps.
	Create(ctx context.Context, user *User) error

	// GetByEmail retrieves a user by email (stored lowercase).
	GetByEmail(ctx context.Context, email string) (*User, error)

	// GetByID retrieves a user by ID.
	GetByID(ctx context.Context, id string) (*User, error)

	// Update persists changes to an existing user and bumps UpdatedAt.
	Update(ctx context.Context, user *User) error

	// Delete removes a user by ID.
	Delete(ctx context.Context, id string) error

	// Ping verifies the store connection is alive.
	Ping(ctx context.Context) error

	// Migrate creates or updates the backing schema.
	Migrate(ctx context.Context) error

	// Close releases any resources held by the store.
	Close() error
}
