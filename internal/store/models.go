package store

import (
	"strings"
	"time"
)

// Role is a user's access level.
type Role string

// Known roles, lowest to highest privilege.
const (
	RoleUser    Role = "user"
	RoleManager Role = "manager"
	RoleAdmin   Role = "admin"
)

// ValidRole reports whether s names a known role.
func ValidRole(s string) bool {
	switch Role(s) {
	case RoleUser, RoleManager, RoleAdmin:
		return true
	default:
		return false
	}
}

// User is the persisted identity record.
type User struct {
	// ID is the server-generated unique identifier.
	ID string `db:"id" json:"id"`

	// Email is the unique login handle, stored lowercase and trimmed.
	Email string `db:"email" json:"email"`

	// PasswordHash is the one-way hash of the user's password.
	// Never serialized to clients.
	PasswordHash string `db:"password_hash" json:"-"`

	// Name is the display name.
	Name string `db:"name" json:"name"`

	// Role defaults to RoleUser.
	Role Role `db:"role" json:"role"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// NormalizeEmail lowercases and trims an email for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
