// Package password provides one-way password hashing and verification.
package password

// Hasher is the interface for password hashing algorithms.
//
// Hash output is a self-describing string that embeds the algorithm
// parameters and salt, so Verify never needs external configuration.
type Hasher interface {
	// Hash creates a hash from a plaintext password.
	Hash(password string) (string, error)

	// Verify checks if a password matches a stored hash.
	// A structurally invalid stored hash returns an error; a well-formed
	// hash that simply does not match returns (false, nil).
	Verify(password, hash string) (bool, error)

	// NeedsRehash reports whether a hash was created with parameters
	// different from the hasher's current configuration.
	NeedsRehash(hash string) bool
}
