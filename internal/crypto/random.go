// Package crypto provides cryptographic utilities.
package crypto

import (
	"crypto/rand"
	"encoding/hex"
)

// RandomBytes generates n cryptographically secure random bytes.
func RandomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	_, err := rand.Read(b)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// RandomHex generates a random hex string of the specified byte length.
// The returned string will be 2*byteLength characters.
func RandomHex(byteLength int) (string, error) {
	b, err := RandomBytes(byteLength)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// TokenID generates a random identifier suitable for use as a JTI.
// Returns a 32-character hex string (16 bytes of entropy).
func TokenID() (string, error) {
	return RandomHex(16)
}
