package password

import (
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"

	"github.com/saasify/saasify-api/internal/crypto"
)

// ErrMalformedHash indicates a stored hash that cannot be parsed.
// Seeing this in production signals data corruption, not a bad password.
var ErrMalformedHash = errors.New("malformed password hash")

// Argon2Params holds the tunables for Argon2id hashing.
type Argon2Params struct {
	// Memory is the amount of memory used in KiB.
	Memory uint32

	// Iterations is the number of passes over the memory.
	Iterations uint32

	// Parallelism is the number of threads to use.
	Parallelism uint8

	// SaltLength is the length of the random salt in bytes.
	SaltLength uint32

	// KeyLength is the length of the derived key in bytes.
	KeyLength uint32
}

// DefaultArgon2Params returns parameters following OWASP recommendations
// for password storage. Hashing with these takes on the order of tens of
// milliseconds on current server hardware.
func DefaultArgon2Params() *Argon2Params {
	return &Argon2Params{
		Memory:      64 * 1024, // 64 MiB
		Iterations:  3,
		Parallelism: 2,
		SaltLength:  16,
		KeyLength:   32,
	}
}

// Argon2Hasher implements Hasher using Argon2id.
type Argon2Hasher struct {
	params *Argon2Params
}

// NewArgon2Hasher creates an Argon2id hasher.
// If params is nil, DefaultArgon2Params is used.
func NewArgon2Hasher(params *Argon2Params) *Argon2Hasher {
	if params == nil {
		params = DefaultArgon2Params()
	}
	return &Argon2Hasher{params: params}
}

// Hash derives an Argon2id hash with a fresh random salt.
// Output is in PHC string format: $argon2id$v=19$m=65536,t=3,p=2$salt$digest
func (h *Argon2Hasher) Hash(password string) (string, error) {
	salt, err := crypto.RandomBytes(int(h.params.SaltLength))
	if err != nil {
		return "", err
	}

	key := argon2.IDKey(
		[]byte(password),
		salt,
		h.params.Iterations,
		h.params.Memory,
		h.params.Parallelism,
		h.params.KeyLength,
	)

	encoded := fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		h.params.Memory,
		h.params.Iterations,
		h.params.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	)

	return encoded, nil
}

// Verify recomputes the digest using the parameters embedded in the stored
// hash and compares in constant time.
func (h *Argon2Hasher) Verify(password, encodedHash string) (bool, error) {
	params, salt, digest, err := parseArgon2Hash(encodedHash)
	if err != nil {
		return false, err
	}

	other := argon2.IDKey(
		[]byte(password),
		salt,
		params.Iterations,
		params.Memory,
		params.Parallelism,
		params.KeyLength,
	)

	return subtle.ConstantTimeCompare(digest, other) == 1, nil
}

// NeedsRehash reports whether the stored hash uses different parameters.
func (h *Argon2Hasher) NeedsRehash(encodedHash string) bool {
	params, _, _, err := parseArgon2Hash(encodedHash)
	if err != nil {
		return true
	}

	return params.Memory != h.params.Memory ||
		params.Iterations != h.params.Iterations ||
		params.Parallelism != h.params.Parallelism ||
		params.KeyLength != h.params.KeyLength
}

// parseArgon2Hash decodes a PHC-format Argon2id hash string.
func parseArgon2Hash(encodedHash string) (*Argon2Params, []byte, []byte, error) {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 {
		return nil, nil, nil, fmt.Errorf("%w: expected 6 segments, got %d", ErrMalformedHash, len(parts))
	}

	if parts[1] != "argon2id" {
		return nil, nil, nil, fmt.Errorf("%w: unsupported algorithm %q", ErrMalformedHash, parts[1])
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return nil, nil, nil, fmt.Errorf("%w: %v", ErrMalformedHash, err)
	}
	if version != argon2.Version {
		return nil, nil, nil, fmt.Errorf("%w: incompatible argon2 version %d", ErrMalformedHash, version)
	}

	params := &Argon2Params{}
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d",
		&params.Memory, &params.Iterations, &params.Parallelism); err != nil {
		return nil, nil, nil, fmt.Errorf("%w: %v", ErrMalformedHash, err)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%w: %v", ErrMalformedHash, err)
	}
	params.SaltLength = uint32(len(salt))

	digest, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%w: %v", ErrMalformedHash, err)
	}
	params.KeyLength = uint32(len(digest))

	return params, salt, digest, nil
}

// Ensure Argon2Hasher implements Hasher.
var _ Hasher = (*Argon2Hasher)(nil)
