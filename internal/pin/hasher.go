// Package pin implements the local credential gate: an isolated hashing
// capability for PIN create/verify, an ephemeral failed-attempt tracker, and
// the lockout/wipe policy applied when attempts run out.
package pin

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

// Hasher is the isolated hashing capability. The same implementation serves
// creation and verification so the algorithm stays centralized; the
// transport (local library vs remote call) is an implementation detail.
// Implementations must never log or persist the plaintext PIN.
type Hasher interface {
	Create(pin string) (hash, salt string, err error)
	Verify(pin, hash, salt string) (bool, error)
}

// PBKDF2 parameters.
const (
	pbkdf2Iterations = 210_000
	pbkdf2KeyLen     = 32
	saltLen          = 16
)

// PBKDF2Hasher derives PIN hashes with PBKDF2-SHA256 and a random per-PIN
// salt.
type PBKDF2Hasher struct{}

// NewPBKDF2Hasher creates the default hasher.
func NewPBKDF2Hasher() *PBKDF2Hasher {
	return &PBKDF2Hasher{}
}

// Create hashes pin with a fresh random salt.
func (h *PBKDF2Hasher) Create(pin string) (string, string, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", "", fmt.Errorf("generate salt: %w", err)
	}
	key := pbkdf2.Key([]byte(pin), salt, pbkdf2Iterations, pbkdf2KeyLen, sha256.New)
	return hex.EncodeToString(key), hex.EncodeToString(salt), nil
}

// Verify recomputes the hash for pin under the stored salt and compares in
// constant time.
func (h *PBKDF2Hasher) Verify(pin, hash, salt string) (bool, error) {
	saltBytes, err := hex.DecodeString(salt)
	if err != nil {
		return false, fmt.Errorf("decode salt: %w", err)
	}
	hashBytes, err := hex.DecodeString(hash)
	if err != nil {
		return false, fmt.Errorf("decode hash: %w", err)
	}
	key := pbkdf2.Key([]byte(pin), saltBytes, pbkdf2Iterations, pbkdf2KeyLen, sha256.New)
	return hmac.Equal(key, hashBytes), nil
}

// ValidatePin checks that pin is exactly length digits.
func ValidatePin(pin string, length int) error {
	if len(pin) != length {
		return fmt.Errorf("pin must be exactly %d digits", length)
	}
	for _, r := range pin {
		if r < '0' || r > '9' {
			return fmt.Errorf("pin must contain only digits")
		}
	}
	return nil
}
