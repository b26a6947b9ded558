package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	saltLength   = 16
	digestLength = 32
)

// Hasher derives and verifies password digests using PBKDF2-SHA256 with a
// per-user random salt. Digests are deterministic for a given password and
// salt, which verification relies on.
type Hasher struct {
	iterations int
}

// NewHasher builds a hasher with the configured iteration count.
func NewHasher(iterations int) *Hasher {
	if iterations <= 0 {
		iterations = 120000
	}
	return &Hasher{iterations: iterations}
}

// GenerateSalt returns a cryptographically random salt as a hex string.
func GenerateSalt() (string, error) {
	buf := make([]byte, saltLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// Hash derives a hex-encoded digest from the password and hex-encoded salt.
func (h *Hasher) Hash(password, salt string) (string, error) {
	saltBytes, err := hex.DecodeString(salt)
	if err != nil {
		return "", fmt.Errorf("decode salt: %w", err)
	}
	digest := pbkdf2.Key([]byte(password), saltBytes, h.iterations, digestLength, sha256.New)
	return hex.EncodeToString(digest), nil
}

// Verify recomputes the digest and compares it in constant time against the
// stored value. It returns false, never an error, on mismatch or bad input.
func (h *Hasher) Verify(password, digest, salt string) bool {
	computed, err := h.Hash(password, salt)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(computed), []byte(digest)) == 1
}
