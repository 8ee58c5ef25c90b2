package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

const (
	HashAlgorithm     = "pbkdf2_sha256"
	DefaultIterations = 120_000
	MinIterations     = 32_000
	saltLen           = 16
	keyLen            = 32
	hashSeparator     = "$"
)

// PasswordHasher hashes and verifies passwords.
type PasswordHasher interface {
	// Hash returns a self-describing hash string for the password.
	Hash(password string) (string, error)

	// Verify returns (true, nil) on match and (false, nil) on mismatch. It
	// returns an error only when the stored hash cannot be interpreted.
	Verify(password, encoded string) (bool, error)
}

// PBKDF2Hasher implements PasswordHasher with PBKDF2-HMAC-SHA256.
type PBKDF2Hasher struct {
	iterations int
}

// NewPBKDF2Hasher creates a hasher. Iteration counts below MinIterations are
// raised to MinIterations.
func NewPBKDF2Hasher(iterations int) *PBKDF2Hasher {
	if iterations < MinIterations {
		iterations = MinIterations
	}
	return &PBKDF2Hasher{iterations: iterations}
}

// Hash encodes as pbkdf2_sha256$<iterations>$<salt>$<key>, salt and key in
// unpadded standard base64.
func (h *PBKDF2Hasher) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}

	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	key := pbkdf2.Key([]byte(password), salt, h.iterations, keyLen, sha256.New)

	return strings.Join([]string{
		HashAlgorithm,
		strconv.Itoa(h.iterations),
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	}, hashSeparator), nil
}

// Verify re-derives the key with the stored iterations and salt.
func (h *PBKDF2Hasher) Verify(password, encoded string) (bool, error) {
	parts := strings.Split(encoded, hashSeparator)
	if len(parts) != 4 {
		return false, ErrMalformedHash
	}
	if parts[0] != HashAlgorithm {
		return false, ErrUnsupportedAlgorithm
	}

	iterations, err := strconv.Atoi(parts[1])
	if err != nil || iterations <= 0 {
		return false, ErrMalformedHash
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[2])
	if err != nil || len(salt) == 0 {
		return false, ErrMalformedHash
	}

	expected, err := base64.RawStdEncoding.DecodeString(parts[3])
	if err != nil || len(expected) == 0 {
		return false, ErrMalformedHash
	}

	computed := pbkdf2.Key([]byte(password), salt, iterations, len(expected), sha256.New)
	return subtle.ConstantTimeCompare(computed, expected) == 1, nil
}
