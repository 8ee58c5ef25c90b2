package auth_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahmetcoskunkizilkaya/hirehub-backend/internal/auth"
)

func TestPBKDF2Hasher_Hash(t *testing.T) {
	hasher := auth.NewPBKDF2Hasher(auth.MinIterations)

	t.Run("produces self-describing hash", func(t *testing.T) {
		hash, err := hasher.Hash("password123")
		require.NoError(t, err)

		parts := strings.Split(hash, "$")
		require.Len(t, parts, 4)
		assert.Equal(t, "pbkdf2_sha256", parts[0])
		assert.Equal(t, "32000", parts[1])
		assert.NotContains(t, hash, "password123")
	})

	t.Run("same password produces different hashes (salt)", func(t *testing.T) {
		hash1, err := hasher.Hash("samepassword")
		require.NoError(t, err)
		hash2, err := hasher.Hash("samepassword")
		require.NoError(t, err)
		assert.NotEqual(t, hash1, hash2)
	})

	t.Run("rejects empty password", func(t *testing.T) {
		_, err := hasher.Hash("")
		assert.ErrorIs(t, err, auth.ErrEmptyPassword)
	})

	t.Run("raises iteration count to the minimum", func(t *testing.T) {
		weak := auth.NewPBKDF2Hasher(10)
		hash, err := weak.Hash("password123")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(hash, "pbkdf2_sha256$32000$"))
	})
}

func TestPBKDF2Hasher_Verify(t *testing.T) {
	hasher := auth.NewPBKDF2Hasher(auth.MinIterations)

	t.Run("correct password verifies", func(t *testing.T) {
		hash, err := hasher.Hash("correctpassword")
		require.NoError(t, err)

		ok, err := hasher.Verify("correctpassword", hash)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("incorrect password fails closed", func(t *testing.T) {
		hash, err := hasher.Hash("correctpassword")
		require.NoError(t, err)

		ok, err := hasher.Verify("wrongpassword", hash)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("verifies hashes produced with other iteration counts", func(t *testing.T) {
		hash, err := auth.NewPBKDF2Hasher(40_000).Hash("portable")
		require.NoError(t, err)

		ok, err := hasher.Verify("portable", hash)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("foreign algorithm is unsupported", func(t *testing.T) {
		ok, err := hasher.Verify("password", "pbkdf2_sha1$32000$c2FsdHNhbHRzYWx0c2FsdA$aGFzaA")
		assert.False(t, ok)
		assert.ErrorIs(t, err, auth.ErrUnsupportedAlgorithm)
	})

	tests := []struct {
		name string
		hash string
	}{
		{name: "not a hash", hash: "not-a-valid-hash"},
		{name: "missing key", hash: "pbkdf2_sha256$32000$c2FsdA"},
		{name: "bad iterations", hash: "pbkdf2_sha256$abc$c2FsdA$aGFzaA"},
		{name: "zero iterations", hash: "pbkdf2_sha256$0$c2FsdA$aGFzaA"},
		{name: "bad salt encoding", hash: "pbkdf2_sha256$32000$!!!$aGFzaA"},
		{name: "empty key", hash: "pbkdf2_sha256$32000$c2FsdA$"},
	}
	for _, tt := range tests {
		t.Run("malformed: "+tt.name, func(t *testing.T) {
			ok, err := hasher.Verify("password", tt.hash)
			assert.False(t, ok)
			assert.ErrorIs(t, err, auth.ErrMalformedHash)
		})
	}
}

func TestPBKDF2Hasher_DistinctPasswordsNeverCrossVerify(t *testing.T) {
	hasher := auth.NewPBKDF2Hasher(auth.MinIterations)
	passwords := []string{"alpha-1", "alpha-2", "Alpha-1", "alpha-1 ", "ünïcødé"}

	hashes := make([]string, len(passwords))
	for i, p := range passwords {
		h, err := hasher.Hash(p)
		require.NoError(t, err)
		hashes[i] = h
	}

	for i, p := range passwords {
		for j, h := range hashes {
			ok, err := hasher.Verify(p, h)
			require.NoError(t, err)
			assert.Equal(t, i == j, ok, "password %q against hash of %q", p, passwords[j])
		}
	}
}
