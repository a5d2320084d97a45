package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("pw123")
	require.NoError(t, err)
	require.NotEqual(t, "pw123", hash)
	require.True(t, strings.HasPrefix(hash, "$2"), "expected a bcrypt hash, got %q", hash)

	require.True(t, VerifyPassword("pw123", hash))
	require.False(t, VerifyPassword("pw124", hash))
	require.False(t, VerifyPassword("", hash))
}

func TestHashPasswordRejectsMutations(t *testing.T) {
	const password = "correct horse battery"
	hash, err := HashPassword(password)
	require.NoError(t, err)

	// Flipping any single character must fail verification
	for i := 0; i < len(password); i++ {
		mutated := []byte(password)
		mutated[i] ^= 0x01
		require.False(t, VerifyPassword(string(mutated), hash), "mutation at index %d verified", i)
	}
}

func TestHashPasswordSalted(t *testing.T) {
	h1, err := HashPassword("same-password")
	require.NoError(t, err)
	h2, err := HashPassword("same-password")
	require.NoError(t, err)

	// Per-record salt: two hashes of the same password differ
	require.NotEqual(t, h1, h2)
	require.True(t, VerifyPassword("same-password", h1))
	require.True(t, VerifyPassword("same-password", h2))
}
