package auth

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashVerifyRoundTrip(t *testing.T) {
	t.Parallel()

	hasher := NewHasher(1000)
	salt, err := GenerateSalt()
	require.NoError(t, err)

	digest, err := hasher.Hash("hunter2-but-longer", salt)
	require.NoError(t, err)
	require.NotEmpty(t, digest)

	require.True(t, hasher.Verify("hunter2-but-longer", digest, salt))
	require.False(t, hasher.Verify("hunter2-but-wrong", digest, salt))
}

func TestHashIsDeterministicPerSalt(t *testing.T) {
	t.Parallel()

	hasher := NewHasher(1000)
	salt, err := GenerateSalt()
	require.NoError(t, err)

	first, err := hasher.Hash("pass", salt)
	require.NoError(t, err)
	second, err := hasher.Hash("pass", salt)
	require.NoError(t, err)
	require.Equal(t, first, second)

	otherSalt, err := GenerateSalt()
	require.NoError(t, err)
	require.NotEqual(t, salt, otherSalt)

	third, err := hasher.Hash("pass", otherSalt)
	require.NoError(t, err)
	require.NotEqual(t, first, third)
}

func TestHashRejectsMalformedSalt(t *testing.T) {
	t.Parallel()

	hasher := NewHasher(1000)
	_, err := hasher.Hash("pass", "not-hex!")
	require.Error(t, err)

	require.False(t, hasher.Verify("pass", "anything", "not-hex!"))
}
