package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	t.Parallel()

	tm := NewTokenManager("super-secret", 60)

	token, expiresAt, err := tm.Issue("user-123")
	require.NoError(t, err)
	require.True(t, expiresAt.After(time.Now()))

	subject, err := tm.Validate(token)
	require.NoError(t, err)
	require.Equal(t, "user-123", subject)
}

func TestTokenExpired(t *testing.T) {
	t.Parallel()

	tm := NewTokenManager("super-secret", 60)

	token, _, err := tm.IssueWithTTL("user-123", -time.Minute)
	require.NoError(t, err)

	_, err = tm.Validate(token)
	require.Error(t, err)
}

func TestTokenWrongSecret(t *testing.T) {
	t.Parallel()

	issuer := NewTokenManager("right-secret", 60)
	verifier := NewTokenManager("wrong-secret", 60)

	token, _, err := issuer.Issue("user-123")
	require.NoError(t, err)

	_, err = verifier.Validate(token)
	require.Error(t, err)
}

func TestTokenGarbage(t *testing.T) {
	t.Parallel()

	tm := NewTokenManager("super-secret", 60)
	_, err := tm.Validate("definitely.not.a-jwt")
	require.Error(t, err)
}
