package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionTokenRoundTrip(t *testing.T) {
	tokens, err := NewSessionTokens("secret", time.Hour)
	require.NoError(t, err)

	tok, err := tokens.Generate("session-123")
	require.NoError(t, err)

	id, err := tokens.Validate(tok)
	require.NoError(t, err)
	assert.Equal(t, "session-123", id)
}

func TestSessionTokenRejectsForeignSignature(t *testing.T) {
	issuer, err := NewSessionTokens("one", time.Hour)
	require.NoError(t, err)
	verifier, err := NewSessionTokens("two", time.Hour)
	require.NoError(t, err)

	tok, err := issuer.Generate("session-123")
	require.NoError(t, err)

	_, err = verifier.Validate(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = verifier.Validate("garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestSessionTokenExpires(t *testing.T) {
	tokens, err := NewSessionTokens("secret", time.Nanosecond)
	require.NoError(t, err)

	tok, err := tokens.Generate("s")
	require.NoError(t, err)
	time.Sleep(1100 * time.Millisecond)

	_, err = tokens.Validate(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestSessionTokenWithoutTTLDoesNotExpire(t *testing.T) {
	tokens, err := NewSessionTokens("secret", 0)
	require.NoError(t, err)

	tok, err := tokens.Generate("s")
	require.NoError(t, err)
	id, err := tokens.Validate(tok)
	require.NoError(t, err)
	assert.Equal(t, "s", id)
}

func TestRandomSecretWhenEmpty(t *testing.T) {
	a, err := NewSessionTokens("", 0)
	require.NoError(t, err)
	b, err := NewSessionTokens("", 0)
	require.NoError(t, err)

	tok, err := a.Generate("s")
	require.NoError(t, err)
	_, err = b.Validate(tok)
	assert.Error(t, err)
}
