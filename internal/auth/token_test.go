package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-signing-secret"

func TestIssueVerifyRoundTrip(t *testing.T) {
	tm := NewTokenManager(testSecret, time.Hour)

	token, err := tm.Issue("64b0c0ffee0000000000beef")
	require.NoError(t, err)

	subject, err := tm.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "64b0c0ffee0000000000beef", subject)
}

func TestVerifyExpiredToken(t *testing.T) {
	tm := NewTokenManager(testSecret, -time.Minute)

	token, err := tm.Issue("64b0c0ffee0000000000beef")
	require.NoError(t, err)

	_, err = tm.Verify(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestVerifyTamperedToken(t *testing.T) {
	tm := NewTokenManager(testSecret, time.Hour)

	token, err := tm.Issue("64b0c0ffee0000000000beef")
	require.NoError(t, err)

	// Flip one bit somewhere in the payload.
	raw := []byte(token)
	raw[len(raw)/2] ^= 0x01
	_, err = tm.Verify(string(raw))
	require.Error(t, err)
	assert.True(t, err == ErrInvalidToken || err == ErrMalformedToken,
		"tampering must surface as invalid signature or malformed, got %v", err)
}

func TestVerifyWrongKey(t *testing.T) {
	token, err := NewTokenManager("key-one", time.Hour).Issue("subject")
	require.NoError(t, err)

	_, err = NewTokenManager("key-two", time.Hour).Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyMalformed(t *testing.T) {
	tm := NewTokenManager(testSecret, time.Hour)

	for _, bad := range []string{"", "not-a-token", "a.b", "a.b.c.d"} {
		_, err := tm.Verify(bad)
		assert.ErrorIs(t, err, ErrMalformedToken, "input %q", bad)
	}
}
