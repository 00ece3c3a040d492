package session

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString([]byte("any-secret"))
	require.NoError(t, err)
	return s
}

func TestFromTokenResolvesIdentity(t *testing.T) {
	tok := signedToken(t, jwt.MapClaims{"sub": "42", "username": "mira"})

	identity, err := FromToken(tok)

	require.NoError(t, err)
	require.Equal(t, int64(42), identity.UserID)
	require.Equal(t, "mira", identity.Username)
}

func TestFromTokenWithoutUsername(t *testing.T) {
	tok := signedToken(t, jwt.MapClaims{"sub": "7"})

	identity, err := FromToken(tok)

	require.NoError(t, err)
	require.Equal(t, int64(7), identity.UserID)
	require.Empty(t, identity.Username)
}

func TestFromTokenErrors(t *testing.T) {
	_, err := FromToken("")
	require.ErrorIs(t, err, ErrNoToken)

	_, err = FromToken("not-a-jwt")
	require.ErrorIs(t, err, ErrInvalidToken)

	_, err = FromToken(signedToken(t, jwt.MapClaims{"username": "nosub"}))
	require.ErrorIs(t, err, ErrInvalidToken)

	_, err = FromToken(signedToken(t, jwt.MapClaims{"sub": "mira"}))
	require.ErrorIs(t, err, ErrInvalidToken)
}
