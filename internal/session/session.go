// Package session resolves the current user's identity from the bearer token.
package session

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrNoToken      = errors.New("no session token configured")
	ErrInvalidToken = errors.New("invalid session token")
)

// Identity is the authenticated user as seen by this client.
type Identity struct {
	UserID   int64
	Username string
}

// FromToken extracts the identity from a JWT issued by the server. The client
// holds no signing secret, so the claims are read without verification; the
// server remains the authority on every request.
func FromToken(tokenStr string) (*Identity, error) {
	if tokenStr == "" {
		return nil, ErrNoToken
	}

	token, _, err := jwt.NewParser().ParseUnverified(tokenStr, jwt.MapClaims{})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	userID, err := strconv.ParseInt(sub, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: subject is not a user id", ErrInvalidToken)
	}

	identity := &Identity{UserID: userID}
	if name, ok := claims["username"].(string); ok {
		identity.Username = name
	}
	return identity, nil
}
