// Package auth is the boundary to the external credential issuer: it
// verifies bearer tokens and yields the stable subject identifier. Nothing
// in the server executes without one. Token issuance itself happens
// elsewhere; the server only verifies.
package auth

import (
	"github.com/dropcrate/dropcrate/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Claims carries the registered claims plus the subject's user id.
type Claims struct {
	jwt.RegisteredClaims
	UserID string
}

// GetUserIDFromToken verifies tokenString and returns the subject identifier.
// Malformed, badly signed and expired tokens are indistinguishable to the
// caller: all yield common.ErrInvalidToken, and the caller is expected to
// re-authenticate.
func GetUserIDFromToken(tokenString string, secretKey []byte) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	})
	if err != nil {
		return "", common.ErrInvalidToken
	}

	if !token.Valid {
		return "", common.ErrInvalidToken
	}

	userID := claims.UserID
	if userID == "" {
		userID = claims.Subject
	}
	if userID == "" {
		return "", common.ErrInvalidToken
	}

	return userID, nil
}
