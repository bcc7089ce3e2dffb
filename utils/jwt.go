package utils

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt"
)

// Identity is the authenticated actor extracted from a bearer token.
type Identity struct {
	ActorID string
	Role    string
}

// ParseIdentity validates a token string and extracts the actor identity.
// Session issuance lives with the identity collaborator; the server only
// verifies.
func ParseIdentity(tokenString, secret string) (*Identity, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, errors.New("token missing subject")
	}
	role, _ := claims["role"].(string)
	if role == "" {
		role = "client"
	}
	return &Identity{ActorID: sub, Role: role}, nil
}
