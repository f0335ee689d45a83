// Package token verifies the bearer tokens carrying caller identity.
package token

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

// JWTManager verifies signed identity tokens. The service performs no
// authorization; the subject claim only labels audit events with an actor.
type JWTManager struct {
	secretKey string
}

// NewJWTManager creates a manager for the given signing secret.
func NewJWTManager(secretKey string) *JWTManager {
	return &JWTManager{secretKey: secretKey}
}

// VerifyToken parses and validates a token and returns its subject.
func (m *JWTManager) VerifyToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(m.secretKey), nil
	})
	if err != nil {
		return "", err
	}
	if !token.Valid {
		return "", errors.New("invalid token")
	}
	subject, err := token.Claims.GetSubject()
	if err != nil || subject == "" {
		return "", errors.New("token has no subject")
	}
	return subject, nil
}
