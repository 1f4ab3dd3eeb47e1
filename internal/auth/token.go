package auth

import (
	"errors"

	jwt "github.com/golang-jwt/jwt/v5"
)

// TokenVerifier validates gateway-issued actor tokens. The platform
// gateway authenticates the member, resolves their role set, and signs
// both into a short-lived HS256 token; the core only verifies it.
type TokenVerifier struct {
	secret []byte
}

// NewTokenVerifier builds a verifier over the shared gateway secret.
func NewTokenVerifier(secret string) *TokenVerifier {
	return &TokenVerifier{secret: []byte(secret)}
}

// Claims describes the actor context the gateway signs.
type Claims struct {
	ActorID string   `json:"actor_id"`
	Roles   []string `json:"roles"`
	jwt.RegisteredClaims
}

// ParseToken validates and returns claims.
func (tv *TokenVerifier) ParseToken(tokenStr string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return tv.secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid token claims")
	}
	if claims.ActorID == "" {
		return nil, errors.New("token missing actor id")
	}
	return claims, nil
}
