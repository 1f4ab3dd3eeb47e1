package auth

import (
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

func mintToken(t *testing.T, secret string, claims Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestParseTokenRoundTrip(t *testing.T) {
	verifier := NewTokenVerifier("gateway-secret")
	signed := mintToken(t, "gateway-secret", Claims{
		ActorID: "user-1",
		Roles:   []string{"role-a", "role-b"},
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	})

	claims, err := verifier.ParseToken(signed)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if claims.ActorID != "user-1" || len(claims.Roles) != 2 {
		t.Fatalf("claims = %+v", claims)
	}
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	verifier := NewTokenVerifier("gateway-secret")
	signed := mintToken(t, "other-secret", Claims{ActorID: "user-1"})

	if _, err := verifier.ParseToken(signed); err == nil {
		t.Fatal("token signed with wrong secret accepted")
	}
}

func TestParseTokenRejectsExpired(t *testing.T) {
	verifier := NewTokenVerifier("gateway-secret")
	signed := mintToken(t, "gateway-secret", Claims{
		ActorID: "user-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	})

	if _, err := verifier.ParseToken(signed); err == nil {
		t.Fatal("expired token accepted")
	}
}

func TestParseTokenRequiresActorID(t *testing.T) {
	verifier := NewTokenVerifier("gateway-secret")
	signed := mintToken(t, "gateway-secret", Claims{})

	if _, err := verifier.ParseToken(signed); err == nil {
		t.Fatal("token without actor id accepted")
	}
}
