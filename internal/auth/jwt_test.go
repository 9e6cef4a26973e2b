package auth

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
)

func TestGenerateAndVerifyJWT(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	if err := InitJWTSecret(); err != nil {
		t.Fatalf("unexpected init error: %v", err)
	}

	signed, err := GenerateJWT(42, "operator@example.com")
	if err != nil {
		t.Fatalf("unexpected signing error: %v", err)
	}

	token, err := VerifyJWT(signed)
	if err != nil {
		t.Fatalf("unexpected verify error: %v", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		t.Fatalf("unexpected claims type: %T", token.Claims)
	}

	if got, _ := claims["user_id"].(float64); uint(got) != 42 {
		t.Fatalf("expected user_id 42, got %v", claims["user_id"])
	}
	if claims["email"] != "operator@example.com" {
		t.Fatalf("unexpected email claim: %v", claims["email"])
	}

	// Organization membership lives in the store, not the token.
	if _, present := claims["org_id"]; present {
		t.Fatal("token must not carry an organization claim")
	}
}

func TestVerifyJWTRejectsTamperedToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	if err := InitJWTSecret(); err != nil {
		t.Fatalf("unexpected init error: %v", err)
	}

	signed, err := GenerateJWT(1, "operator@example.com")
	if err != nil {
		t.Fatalf("unexpected signing error: %v", err)
	}

	if _, err := VerifyJWT(signed + "x"); err == nil {
		t.Fatal("expected a tampered token to be rejected")
	}
}
