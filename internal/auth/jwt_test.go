package auth

import (
	"testing"

	"github.com/google/uuid"
)

func TestTokenRoundTrip(t *testing.T) {
	secret := "test-secret"
	staffID := uuid.New()

	token, err := GenerateToken(secret, staffID, "小李", "bar")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if token == "" {
		t.Fatal("empty token")
	}

	claims, err := ValidateToken(secret, token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.StaffID != staffID {
		t.Errorf("StaffID = %v, want %v", claims.StaffID, staffID)
	}
	if claims.Name != "小李" {
		t.Errorf("Name = %q, want 小李", claims.Name)
	}
	if claims.Role != "bar" {
		t.Errorf("Role = %q, want bar", claims.Role)
	}
	if claims.ExpiresAt == nil || claims.IssuedAt == nil {
		t.Error("registered claims not populated")
	}
}

func TestValidateToken_WrongSecret(t *testing.T) {
	token, err := GenerateToken("right-secret", uuid.New(), "小李", "bar")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	if _, err := ValidateToken("wrong-secret", token); err == nil {
		t.Fatal("expected validation to fail with wrong secret")
	}
}

func TestValidateToken_Garbage(t *testing.T) {
	if _, err := ValidateToken("test-secret", "not.a.token"); err == nil {
		t.Fatal("expected validation to fail for malformed token")
	}
}
