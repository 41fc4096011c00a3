package auth

import (
	"testing"
	"time"

	"github.com/harshal20m/storeratings/pkg/ratings"
)

func TestPasswordHasherRoundTrip(t *testing.T) {
	hasher := NewPasswordHasher()

	hash, err := hasher.Hash("Abcdef1!")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	if hash == "Abcdef1!" {
		t.Fatal("hash equals plaintext")
	}

	if err := hasher.Verify("Abcdef1!", hash); err != nil {
		t.Errorf("Verify rejected correct password: %v", err)
	}
	if err := hasher.Verify("Wrongpw1!", hash); err == nil {
		t.Error("Verify accepted wrong password")
	}
}

func TestJWTManagerRoundTrip(t *testing.T) {
	jm, err := NewJWTManager("test-secret", "HS256", time.Hour, "storeratings")
	if err != nil {
		t.Fatalf("NewJWTManager failed: %v", err)
	}

	token, err := jm.Generate(42, "user@example.com", ratings.RoleStoreOwner)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	claims, err := jm.Validate(token)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if claims.UserID != 42 {
		t.Errorf("UserID = %d, want 42", claims.UserID)
	}
	if claims.Email != "user@example.com" {
		t.Errorf("Email = %q, want user@example.com", claims.Email)
	}
	if claims.Role != ratings.RoleStoreOwner {
		t.Errorf("Role = %q, want store_owner", claims.Role)
	}
}

func TestJWTManagerRejectsWrongSecret(t *testing.T) {
	jm1, err := NewJWTManager("secret-one", "HS256", time.Hour, "storeratings")
	if err != nil {
		t.Fatalf("NewJWTManager failed: %v", err)
	}
	jm2, err := NewJWTManager("secret-two", "HS256", time.Hour, "storeratings")
	if err != nil {
		t.Fatalf("NewJWTManager failed: %v", err)
	}

	token, err := jm1.Generate(1, "user@example.com", ratings.RoleUser)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if _, err := jm2.Validate(token); err == nil {
		t.Error("expected validation to fail with a different secret")
	}
}

func TestJWTManagerRejectsExpiredToken(t *testing.T) {
	jm, err := NewJWTManager("test-secret", "HS256", -time.Minute, "storeratings")
	if err != nil {
		t.Fatalf("NewJWTManager failed: %v", err)
	}

	token, err := jm.Generate(1, "user@example.com", ratings.RoleUser)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if _, err := jm.Validate(token); err == nil {
		t.Error("expected validation to fail for an expired token")
	}
}

func TestJWTManagerRejectsGarbage(t *testing.T) {
	jm, err := NewJWTManager("test-secret", "HS256", time.Hour, "storeratings")
	if err != nil {
		t.Fatalf("NewJWTManager failed: %v", err)
	}
	if _, err := jm.Validate("not.a.token"); err == nil {
		t.Error("expected validation to fail for garbage input")
	}
}

func TestNewJWTManagerRejectsUnknownAlgorithm(t *testing.T) {
	if _, err := NewJWTManager("test-secret", "RS256", time.Hour, "storeratings"); err == nil {
		t.Error("expected an error for unsupported algorithm")
	}
}

func TestNewJWTManagerRejectsEmptySecret(t *testing.T) {
	if _, err := NewJWTManager("", "HS256", time.Hour, "storeratings"); err == nil {
		t.Error("expected an error for empty secret")
	}
}
