package auth

import (
	"testing"
	"time"
)

func TestJWTManager_GenerateAndParse(t *testing.T) {
	manager := NewJWTManager("secret", time.Hour)
	token, expiresAt, err := manager.GenerateToken("session-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if time.Until(expiresAt) <= 59*time.Minute {
		t.Fatalf("unexpected expiry: %s", expiresAt)
	}

	claims, err := manager.ParseToken(token)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims.SessionID() != "session-1" {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	if _, err := manager.ParseToken(token + "tampered"); err == nil {
		t.Fatalf("expected parse error for tampered token")
	}

	other := NewJWTManager("other-secret", time.Hour)
	if _, err := other.ParseToken(token); err == nil {
		t.Fatalf("expected parse error for foreign secret")
	}
}

func TestJWTManager_Expired(t *testing.T) {
	manager := NewJWTManager("secret", time.Minute)
	issued := time.Now().Add(-2 * time.Hour)
	manager.now = func() time.Time { return issued }

	token, _, err := manager.GenerateToken("session-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	manager.now = time.Now
	if _, err := manager.ParseToken(token); err == nil {
		t.Fatalf("expected expired token to be rejected")
	}
}

func TestJWTManager_EmptyInputs(t *testing.T) {
	manager := NewJWTManager("", time.Hour)
	if _, _, err := manager.GenerateToken("session"); err == nil {
		t.Fatalf("expected error when secret is empty")
	}

	manager = NewJWTManager("secret", 0)
	if manager.TTL() != time.Hour {
		t.Fatalf("expected default ttl, got %s", manager.TTL())
	}
	if _, _, err := manager.GenerateToken(""); err == nil {
		t.Fatalf("expected error when session id is empty")
	}
}
