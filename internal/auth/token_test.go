package auth

import (
	"testing"

	"github.com/spec-kit/blog-security-service/internal/domain"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("test-secret", 60)

	signed, expiresAt, err := tm.GenerateToken("u1", "alice", domain.RoleModerator, "sess-1")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if expiresAt.IsZero() {
		t.Fatal("expected expiry to be set")
	}

	claims, err := tm.ParseToken(signed)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.Subject != "u1" || claims.Username != "alice" || claims.Role != domain.RoleModerator || claims.SessionID != "sess-1" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	tm := NewTokenManager("test-secret", 60)
	other := NewTokenManager("other-secret", 60)

	signed, _, err := tm.GenerateToken("u1", "alice", domain.RoleReader, "sess-1")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := other.ParseToken(signed); err == nil {
		t.Fatal("expected signature verification to fail")
	}
}
