package auth

import (
	"testing"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

func TestTokenRoundTripCarriesActor(t *testing.T) {
	tm := NewTokenManager("secret", 5)
	token, expires, err := tm.GenerateToken(domain.Actor{Kind: domain.ActorKindTechnician, ID: "tech-9"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if expires.IsZero() {
		t.Fatalf("expected expiry")
	}
	claims, err := tm.ParseToken(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := claims.Actor(); got.Kind != domain.ActorKindTechnician || got.ID != "tech-9" {
		t.Fatalf("unexpected actor %+v", got)
	}
}

func TestParseTokenRejectsForeignSecret(t *testing.T) {
	token, _, err := NewTokenManager("one", 5).GenerateToken(domain.Actor{Kind: domain.ActorKindUser, ID: "u1"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := NewTokenManager("two", 5).ParseToken(token); err == nil {
		t.Fatalf("expected signature failure")
	}
}

func TestGenerateTokenRejectsUnknownKind(t *testing.T) {
	if _, _, err := NewTokenManager("s", 5).GenerateToken(domain.Actor{Kind: "robot", ID: "r"}); err == nil {
		t.Fatalf("expected error for unknown actor kind")
	}
}
