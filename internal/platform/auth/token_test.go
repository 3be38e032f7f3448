package auth

import (
	"errors"
	"testing"
	"time"
)

func TestTokenManager_IssueAndVerify(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	mgr, err := NewTokenManager(TokenManagerDeps{
		Secret: "unit-test-secret",
		Issuer: "cdisease-test",
		TTL:    time.Hour,
		Now:    func() time.Time { return now },
	})
	if err != nil {
		t.Fatalf("NewTokenManager error: %v", err)
	}

	signed, expiresAt, err := mgr.Issue("usr_1", "p@example.com", "Patient")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}
	if want := now.Add(time.Hour); !expiresAt.Equal(want) {
		t.Fatalf("expected expiry %s, got %s", want, expiresAt)
	}

	claims, err := mgr.Verify(signed)
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if claims.Subject != "usr_1" {
		t.Fatalf("unexpected subject %s", claims.Subject)
	}
	if claims.Email != "p@example.com" {
		t.Fatalf("unexpected email %s", claims.Email)
	}
	if claims.Role != "patient" {
		t.Fatalf("expected normalised role patient, got %s", claims.Role)
	}
}

func TestTokenManager_Expired(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	current := now
	mgr, err := NewTokenManager(TokenManagerDeps{
		Secret: "unit-test-secret",
		TTL:    time.Minute,
		Now:    func() time.Time { return current },
	})
	if err != nil {
		t.Fatalf("NewTokenManager error: %v", err)
	}

	signed, _, err := mgr.Issue("usr_1", "", "patient")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	current = now.Add(2 * time.Minute)
	if _, err := mgr.Verify(signed); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestTokenManager_WrongSecret(t *testing.T) {
	mgr, err := NewTokenManager(TokenManagerDeps{Secret: "secret-a"})
	if err != nil {
		t.Fatalf("NewTokenManager error: %v", err)
	}
	other, err := NewTokenManager(TokenManagerDeps{Secret: "secret-b"})
	if err != nil {
		t.Fatalf("NewTokenManager error: %v", err)
	}

	signed, _, err := other.Issue("usr_1", "", "patient")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}
	if _, err := mgr.Verify(signed); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestTokenManager_IssuerMismatch(t *testing.T) {
	issuerA, err := NewTokenManager(TokenManagerDeps{Secret: "shared", Issuer: "svc-a"})
	if err != nil {
		t.Fatalf("NewTokenManager error: %v", err)
	}
	issuerB, err := NewTokenManager(TokenManagerDeps{Secret: "shared", Issuer: "svc-b"})
	if err != nil {
		t.Fatalf("NewTokenManager error: %v", err)
	}

	signed, _, err := issuerA.Issue("usr_1", "", "patient")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}
	if _, err := issuerB.Verify(signed); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestNewTokenManager_RequiresSecret(t *testing.T) {
	if _, err := NewTokenManager(TokenManagerDeps{}); err == nil {
		t.Fatal("expected error for empty secret")
	}
}

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}
	if err := VerifyPassword(hash, "s3cret-pass"); err != nil {
		t.Fatalf("VerifyPassword error: %v", err)
	}
	if err := VerifyPassword(hash, "wrong"); !errors.Is(err, ErrPasswordMismatch) {
		t.Fatalf("expected ErrPasswordMismatch, got %v", err)
	}
}
