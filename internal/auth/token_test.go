package auth

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestIssueVerifyRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)

	token, err := issuer.Issue("user-1", "a@x.com")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	identity, err := issuer.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if identity.UserID != "user-1" {
		t.Fatalf("expected subject user-1, got %q", identity.UserID)
	}
	if identity.Email != "a@x.com" {
		t.Fatalf("expected email a@x.com, got %q", identity.Email)
	}
}

func TestVerifyExpiredToken(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)

	issued := time.Now()
	issuer.now = func() time.Time { return issued }
	token, err := issuer.Issue("user-1", "a@x.com")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	issuer.now = func() time.Time { return issued.Add(2 * time.Hour) }
	if _, err := issuer.Verify(token); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestVerifyTamperedToken(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)

	token, err := issuer.Issue("user-1", "a@x.com")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	forged := NewTokenIssuer("other-secret", time.Hour)
	forgedToken, err := forged.Issue("user-1", "a@x.com")
	if err != nil {
		t.Fatalf("issue forged: %v", err)
	}
	if _, err := issuer.Verify(forgedToken); !errors.Is(err, ErrTokenSignature) {
		t.Fatalf("expected ErrTokenSignature, got %v", err)
	}

	// Flip a character inside the payload segment.
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		t.Fatalf("expected three token segments")
	}
	payload := []byte(parts[1])
	if payload[0] == 'A' {
		payload[0] = 'B'
	} else {
		payload[0] = 'A'
	}
	parts[1] = string(payload)
	if _, err := issuer.Verify(strings.Join(parts, ".")); err == nil {
		t.Fatalf("expected tampered token to be rejected")
	}
}

func TestVerifyMalformedToken(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)

	for _, raw := range []string{"", "garbage", "a.b", "a.b.c.d"} {
		if _, err := issuer.Verify(raw); !errors.Is(err, ErrTokenMalformed) {
			t.Fatalf("expected ErrTokenMalformed for %q, got %v", raw, err)
		}
	}
}
