package auth

import (
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHashVerifyRoundTrip(t *testing.T) {
	hasher := NewHasher(bcrypt.MinCost)

	digest, err := hasher.Hash("secret1")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if digest == "secret1" {
		t.Fatalf("digest must not equal the plaintext")
	}
	if !hasher.Verify("secret1", digest) {
		t.Fatalf("expected correct password to verify")
	}
	if hasher.Verify("secret2", digest) {
		t.Fatalf("expected wrong password to fail verification")
	}
}

func TestHashIsSalted(t *testing.T) {
	hasher := NewHasher(bcrypt.MinCost)

	first, err := hasher.Hash("secret1")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	second, err := hasher.Hash("secret1")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if first == second {
		t.Fatalf("equal passwords must produce different digests")
	}
	if !hasher.Verify("secret1", first) || !hasher.Verify("secret1", second) {
		t.Fatalf("both digests must verify against the original password")
	}
}

func TestVerifyMalformedDigest(t *testing.T) {
	hasher := NewHasher(bcrypt.MinCost)

	if hasher.Verify("secret1", "not-a-bcrypt-digest") {
		t.Fatalf("malformed digest must fail verification, not crash")
	}
	if hasher.Verify("secret1", "") {
		t.Fatalf("empty digest must fail verification")
	}
}

func TestNewHasherClampsCost(t *testing.T) {
	hasher := NewHasher(99)
	if hasher.cost != bcrypt.DefaultCost {
		t.Fatalf("expected default cost for out-of-range value, got %d", hasher.cost)
	}
}
