package auth

import "golang.org/x/crypto/bcrypt"

// Hasher performs one-way salted password hashing.
type Hasher struct {
	cost int
}

// NewHasher constructs a Hasher. A cost outside bcrypt's valid range falls
// back to the default cost; tests pass bcrypt.MinCost to stay fast.
func NewHasher(cost int) Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return Hasher{cost: cost}
}

// Hash derives a salted digest from the plaintext. Output differs between
// calls for equal inputs; bcrypt embeds a fresh salt in the digest.
func (h Hasher) Hash(plaintext string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

// Verify reports whether plaintext matches the digest. A malformed digest
// counts as a mismatch rather than an error.
func (h Hasher) Verify(plaintext, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}
