package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/taskhub/taskhub/internal/shared"
)

// Internal token failure kinds. Handlers collapse all of them into
// shared.ErrUnauthorized; they exist so logs can tell a tampered token from
// an expired one.
var (
	ErrTokenMalformed = errors.New("token malformed")
	ErrTokenSignature = errors.New("token signature invalid")
	ErrTokenExpired   = errors.New("token expired")
)

type tokenClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

// TokenIssuer mints and verifies signed identity assertions. Tokens are
// stateless: validity is entirely signature plus expiry, with no server-side
// session record and no revocation before natural expiry.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenIssuer constructs a TokenIssuer signing with secret and issuing
// tokens valid for ttl.
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue mints a token asserting the given user identity.
func (t *TokenIssuer) Issue(userID, email string) (string, error) {
	now := t.now()
	claims := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
		Email: email,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, nil
}

// Verify validates signature and expiry and returns the embedded identity.
func (t *TokenIssuer) Verify(raw string) (shared.Identity, error) {
	var claims tokenClaims
	token, err := jwt.ParseWithClaims(raw, &claims, func(tok *jwt.Token) (any, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", tok.Header["alg"])
		}
		return t.secret, nil
	}, jwt.WithTimeFunc(t.now))
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return shared.Identity{}, ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return shared.Identity{}, ErrTokenSignature
		default:
			return shared.Identity{}, ErrTokenMalformed
		}
	}
	if !token.Valid || claims.Subject == "" {
		return shared.Identity{}, ErrTokenMalformed
	}
	return shared.Identity{UserID: claims.Subject, Email: claims.Email}, nil
}
