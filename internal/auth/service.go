package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/taskhub/taskhub/internal/shared"
)

// MinPasswordLength is the minimum accepted password length. The handler
// enforces it via validator tags; the service re-checks so no caller can
// slip a short password past the boundary.
const MinPasswordLength = 6

// Service wraps signup, login, and profile decisions.
type Service struct {
	repo   Repository
	hasher Hasher
	tokens *TokenIssuer
}

// NewService constructs a new Service.
func NewService(repo Repository, hasher Hasher, tokens *TokenIssuer) *Service {
	return &Service{repo: repo, hasher: hasher, tokens: tokens}
}

// Signup registers a new account and returns the minted token. A known
// email fails with shared.ErrDuplicate and creates nothing.
func (s *Service) Signup(ctx context.Context, email, password string) (*AuthResult, error) {
	if len(password) < MinPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", shared.ErrValidation, MinPasswordLength)
	}

	_, err := s.repo.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, fmt.Errorf("%w: email already in use", shared.ErrDuplicate)
	case !errors.Is(err, shared.ErrNotFound):
		return nil, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("auth: hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, shared.ErrDuplicate) {
			return nil, fmt.Errorf("%w: email already in use", shared.ErrDuplicate)
		}
		return nil, err
	}

	token, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user.Public(), Token: token}, nil
}

// Login authenticates credentials and mints a token. Unknown email and
// wrong password yield the identical outcome so the caller cannot tell
// which part was wrong.
func (s *Service) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrInvalidCredentials
		}
		return nil, err
	}
	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, shared.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user.Public(), Token: token}, nil
}

// Profile returns the public projection for a verified subject id. A user
// deleted after token issuance reads as unauthenticated, not as not-found.
func (s *Service) Profile(ctx context.Context, userID string) (*PublicUser, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrUnauthorized
		}
		return nil, err
	}
	public := user.Public()
	return &public, nil
}
