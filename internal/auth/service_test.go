package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/taskhub/taskhub/internal/auth"
	"github.com/taskhub/taskhub/internal/shared"
)

type memoryUserRepo struct {
	byEmail map[string]*auth.User
	byID    map[string]*auth.User
}

func newMemoryUserRepo() *memoryUserRepo {
	return &memoryUserRepo{
		byEmail: make(map[string]*auth.User),
		byID:    make(map[string]*auth.User),
	}
}

func (r *memoryUserRepo) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	user, ok := r.byEmail[email]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (r *memoryUserRepo) FindByID(ctx context.Context, id string) (*auth.User, error) {
	user, ok := r.byID[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (r *memoryUserRepo) Create(ctx context.Context, user *auth.User) error {
	if _, ok := r.byEmail[user.Email]; ok {
		return shared.ErrDuplicate
	}
	copied := *user
	r.byEmail[user.Email] = &copied
	r.byID[user.ID] = &copied
	return nil
}

func newTestService(repo auth.Repository) *auth.Service {
	hasher := auth.NewHasher(bcrypt.MinCost)
	tokens := auth.NewTokenIssuer("test-secret", time.Hour)
	return auth.NewService(repo, hasher, tokens)
}

func TestSignupIssuesValidToken(t *testing.T) {
	repo := newMemoryUserRepo()
	service := newTestService(repo)

	result, err := service.Signup(context.Background(), "a@x.com", "secret1")
	require.NoError(t, err)
	require.Equal(t, "a@x.com", result.User.Email)
	require.NotEmpty(t, result.User.ID)
	require.NotEmpty(t, result.Token)

	tokens := auth.NewTokenIssuer("test-secret", time.Hour)
	identity, err := tokens.Verify(result.Token)
	require.NoError(t, err)
	require.Equal(t, result.User.ID, identity.UserID)
	require.Equal(t, "a@x.com", identity.Email)
}

func TestSignupDuplicateEmail(t *testing.T) {
	repo := newMemoryUserRepo()
	service := newTestService(repo)

	_, err := service.Signup(context.Background(), "a@x.com", "secret1")
	require.NoError(t, err)

	_, err = service.Signup(context.Background(), "a@x.com", "another1")
	require.ErrorIs(t, err, shared.ErrDuplicate)
	require.Len(t, repo.byID, 1, "rejected signup must not create a record")
}

func TestSignupShortPassword(t *testing.T) {
	repo := newMemoryUserRepo()
	service := newTestService(repo)

	_, err := service.Signup(context.Background(), "a@x.com", "short")
	require.ErrorIs(t, err, shared.ErrValidation)
	require.Empty(t, repo.byID)
}

func TestLoginCollapsesFailureModes(t *testing.T) {
	repo := newMemoryUserRepo()
	service := newTestService(repo)

	_, err := service.Signup(context.Background(), "a@x.com", "secret1")
	require.NoError(t, err)

	_, wrongPassword := service.Login(context.Background(), "a@x.com", "wrongpass")
	_, unknownEmail := service.Login(context.Background(), "nobody@x.com", "secret1")

	require.ErrorIs(t, wrongPassword, shared.ErrInvalidCredentials)
	require.ErrorIs(t, unknownEmail, shared.ErrInvalidCredentials)
	require.Equal(t, wrongPassword, unknownEmail, "failure modes must be indistinguishable")
}

func TestLoginSuccess(t *testing.T) {
	repo := newMemoryUserRepo()
	service := newTestService(repo)

	signup, err := service.Signup(context.Background(), "a@x.com", "secret1")
	require.NoError(t, err)

	login, err := service.Login(context.Background(), "a@x.com", "secret1")
	require.NoError(t, err)
	require.Equal(t, signup.User, login.User)
	require.NotEmpty(t, login.Token)
}

func TestProfile(t *testing.T) {
	repo := newMemoryUserRepo()
	service := newTestService(repo)

	signup, err := service.Signup(context.Background(), "a@x.com", "secret1")
	require.NoError(t, err)

	profile, err := service.Profile(context.Background(), signup.User.ID)
	require.NoError(t, err)
	require.Equal(t, signup.User, *profile)

	// A user deleted after token issuance reads as unauthenticated.
	_, err = service.Profile(context.Background(), "missing-user")
	require.ErrorIs(t, err, shared.ErrUnauthorized)
}
