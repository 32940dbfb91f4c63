package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blogflow/internal/domain"
	"blogflow/internal/repository/memory"
)

type failingUsers struct {
	domain.UserRepository
}

func (failingUsers) FindByUsername(context.Context, string) (*domain.User, error) {
	return nil, errors.New("connection reset")
}

func newResolverFixture(t *testing.T) (*Resolver, *JWTProvider, *domain.User) {
	t.Helper()

	store := memory.NewStore()
	user := &domain.User{Username: "alice", PasswordHash: "x", Name: "Alice"}
	require.NoError(t, store.Users().Create(context.Background(), user))

	tokens := NewJWTProvider([]byte("access"), time.Hour, "blogflow", TokenTypeAccess)
	return NewResolver(tokens, store.Users()), tokens, user
}

func TestResolveValidToken(t *testing.T) {
	r, tokens, user := newResolverFixture(t)

	token, err := tokens.Issue("alice")
	require.NoError(t, err)

	p, err := r.Resolve(context.Background(), "Bearer "+token)
	require.NoError(t, err)
	assert.Equal(t, domain.Principal{UserID: user.ID, Username: "alice"}, p)

	p, err = r.Resolve(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, p.UserID)
}

func TestResolveRejects(t *testing.T) {
	r, tokens, _ := newResolverFixture(t)

	ghost, err := tokens.Issue("ghost")
	require.NoError(t, err)

	refresh := NewJWTProvider([]byte("access"), time.Hour, "blogflow", TokenTypeRefresh)
	refreshToken, err := refresh.Issue("alice")
	require.NoError(t, err)

	headers := map[string]string{
		"empty":         "",
		"bearer only":   "Bearer ",
		"garbage":       "Bearer nope",
		"unknown user":  "Bearer " + ghost,
		"refresh token": "Bearer " + refreshToken,
	}

	for name, header := range headers {
		t.Run(name, func(t *testing.T) {
			_, err := r.Resolve(context.Background(), header)
			assert.Equal(t, domain.KindUnauthorized, domain.KindOf(err), "got %v", err)
		})
	}
}

func TestResolvePropagatesRepositoryFailure(t *testing.T) {
	tokens := NewJWTProvider([]byte("access"), time.Hour, "blogflow", TokenTypeAccess)
	r := NewResolver(tokens, failingUsers{})

	token, err := tokens.Issue("alice")
	require.NoError(t, err)

	_, err = r.Resolve(context.Background(), "Bearer "+token)
	require.Error(t, err)
	assert.Equal(t, domain.KindInternalServerError, domain.KindOf(err))
}
