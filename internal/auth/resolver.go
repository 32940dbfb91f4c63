package auth

import (
	"context"
	"fmt"
	"strings"

	"blogflow/internal/domain"
)

const BearerPrefix = "Bearer "

// Resolver turns an Authorization header value into a Principal.
type Resolver struct {
	tokens domain.TokenProvider
	users  domain.UserRepository
}

func NewResolver(tokens domain.TokenProvider, users domain.UserRepository) *Resolver {
	return &Resolver{tokens: tokens, users: users}
}

// Resolve fails with KindUnauthorized for any bad or stale credential. A
// token whose user no longer exists is a stale session, not a missing user.
func (r *Resolver) Resolve(ctx context.Context, header string) (domain.Principal, error) {
	credential := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(header), BearerPrefix))
	if credential == "" {
		return domain.Principal{}, domain.NewError(domain.KindUnauthorized)
	}

	username, err := r.tokens.Verify(credential)
	if err != nil {
		return domain.Principal{}, domain.WrapError(domain.KindUnauthorized, err)
	}

	user, err := r.users.FindByUsername(ctx, username)
	if err != nil {
		return domain.Principal{}, fmt.Errorf("principal lookup failed: %w", err)
	}
	if user == nil {
		return domain.Principal{}, domain.NewError(domain.KindUnauthorized)
	}

	return domain.Principal{UserID: user.ID, Username: user.Username}, nil
}
