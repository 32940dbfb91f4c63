package middleware

import (
	"context"
	"net/http"

	"blogflow/internal/api/response"
	"blogflow/internal/domain"
	"blogflow/pkg/logger"
)

// PrincipalResolver turns an Authorization header into the calling user.
type PrincipalResolver interface {
	Resolve(ctx context.Context, header string) (domain.Principal, error)
}

type principalKey struct{}

// PrincipalFrom returns the principal stored by RequireAuth.
func PrincipalFrom(ctx context.Context) (domain.Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(domain.Principal)
	return p, ok
}

func WithPrincipal(ctx context.Context, p domain.Principal) context.Context {
	ctx = context.WithValue(ctx, principalKey{}, p)
	return logger.ContextWithUserID(ctx, p.UserID)
}

// RequireAuth rejects requests without a valid bearer credential before
// next runs.
func RequireAuth(resolver PrincipalResolver, log logger.Logger) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			principal, err := resolver.Resolve(r.Context(), r.Header.Get("Authorization"))
			if err != nil {
				response.Error(w, r, log, err)
				return
			}
			next(w, r.WithContext(WithPrincipal(r.Context(), principal)))
		}
	}
}
