package api

import (
	"net/http"

	"blogflow/internal/api/middleware"
	"blogflow/pkg/logger"
)

// Handlers groups everything the router mounts.
type Handlers struct {
	Users    *UserHandler
	Follows  *FollowHandler
	Articles *ArticleHandler
	Health   *HealthHandler
	Resolver middleware.PrincipalResolver
}

// NewRouter mounts all routes and wraps them in the standard middleware
// stack. Metrics stays innermost so it observes the matched route pattern.
func NewRouter(h Handlers, log logger.Logger) http.Handler {
	mux := http.NewServeMux()
	requireAuth := middleware.RequireAuth(h.Resolver, log)

	h.Users.RegisterRoutes(mux, requireAuth)
	h.Follows.RegisterRoutes(mux, requireAuth)
	h.Articles.RegisterRoutes(mux, requireAuth)
	if h.Health != nil {
		h.Health.RegisterRoutes(mux)
	}

	return middleware.Chain(mux,
		middleware.RequestID,
		middleware.Recover(log),
		middleware.Tracing,
		middleware.Logging(log),
		middleware.Metrics,
	)
}
