package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"blogflow/pkg/logger"
)

const RequestIDHeader = "X-Request-ID"

// RequestID reuses a caller supplied id or generates one, and exposes it on
// the response and in the request context.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}

		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(logger.ContextWithRequestID(r.Context(), id)))
	})
}
