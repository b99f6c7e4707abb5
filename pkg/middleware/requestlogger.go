package middleware

import (
	"log/slog"
	"net/http"

	"github.com/BeyzaNurKeskinn/Trinity-Password-Manager/pkg/logger"
)

// RequestLogger stores a logger enriched with correlation_id, username,
// trace_id and span_id in the request context, for logger.FromContext.
// Mount it after RequestLogging, Tracing and Auth so those fields exist.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if id, ok := IdentityFromContext(ctx); ok && logger.UsernameFromContext(ctx) == "" {
				ctx = logger.WithUsername(ctx, id.Username)
			}
			ctx = logger.NewContext(ctx, logger.WithContext(ctx, base))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
