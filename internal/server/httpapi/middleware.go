package httpapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/messagely/backend/internal/logging"
	"github.com/messagely/backend/internal/server/auth"
)

type ctxKey string

const callerKey ctxKey = "caller"

// CallerFromContext returns the authenticated username attached by the
// Authenticate middleware.
func CallerFromContext(ctx context.Context) (string, bool) {
	caller, ok := ctx.Value(callerKey).(string)
	return caller, ok
}

// withCaller returns a copy of ctx carrying the caller username. Exposed to
// tests so handlers can be exercised without the middleware stack.
func withCaller(ctx context.Context, username string) context.Context {
	return context.WithValue(ctx, callerKey, username)
}

// Authenticate validates the Bearer token and attaches the caller username
// to the request context. Requests without a valid token get 401.
func Authenticate(secretKey []byte) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				writeErrorMessage(w, http.StatusUnauthorized, "authorization header required")
				return
			}
			if !strings.HasPrefix(header, "Bearer ") {
				writeErrorMessage(w, http.StatusUnauthorized, "invalid authorization format")
				return
			}

			token := strings.TrimPrefix(header, "Bearer ")
			username, err := auth.GetUsernameFromToken(token, secretKey)
			if err != nil {
				writeErrorMessage(w, http.StatusUnauthorized, "invalid token")
				return
			}

			next.ServeHTTP(w, r.WithContext(withCaller(r.Context(), username)))
		})
	}
}

// RequestLogging assigns each request an id and logs method, path, and
// duration once the handler returns.
func RequestLogging(log logging.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			requestID := uuid.NewString()

			next.ServeHTTP(w, r)

			log.Info(r.Context(), "request handled",
				"request_id", requestID,
				"method", r.Method,
				"path", r.URL.Path,
				"duration", time.Since(start).String(),
			)
		})
	}
}
