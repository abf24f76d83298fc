package api

import (
	"context"
	"net/http"
	"strings"
)

// Caller identifies an authenticated API caller.
type Caller struct {
	UserID string `yaml:"user_id" mapstructure:"user_id"`
	Admin  bool   `yaml:"admin" mapstructure:"admin"`
}

type callerKey struct{}

// CallerFromContext returns the authenticated caller, if any.
func CallerFromContext(ctx context.Context) (Caller, bool) {
	c, ok := ctx.Value(callerKey{}).(Caller)
	return c, ok
}

// WithCaller attaches a caller to the context; used by tests and by the
// auth middleware.
func WithCaller(ctx context.Context, c Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, c)
}

// BearerAuth authenticates requests against a static token table and
// rejects everything else as unauthenticated.
func BearerAuth(tokens map[string]Caller) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				writeError(w, Errorf(CodeUnauthenticated, "missing bearer token"))
				return
			}
			caller, ok := tokens[token]
			if !ok {
				writeError(w, Errorf(CodeUnauthenticated, "unknown token"))
				return
			}
			next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), caller)))
		})
	}
}
