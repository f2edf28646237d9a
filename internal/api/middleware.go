package api

import (
	"context"
	"net/http"
	"strings"

	"serwer-dokumentow/internal/models"
)

type contextKey string

const callerContextKey = contextKey("caller")

func (s *Server) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Authorization header required", http.StatusUnauthorized)
			return
		}

		headerParts := strings.Split(authHeader, " ")
		if len(headerParts) != 2 || headerParts[0] != "Bearer" {
			http.Error(w, "Invalid Authorization header format", http.StatusUnauthorized)
			return
		}

		caller, err := s.verifier.Verify(headerParts[1])
		if err != nil {
			http.Error(w, "Invalid or expired token", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), caller)))
	})
}

func WithCaller(ctx context.Context, caller models.AuthContext) context.Context {
	return context.WithValue(ctx, callerContextKey, caller)
}

// GetCallerFromContext returns the zero AuthContext when the request was not
// authenticated; the tree rejects it with ErrUnauthenticated.
func GetCallerFromContext(ctx context.Context) models.AuthContext {
	if caller, ok := ctx.Value(callerContextKey).(models.AuthContext); ok {
		return caller
	}
	return models.AuthContext{}
}
