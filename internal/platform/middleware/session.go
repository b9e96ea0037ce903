package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"cardgate/internal/token"
	"cardgate/internal/transport/httputil"
	dErrors "cardgate/pkg/domainerrors"
)

// SessionValidator validates a bearer session token and returns its claims.
type SessionValidator interface {
	Validate(tokenString string) (*token.SessionClaims, error)
}

type claimsKey struct{}

// GetClaims retrieves the authenticated session claims from the context.
// Returns nil outside a RequireSession-guarded handler.
func GetClaims(ctx context.Context) *token.SessionClaims {
	claims, _ := ctx.Value(claimsKey{}).(*token.SessionClaims)
	return claims
}

// RequireSession validates the bearer token on every request and exposes the
// decoded claims to downstream handlers. Token failures keep their category
// (expired, bad signature, malformed) but all answer 401.
func RequireSession(validator SessionValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			tokenString, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok || tokenString == "" {
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "missing bearer token"))
				return
			}

			claims, err := validator.Validate(tokenString)
			if err != nil {
				logger.WarnContext(r.Context(), "session token rejected",
					"error", err,
					"request_id", GetRequestID(r.Context()),
				)
				httputil.WriteError(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey{}, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole rejects authenticated requests whose claims lack the role.
// Must be mounted inside RequireSession.
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, err := token.RequireRole(GetClaims(r.Context()), role); err != nil {
				httputil.WriteError(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
