package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/clinichub/authcore"
	"github.com/clinichub/authcore/token"
)

type claimsContextKey struct{}

// ClaimsFromContext returns the verified claims the guard attached to the
// request context.
func ClaimsFromContext(ctx context.Context) (*token.Claims, bool) {
	claims, ok := ctx.Value(claimsContextKey{}).(*token.Claims)
	return claims, ok
}

// Guard returns middleware enforcing a valid, unrevoked access token. When
// requiredRoles is non-empty the token's role claim must match one of them.
// On success the verified claims are attached to the request context for
// downstream handlers.
func Guard(engine *authcore.Engine, requiredRoles ...authcore.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				unauthorized(w)
				return
			}

			tok, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				unauthorized(w)
				return
			}

			claims, err := engine.Validate(r.Context(), tok, requiredRoles...)
			if err != nil {
				switch {
				case errors.Is(err, authcore.ErrForbidden):
					http.Error(w, "forbidden", http.StatusForbidden)
				case errors.Is(err, authcore.ErrLedgerUnavailable):
					// Backend down: fail closed, signal retryability.
					http.Error(w, "service unavailable", http.StatusServiceUnavailable)
				default:
					unauthorized(w)
				}
				return
			}

			ctx := context.WithValue(r.Context(), claimsContextKey{}, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole is shorthand for Guard with a single required role.
func RequireRole(engine *authcore.Engine, role authcore.Role) func(http.Handler) http.Handler {
	return Guard(engine, role)
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="authcore"`)
	http.Error(w, "unauthorized", http.StatusUnauthorized)
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	tok := value[len(bearer):]
	if tok == "" {
		return "", false
	}

	return tok, true
}
