package middlewares

import (
	"net/http"
	"strings"

	"github.com/dmitrymomot/warden/pkg/guard"
)

// Authenticate resolves the current principal through the named guard (or
// the manager's default) and stores it in the request context. Requests
// without a resolvable principal pass through unauthenticated; rejection
// is the job of the enforcement middlewares.
//
// A bearer token from the Authorization header is bound to the context
// before the guard runs, so token guards see it without touching the
// request themselves.
func Authenticate(m *guard.Manager, guardName ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if token := bearerToken(r); token != "" {
				ctx = guard.WithBearerToken(ctx, token)
			}

			g, err := m.Guard(guardName...)
			if err != nil {
				defaultErrorHandler(w, r, err)
				return
			}

			user, err := g.User(ctx)
			if err != nil {
				defaultErrorHandler(w, r, err)
				return
			}
			if user != nil {
				ctx = WithPrincipal(ctx, user)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}
