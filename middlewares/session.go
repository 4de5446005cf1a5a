package middlewares

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/warden/pkg/guard"
	"github.com/dmitrymomot/warden/pkg/session"
)

const defaultSessionCookie = "session_token"

const defaultSessionTTL = 24 * time.Hour

// SessionOption configures the Session middleware.
type SessionOption func(*sessionConfig)

type sessionConfig struct {
	cookieName string
	ttl        time.Duration
	secure     bool
	log        *slog.Logger
}

// WithSessionCookie overrides the session cookie name.
func WithSessionCookie(name string) SessionOption {
	return func(c *sessionConfig) {
		if name != "" {
			c.cookieName = name
		}
	}
}

// WithSessionTTL overrides the lifetime of newly created sessions.
func WithSessionTTL(ttl time.Duration) SessionOption {
	return func(c *sessionConfig) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithSecureCookie marks the session cookie as Secure (HTTPS only).
func WithSecureCookie() SessionOption {
	return func(c *sessionConfig) { c.secure = true }
}

// WithSessionLogger sets the logger for session persistence failures.
// If nil, logging is disabled.
func WithSessionLogger(l *slog.Logger) SessionOption {
	return func(c *sessionConfig) {
		if l != nil {
			c.log = l
		}
	}
}

// Session loads the client's session from the store using the session
// cookie, creating an anonymous session when none exists, and binds it to
// the request context for the session guard. After the handler runs, new
// or modified sessions are persisted back to the store.
func Session(store session.Store, opts ...SessionOption) func(http.Handler) http.Handler {
	cfg := sessionConfig{
		cookieName: defaultSessionCookie,
		ttl:        defaultSessionTTL,
		log:        slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			var sess *session.Session
			if cookie, err := r.Cookie(cfg.cookieName); err == nil && cookie.Value != "" {
				loaded, err := store.Get(ctx, cookie.Value)
				switch {
				case err == nil:
					sess = loaded
				case errors.Is(err, session.ErrNotFound), errors.Is(err, session.ErrExpired):
					// Stale cookie, fall through to a fresh session.
				default:
					defaultErrorHandler(w, r, err)
					return
				}
			}

			if sess == nil {
				sess = session.New(uuid.NewString(), uuid.NewString(), time.Now().Add(cfg.ttl))
				http.SetCookie(w, &http.Cookie{
					Name:     cfg.cookieName,
					Value:    sess.Token,
					Path:     "/",
					Expires:  sess.ExpiresAt,
					HttpOnly: true,
					Secure:   cfg.secure,
					SameSite: http.SameSiteLaxMode,
				})
			}

			ctx = guard.WithSession(ctx, sess)
			next.ServeHTTP(w, r.WithContext(ctx))

			switch {
			case sess.IsNew():
				if err := store.Create(ctx, sess); err != nil {
					cfg.log.ErrorContext(ctx, "failed to persist new session",
						slog.String("session_id", sess.ID),
						slog.String("error", err.Error()),
					)
					return
				}
				sess.ClearNew()
				sess.ClearDirty()
			case sess.IsDirty():
				if err := store.Update(ctx, sess); err != nil {
					cfg.log.ErrorContext(ctx, "failed to persist session",
						slog.String("session_id", sess.ID),
						slog.String("error", err.Error()),
					)
					return
				}
				sess.ClearDirty()
			}
		})
	}
}
