package middlewares

import (
	"fmt"
	"net/http"
	"slices"

	"github.com/dmitrymomot/warden/pkg/gate"
	"github.com/dmitrymomot/warden/pkg/guard"
)

// AuthorizeOption configures the enforcement middlewares (Authorize,
// RequireRole, RequirePermission).
type AuthorizeOption func(*authorizeConfig)

type authorizeConfig struct {
	gate       *gate.Gate
	message    string
	requireAll bool
	resource   func(*http.Request) any
	onError    ErrorHandler
}

// WithGate sets the gate used when none is bound to the request context.
func WithGate(g *gate.Gate) AuthorizeOption {
	return func(c *authorizeConfig) { c.gate = g }
}

// WithMessage overrides the denial message written to the client.
func WithMessage(msg string) AuthorizeOption {
	return func(c *authorizeConfig) { c.message = msg }
}

// WithRequireAny makes a multi-ability Authorize pass when any single
// ability is granted, instead of requiring all of them.
func WithRequireAny() AuthorizeOption {
	return func(c *authorizeConfig) { c.requireAll = false }
}

// WithResource supplies a per-request resource passed to ability checks,
// typically loaded from route parameters.
func WithResource(fn func(*http.Request) any) AuthorizeOption {
	return func(c *authorizeConfig) { c.resource = fn }
}

// WithErrorHandler replaces the default JSON error responder.
func WithErrorHandler(h ErrorHandler) AuthorizeOption {
	return func(c *authorizeConfig) {
		if h != nil {
			c.onError = h
		}
	}
}

func newAuthorizeConfig(opts []AuthorizeOption) authorizeConfig {
	cfg := authorizeConfig{
		requireAll: true,
		onError:    defaultErrorHandler,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// Authorize rejects requests whose principal is not granted the listed
// abilities. With multiple abilities all must pass unless WithRequireAny
// is set. The gate bound to the request context takes precedence over the
// configured one; the principal must have been stored by Authenticate or
// WithPrincipal.
func Authorize(abilities []string, opts ...AuthorizeOption) func(http.Handler) http.Handler {
	cfg := newAuthorizeConfig(opts)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			principal, ok := PrincipalFrom(ctx)
			if !ok {
				cfg.onError(w, r, ErrNotAuthenticated)
				return
			}

			g := GateFrom(ctx)
			if g == nil {
				g = cfg.gate
			}
			if g == nil {
				cfg.onError(w, r, ErrGateUnavailable)
				return
			}
			g = g.ForUser(principal)

			var args []any
			if cfg.resource != nil {
				args = append(args, cfg.resource(r))
			}

			allowed, err := checkAbilities(r, g, abilities, cfg.requireAll, args)
			if err != nil {
				cfg.onError(w, r, err)
				return
			}
			if !allowed {
				cfg.onError(w, r, &ForbiddenError{Message: denialMessage(cfg, abilities)})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func checkAbilities(r *http.Request, g *gate.Gate, abilities []string, requireAll bool, args []any) (bool, error) {
	ctx := r.Context()
	if len(abilities) == 1 {
		return g.Allows(ctx, abilities[0], args...)
	}
	if requireAll {
		return g.Every(ctx, abilities, args...)
	}
	return g.Any(ctx, abilities, args...)
}

func denialMessage(cfg authorizeConfig, abilities []string) string {
	if cfg.message != "" {
		return cfg.message
	}
	if len(abilities) == 1 {
		return fmt.Sprintf("You do not have permission to %s", abilities[0])
	}
	return "You do not have the required permissions"
}

// RequireRole rejects requests whose principal does not hold the listed
// roles: all of them by default, at least one with WithRequireAny. Roles
// are read straight off the principal via the guard.RoleBearer and
// guard.RolesBearer interfaces; no gate is consulted.
func RequireRole(roles []string, opts ...AuthorizeOption) func(http.Handler) http.Handler {
	cfg := newAuthorizeConfig(opts)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := PrincipalFrom(r.Context())
			if !ok {
				cfg.onError(w, r, ErrNotAuthenticated)
				return
			}

			if !holdsRequired(principalRoles(principal), roles, cfg.requireAll) {
				msg := cfg.message
				if msg == "" {
					msg = "You do not have the required role(s)"
				}
				cfg.onError(w, r, &ForbiddenError{Message: msg})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequirePermission rejects requests whose principal does not hold the
// listed permissions (all by default, any with WithRequireAny), read via
// guard.PermissionsBearer.
func RequirePermission(permissions []string, opts ...AuthorizeOption) func(http.Handler) http.Handler {
	cfg := newAuthorizeConfig(opts)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := PrincipalFrom(r.Context())
			if !ok {
				cfg.onError(w, r, ErrNotAuthenticated)
				return
			}

			if !holdsRequired(principalPermissions(principal), permissions, cfg.requireAll) {
				msg := cfg.message
				if msg == "" {
					msg = "You do not have the required permission(s)"
				}
				cfg.onError(w, r, &ForbiddenError{Message: msg})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// principalRoles collects the principal's roles from both the singular and
// plural bearer interfaces, so a lone Role() can satisfy a one-element
// requirement.
func principalRoles(principal guard.Principal) []string {
	var held []string
	if b, ok := principal.(guard.RoleBearer); ok && b.Role() != "" {
		held = append(held, b.Role())
	}
	if b, ok := principal.(guard.RolesBearer); ok {
		held = append(held, b.Roles()...)
	}
	return held
}

func principalPermissions(principal guard.Principal) []string {
	b, ok := principal.(guard.PermissionsBearer)
	if !ok {
		return nil
	}
	return b.Permissions()
}

// holdsRequired reports whether held covers required: every entry when
// requireAll, at least one otherwise. An empty required set is vacuously
// covered in all-of mode and never matched in any-of mode, mirroring the
// gate's Every/Any semantics.
func holdsRequired(held, required []string, requireAll bool) bool {
	if requireAll {
		for _, want := range required {
			if !slices.Contains(held, want) {
				return false
			}
		}
		return true
	}
	for _, want := range required {
		if slices.Contains(held, want) {
			return true
		}
	}
	return false
}
