package guard

import (
	"context"

	"github.com/dmitrymomot/warden/pkg/session"
)

// Principal is the authenticated identity resolved by a guard.
type Principal interface {
	// AuthIdentifier returns the stable identifier used to retrieve the
	// principal from its user provider.
	AuthIdentifier() string
}

// RoleBearer is implemented by principals carrying a single role.
type RoleBearer interface {
	Role() string
}

// RolesBearer is implemented by principals carrying multiple roles.
type RolesBearer interface {
	Roles() []string
}

// PermissionsBearer is implemented by principals carrying a flat
// permission list.
type PermissionsBearer interface {
	Permissions() []string
}

// Credentials are the key/value pairs used to locate and validate a
// principal. Every key except "password" constrains the lookup; the
// "password" value is verified against the principal's stored hash.
type Credentials map[string]any

// Password returns the password credential, if present.
func (c Credentials) Password() (string, bool) {
	v, ok := c["password"].(string)
	return v, ok && v != ""
}

// Guard resolves the current principal for a request. Implementations are
// shared across requests; all request state travels in the context.
type Guard interface {
	// User returns the current principal, or nil for a guest.
	User(ctx context.Context) (Principal, error)

	// ID returns the current principal's identifier without necessarily
	// loading the full principal. Empty string for a guest.
	ID(ctx context.Context) (string, error)

	// Check reports whether a principal is present.
	Check(ctx context.Context) bool

	// Guest reports whether no principal is present.
	Guest(ctx context.Context) bool

	// Validate reports whether the credentials identify a valid
	// principal, without authenticating the request.
	Validate(ctx context.Context, credentials Credentials) (bool, error)
}

// StatefulGuard is a Guard that can persist an authenticated state, such
// as the session guard.
type StatefulGuard interface {
	Guard

	// Attempt validates credentials and, on success, logs the principal in.
	Attempt(ctx context.Context, credentials Credentials) (bool, error)

	// Login authenticates the given principal.
	Login(ctx context.Context, p Principal) error

	// LoginUsingID retrieves a principal by ID and logs it in.
	LoginUsingID(ctx context.Context, id string) (Principal, error)

	// Logout removes the authenticated state.
	Logout(ctx context.Context) error
}

// Context plumbing. The middlewares package populates these; guards
// consume them.

type sessionCtxKey struct{}

type bearerTokenCtxKey struct{}

// WithSession returns a context carrying the request session.
func WithSession(ctx context.Context, s *session.Session) context.Context {
	return context.WithValue(ctx, sessionCtxKey{}, s)
}

// SessionFrom extracts the request session from the context.
func SessionFrom(ctx context.Context) (*session.Session, bool) {
	s, ok := ctx.Value(sessionCtxKey{}).(*session.Session)
	return s, ok && s != nil
}

// WithBearerToken returns a context carrying the request's bearer token.
func WithBearerToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, bearerTokenCtxKey{}, token)
}

// BearerTokenFrom extracts the bearer token from the context.
func BearerTokenFrom(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(bearerTokenCtxKey{}).(string)
	return token, ok && token != ""
}
