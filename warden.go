package warden

import (
	"log/slog"

	"github.com/dmitrymomot/warden/pkg/gate"
	"github.com/dmitrymomot/warden/pkg/guard"
	"github.com/dmitrymomot/warden/pkg/logger"
	"github.com/dmitrymomot/warden/pkg/session"
)

// Type aliases - public API
type (
	// Gate evaluates abilities and policies for a principal.
	Gate = gate.Gate

	// GateOption configures a Gate.
	GateOption = gate.Option

	// Decision is the tri-state outcome of a before/after hook.
	Decision = gate.Decision

	// Ability is a single named authorization check.
	Ability = gate.Ability

	// Policy groups ability checks for one resource type.
	Policy = gate.Policy

	// PolicyFunc is a single policy ability check.
	PolicyFunc = gate.PolicyFunc

	// BeforePolicy is a Policy with a pre-check that can short-circuit
	// every ability of the policy.
	BeforePolicy = gate.BeforePolicy

	// Resourcer is implemented by resources that name their own policy key.
	Resourcer = gate.Resourcer

	// BeforeHook runs before any ability resolution on the gate.
	BeforeHook = gate.BeforeHook

	// AfterHook observes and can override every gate decision.
	AfterHook = gate.AfterHook

	// UserResolver supplies the gate's default principal.
	UserResolver = gate.UserResolver

	// DeniedError carries the ability that failed an Authorize call.
	DeniedError = gate.DeniedError

	// GuardManager resolves and caches named guards and user providers.
	GuardManager = guard.Manager

	// GuardManagerOption configures a GuardManager.
	GuardManagerOption = guard.Option

	// GuardConfig is the full guard/provider configuration.
	GuardConfig = guard.Config

	// Guard resolves the current principal for a request.
	Guard = guard.Guard

	// StatefulGuard is a Guard that can persist authenticated state.
	StatefulGuard = guard.StatefulGuard

	// Principal is an authenticated identity.
	Principal = guard.Principal

	// Credentials are the key/value pairs used to locate and validate a
	// principal.
	Credentials = guard.Credentials

	// UserProvider retrieves principals from a backing store.
	UserProvider = guard.UserProvider

	// UserRepository backs the model user provider.
	UserRepository = guard.UserRepository

	// Session represents a client session.
	Session = session.Session

	// SessionStore defines the interface for session persistence.
	SessionStore = session.Store

	// ContextExtractor extracts slog attributes from context.
	// Used with NewLogger to add request-scoped values to logs.
	ContextExtractor = logger.ContextExtractor
)

// Decision values for before/after hooks.
const (
	Abstain = gate.Abstain
	Allow   = gate.Allow
	Deny    = gate.Deny
)

// Gate errors for checking return values.
var (
	ErrDenied = gate.ErrDenied
)

// Guard errors for checking return values.
var (
	ErrGuardNotDefined      = guard.ErrGuardNotDefined
	ErrDriverNotDefined     = guard.ErrDriverNotDefined
	ErrProviderNotDefined   = guard.ErrProviderNotDefined
	ErrUnsupportedOperation = guard.ErrUnsupportedOperation
	ErrUserNotFound         = guard.ErrUserNotFound
	ErrInvalidCredentials   = guard.ErrInvalidCredentials
)

// Session errors for checking return values.
var (
	ErrSessionNotFound = session.ErrNotFound
	ErrSessionExpired  = session.ErrExpired
)

// Constructors

// NewGate creates an authorization gate.
//
// Example:
//
//	g := warden.NewGate().
//	    Define("post.publish", canPublish).
//	    Policy("post", PostPolicy{})
//
//	if ok, _ := g.ForUser(user).Allows(ctx, "post.publish", post); ok {
//	    // ...
//	}
func NewGate(opts ...GateOption) *Gate {
	return gate.New(opts...)
}

// WithGateLogger sets the gate's decision trace logger.
func WithGateLogger(l *slog.Logger) GateOption {
	return gate.WithLogger(l)
}

// WithUserResolver sets the gate's default principal source, used when the
// gate has not been forked with ForUser.
func WithUserResolver(r UserResolver) GateOption {
	return gate.WithUserResolver(r)
}

// NewGuardManager creates a guard manager with the built-in "session" and
// "token" drivers and the "model" and "database" provider factories.
//
// Example:
//
//	m := warden.NewGuardManager(warden.GuardConfig{
//	    Default: "web",
//	    Guards: map[string]warden.GuardDriverConfig{
//	        "web": {Driver: "session", Provider: "users"},
//	        "api": {Driver: "token", Provider: "users", TokenSecret: secret},
//	    },
//	    Providers: map[string]warden.ProviderConfig{
//	        "users": {Driver: "model", Repository: repo},
//	    },
//	})
func NewGuardManager(cfg GuardConfig, opts ...GuardManagerOption) *GuardManager {
	return guard.NewManager(cfg, opts...)
}

// WithGuardLogger sets the manager's resolution trace logger.
func WithGuardLogger(l *slog.Logger) GuardManagerOption {
	return guard.WithLogger(l)
}

// Guard driver and provider configuration types.
type (
	// GuardDriverConfig configures a single named guard.
	GuardDriverConfig = guard.GuardConfig

	// ProviderConfig configures a single named user provider.
	ProviderConfig = guard.ProviderConfig
)

// NewMemorySessionStore creates an in-memory session store, suitable for
// development and tests.
func NewMemorySessionStore(opts ...session.MemoryOption) *session.Memory {
	return session.NewMemory(opts...)
}

// NewLogger creates a structured JSON logger with optional context
// extractors.
func NewLogger(extractors ...ContextExtractor) *slog.Logger {
	return logger.New(extractors...)
}

// SessionValue retrieves a typed value from a session. The boolean reports
// whether the key existed with the requested type.
//
// Example:
//
//	theme, ok := warden.SessionValue[string](sess, "theme")
func SessionValue[T any](sess *Session, key string) (T, bool) {
	v, ok := sess.GetValue(key)
	if !ok {
		var zero T
		return zero, false
	}
	typed, ok := v.(T)
	return typed, ok
}
