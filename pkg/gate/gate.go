package gate

import (
	"context"
	"log/slog"
	"slices"
)

// Ability is a named predicate deciding a single permission check.
// The principal is whatever the configured UserResolver produced and may
// be nil for guests.
type Ability func(ctx context.Context, principal any, args ...any) (bool, error)

// UserResolver produces the current principal for a check. It is supplied
// by the authentication layer; returning nil means no authenticated user.
type UserResolver func(ctx context.Context) (any, error)

// BeforeHook runs before ability resolution. The first hook returning a
// settled decision short-circuits evaluation.
type BeforeHook func(ctx context.Context, principal any, ability string, args []any) (Decision, error)

// AfterHook runs after ability resolution, observing the running result.
// A settled decision replaces the result; Abstain leaves it untouched.
type AfterHook func(ctx context.Context, principal any, ability string, result bool, args []any) (Decision, error)

// Gate is the authorization checkpoint. Forks created with ForUser share
// the ability/policy registry but carry independent hook lists and their
// own principal resolver.
type Gate struct {
	registry *registry
	resolver UserResolver
	log      *slog.Logger
	before   []BeforeHook
	after    []AfterHook
}

// Option configures a Gate.
type Option func(*Gate)

// WithUserResolver sets the principal resolver used by checks.
func WithUserResolver(r UserResolver) Option {
	return func(g *Gate) {
		if r != nil {
			g.resolver = r
		}
	}
}

// WithLogger sets the logger used for debug-level evaluation traces.
// If nil, logging is disabled.
func WithLogger(l *slog.Logger) Option {
	return func(g *Gate) {
		if l != nil {
			g.log = l
		}
	}
}

// New creates an empty Gate. Without WithUserResolver every check runs
// with a nil principal.
func New(opts ...Option) *Gate {
	g := &Gate{
		registry: newRegistry(),
		resolver: func(context.Context) (any, error) { return nil, nil },
		log:      slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Define registers an ability callback, overwriting any existing ability
// with the same name.
func (g *Gate) Define(name string, fn Ability) *Gate {
	g.registry.define(name, fn)
	return g
}

// Policy binds a policy instance to a resource key.
func (g *Gate) Policy(key string, p Policy) *Gate {
	g.registry.bind(key, &policyBinding{policy: p})
	return g
}

// PolicyLazy binds a policy constructor to a resource key. The constructor
// runs at most once, on the first check that dispatches to the key.
func (g *Gate) PolicyLazy(key string, fn func() Policy) *Gate {
	g.registry.bind(key, &policyBinding{lazy: fn})
	return g
}

// PolicyFor indexes the concrete type of prototype under a resource key so
// plain structs that do not implement Resourcer still dispatch to their
// policy. Call Policy or PolicyLazy with the same key to bind the policy
// itself.
func (g *Gate) PolicyFor(prototype any, key string) *Gate {
	if prototype != nil {
		g.registry.bindType(typeOf(prototype), key)
	}
	return g
}

// Resource bulk-registers "<name>.<ability>" abilities that delegate to
// the policy's decision functions. With no explicit ability list the
// default set (viewAny, view, create, update, delete) is registered.
// Abilities without a matching policy function stay fail-closed.
func (g *Gate) Resource(name string, p Policy, abilities ...string) *Gate {
	if len(abilities) == 0 {
		abilities = DefaultResourceAbilities
	}
	methods := p.Abilities()
	for _, ability := range abilities {
		fn, ok := methods[ability]
		if !ok {
			continue
		}
		g.Define(name+"."+ability, delegateToPolicy(fn))
	}
	return g
}

// delegateToPolicy adapts a PolicyFunc into an Ability: the first check
// argument becomes the resource, the rest pass through.
func delegateToPolicy(fn PolicyFunc) Ability {
	return func(ctx context.Context, principal any, args ...any) (bool, error) {
		var resource any
		rest := args
		if len(args) > 0 {
			resource = args[0]
			rest = args[1:]
		}
		return fn(ctx, principal, resource, rest...)
	}
}

// Before appends a hook that runs before ability resolution.
func (g *Gate) Before(h BeforeHook) *Gate {
	g.before = append(g.before, h)
	return g
}

// After appends a hook that runs after ability resolution.
func (g *Gate) After(h AfterHook) *Gate {
	g.after = append(g.after, h)
	return g
}

// Has reports whether every named ability is registered.
func (g *Gate) Has(names ...string) bool {
	for _, name := range names {
		if !g.registry.has(name) {
			return false
		}
	}
	return true
}

// ForUser returns a Gate whose resolver always yields principal. The fork
// shares the ability/policy registry by reference and copies the hook
// lists, so hooks added to either gate afterwards stay independent.
func (g *Gate) ForUser(principal any) *Gate {
	return &Gate{
		registry: g.registry,
		resolver: func(context.Context) (any, error) { return principal, nil },
		log:      g.log,
		before:   slices.Clone(g.before),
		after:    slices.Clone(g.after),
	}
}

// Check evaluates an ability for the current principal.
//
// Evaluation order: before hooks (first settled decision short-circuits),
// then the direct ability or the policy bound to the first argument, then
// after hooks (each settled decision replaces the running result). After
// hooks run even when a before hook settled the decision. An ability with
// no matching registration evaluates to false.
//
// Callback and resolver errors propagate unmodified; they are never
// converted into a denial.
func (g *Gate) Check(ctx context.Context, ability string, args ...any) (bool, error) {
	principal, err := g.resolver(ctx)
	if err != nil {
		return false, err
	}

	result, settled, err := g.runBefore(ctx, principal, ability, args)
	if err != nil {
		return false, err
	}
	if !settled {
		result, err = g.resolve(ctx, principal, ability, args)
		if err != nil {
			return false, err
		}
	}

	for _, hook := range g.after {
		d, err := hook(ctx, principal, ability, result, args)
		if err != nil {
			return false, err
		}
		if d.Settled() {
			result = d.Bool()
		}
	}

	g.log.DebugContext(ctx, "gate check",
		slog.String("ability", ability),
		slog.Bool("allowed", result),
	)
	return result, nil
}

// runBefore walks the before hooks in registration order. The chain is
// strictly sequential: a later hook must not run once an earlier one has
// settled the decision.
func (g *Gate) runBefore(ctx context.Context, principal any, ability string, args []any) (bool, bool, error) {
	for _, hook := range g.before {
		d, err := hook(ctx, principal, ability, args)
		if err != nil {
			return false, false, err
		}
		if d.Settled() {
			return d.Bool(), true, nil
		}
	}
	return false, false, nil
}

// resolve dispatches to a direct ability or, failing that, to the policy
// bound to the first argument. A directly-defined ability always wins over
// a same-named policy method.
func (g *Gate) resolve(ctx context.Context, principal any, ability string, args []any) (bool, error) {
	if fn, ok := g.registry.ability(ability); ok {
		return fn(ctx, principal, args...)
	}

	var resource any
	rest := args
	if len(args) > 0 {
		resource = args[0]
		rest = args[1:]
	}

	binding, ok := g.registry.bindingFor(resource)
	if !ok {
		return false, nil
	}
	policy := binding.resolve()
	if policy == nil {
		return false, nil
	}

	if bp, ok := policy.(BeforePolicy); ok {
		d, err := bp.Before(ctx, principal, ability, args)
		if err != nil {
			return false, err
		}
		if d.Settled() {
			return d.Bool(), nil
		}
	}

	fn, ok := binding.methods[ability]
	if !ok {
		return false, nil
	}
	return fn(ctx, principal, resource, rest...)
}

// Allows reports whether the ability check passes.
func (g *Gate) Allows(ctx context.Context, ability string, args ...any) (bool, error) {
	return g.Check(ctx, ability, args...)
}

// Denies reports whether the ability check fails.
func (g *Gate) Denies(ctx context.Context, ability string, args ...any) (bool, error) {
	ok, err := g.Check(ctx, ability, args...)
	if err != nil {
		return false, err
	}
	return !ok, nil
}

// Any reports whether at least one of the abilities passes.
// Any with no abilities is false.
func (g *Gate) Any(ctx context.Context, abilities []string, args ...any) (bool, error) {
	for _, ability := range abilities {
		ok, err := g.Check(ctx, ability, args...)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// Every reports whether all abilities pass. Every with no abilities is
// vacuously true.
func (g *Gate) Every(ctx context.Context, abilities []string, args ...any) (bool, error) {
	for _, ability := range abilities {
		ok, err := g.Check(ctx, ability, args...)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// None reports whether none of the abilities pass.
func (g *Gate) None(ctx context.Context, abilities []string, args ...any) (bool, error) {
	ok, err := g.Any(ctx, abilities, args...)
	if err != nil {
		return false, err
	}
	return !ok, nil
}

// Authorize evaluates an ability and returns a *DeniedError when the check
// resolves to false. Evaluation failures propagate as-is and are
// distinguishable from denials via IsDenied.
func (g *Gate) Authorize(ctx context.Context, ability string, args ...any) error {
	ok, err := g.Check(ctx, ability, args...)
	if err != nil {
		return err
	}
	if !ok {
		return &DeniedError{Ability: ability}
	}
	return nil
}
