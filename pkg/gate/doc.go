// Package gate provides the authorization decision engine: named ability
// callbacks, resource policies, and before/after hook chains evaluated with
// strict ordering and short-circuit semantics.
//
// # Overview
//
// A Gate holds three kinds of registrations:
//   - Abilities: named predicates registered with Define.
//   - Policies: capability sets bound to a resource key with Policy,
//     PolicyLazy, or Resource.
//   - Hooks: Before hooks that can short-circuit evaluation and After hooks
//     that can override the running result.
//
// Checks resolve the current principal through a UserResolver, run the
// before hooks in registration order, dispatch to a direct ability or a
// policy method, and finally run the after hooks in registration order.
// An ability with no matching registration evaluates to false (fail-closed).
//
// # Basic Usage
//
//	g := gate.New(gate.WithUserResolver(resolver))
//
//	g.Define("edit-settings", func(ctx context.Context, principal any, args ...any) (bool, error) {
//	    u := principal.(*User)
//	    return u.IsAdmin, nil
//	})
//
//	ok, err := g.Check(ctx, "edit-settings")
//
// # Policies
//
// A policy groups the abilities for one resource type. Bind it to a stable
// resource key, then let checks dispatch through the resource argument:
//
//	g.Policy("post", PostPolicy{})
//	g.PolicyFor(&Post{}, "post") // plain structs without ResourceKey()
//
//	ok, err := g.Check(ctx, "update", post)
//
// # Hooks
//
// Before hooks run first and can settle the decision for every ability,
// which is how super-admin overrides are usually expressed:
//
//	g.Before(func(ctx context.Context, principal any, ability string, args []any) (gate.Decision, error) {
//	    if u, ok := principal.(*User); ok && u.IsSuperAdmin {
//	        return gate.Allow, nil
//	    }
//	    return gate.Abstain, nil
//	})
//
// After hooks observe and may replace the result. They run even when a
// before hook short-circuited the decision.
//
// # Request Scoping
//
// ForUser returns a gate bound to a fixed principal. The fork shares the
// ability and policy registry with its parent but carries its own copy of
// the hook lists, so concurrent checks for different principals never
// interfere.
package gate
