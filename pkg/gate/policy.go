package gate

import (
	"context"
	"reflect"
	"sync"
)

// PolicyFunc decides a single ability for one resource type.
// For collection-level abilities like viewAny or create, resource is nil.
type PolicyFunc func(ctx context.Context, principal, resource any, args ...any) (bool, error)

// Policy is a capability set bound to a resource type. Abilities returns
// the named decision functions; the map is read once at binding time, so
// implementations may build it on every call.
type Policy interface {
	Abilities() map[string]PolicyFunc
}

// BeforePolicy is optionally implemented by policies that want to settle
// every ability for their resource before the named function runs.
// Returning Abstain falls through to the named PolicyFunc.
type BeforePolicy interface {
	Before(ctx context.Context, principal any, ability string, args []any) (Decision, error)
}

// Resourcer is implemented by resources that carry their own stable type
// tag. It is the preferred dispatch path: keys survive refactoring and
// never depend on runtime type names.
type Resourcer interface {
	ResourceKey() string
}

// PolicyMap is a convenience Policy built from a plain map.
//
//	g.Policy("post", gate.PolicyMap{
//	    "view": func(ctx context.Context, principal, resource any, _ ...any) (bool, error) { ... },
//	})
type PolicyMap map[string]PolicyFunc

// Abilities implements Policy.
func (m PolicyMap) Abilities() map[string]PolicyFunc {
	return m
}

// DefaultResourceAbilities is the ability set registered by Resource when
// no explicit list is given.
var DefaultResourceAbilities = []string{"viewAny", "view", "create", "update", "delete"}

// policyBinding holds one resource-key binding. Lazy bindings are resolved
// at most once, on first use, under the binding's own lock so concurrent
// first checks observe a single policy instance.
type policyBinding struct {
	once    sync.Once
	policy  Policy
	lazy    func() Policy
	methods map[string]PolicyFunc
}

func (b *policyBinding) resolve() Policy {
	b.once.Do(func() {
		if b.policy == nil && b.lazy != nil {
			b.policy = b.lazy()
		}
		if b.policy != nil {
			b.methods = b.policy.Abilities()
		}
	})
	return b.policy
}

// registry stores abilities and policy bindings. It is shared by reference
// across ForUser forks: registration is a boot-time activity, but the
// RWMutex keeps late registration safe under concurrent checks.
type registry struct {
	mu        sync.RWMutex
	abilities map[string]Ability
	policies  map[string]*policyBinding
	types     map[reflect.Type]string
}

func newRegistry() *registry {
	return &registry{
		abilities: make(map[string]Ability),
		policies:  make(map[string]*policyBinding),
		types:     make(map[reflect.Type]string),
	}
}

func (r *registry) define(name string, fn Ability) {
	r.mu.Lock()
	r.abilities[name] = fn
	r.mu.Unlock()
}

func (r *registry) ability(name string) (Ability, bool) {
	r.mu.RLock()
	fn, ok := r.abilities[name]
	r.mu.RUnlock()
	return fn, ok
}

func (r *registry) has(name string) bool {
	r.mu.RLock()
	_, ok := r.abilities[name]
	r.mu.RUnlock()
	return ok
}

func (r *registry) bind(key string, b *policyBinding) {
	r.mu.Lock()
	r.policies[key] = b
	r.mu.Unlock()
}

func (r *registry) bindType(t reflect.Type, key string) {
	r.mu.Lock()
	r.types[t] = key
	r.mu.Unlock()
}

func typeOf(v any) reflect.Type {
	return reflect.TypeOf(v)
}

// bindingFor resolves the policy binding for a resource argument.
// Resources implementing Resourcer dispatch by their own key; everything
// else goes through the reflect.Type index populated by PolicyFor.
func (r *registry) bindingFor(resource any) (*policyBinding, bool) {
	if resource == nil {
		return nil, false
	}

	var key string
	if res, ok := resource.(Resourcer); ok {
		key = res.ResourceKey()
	} else {
		r.mu.RLock()
		key = r.types[reflect.TypeOf(resource)]
		r.mu.RUnlock()
	}
	if key == "" {
		return nil, false
	}

	r.mu.RLock()
	b, ok := r.policies[key]
	r.mu.RUnlock()
	return b, ok
}
