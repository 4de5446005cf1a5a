// Package guard provides named authentication guards resolved from
// driver/provider configuration, and the user providers that back them.
//
// A Manager owns the guard configuration and an explicit registry of
// driver factories. Guards are constructed lazily and memoized by name:
// the first Guard call for a name builds the guard through its driver
// factory, concurrent first calls collapse into a single construction, and
// every later call returns the cached instance.
//
//	m := guard.NewManager(guard.Config{
//	    Default: "web",
//	    Guards: map[string]guard.GuardConfig{
//	        "web": {Driver: "session", Provider: "users"},
//	        "api": {Driver: "token", Provider: "users", TokenSecret: secret},
//	    },
//	    Providers: map[string]guard.ProviderConfig{
//	        "users": {Driver: "model", Repository: repo},
//	    },
//	})
//
//	g, err := m.Guard("api")
//
// Configuration errors (unknown guard, driver, or provider) are
// startup-class: they should fail application boot, not be caught
// per-request.
//
// Guard instances are shared across requests; request state (the session,
// the bearer token) travels through the context, placed there by the
// middlewares package.
//
// Custom drivers register through Extend and take precedence over
// built-ins of the same name:
//
//	m.Extend("ldap", func(m *guard.Manager, name string, cfg guard.GuardConfig) (guard.Guard, error) {
//	    return newLDAPGuard(cfg)
//	})
package guard
