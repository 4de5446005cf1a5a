// Package middlewares provides the request-boundary layer of the
// authorization engine: net/http middleware (chi-compatible) that loads
// sessions, authenticates principals through guards, and enforces
// abilities, roles, and permissions.
//
// The enforcement middlewares consume a principal placed in the request
// context by Authenticate (or by the host application directly via
// WithPrincipal), and a Gate passed explicitly at construction or bound to
// the request context with WithGate. There is no ambient global state.
//
//	r := chi.NewRouter()
//	r.Use(middlewares.Session(store))
//	r.Use(middlewares.Authenticate(manager))
//
//	r.With(middlewares.Authorize([]string{"post.update"},
//	    middlewares.WithGate(g),
//	    middlewares.WithResource(loadPost),
//	)).Put("/posts/{id}", updatePost)
//
//	r.With(middlewares.RequireRole([]string{"admin"})).
//	    Delete("/users/{id}", deleteUser)
//
// Denials are written as JSON with a context-specific message; pass
// WithErrorHandler to take over rendering.
package middlewares
