// Package warden is an authorization and authentication toolkit: gates
// evaluate abilities and policies for a principal, guards resolve the
// principal from sessions or bearer tokens, and net/http middleware ties
// both to the request boundary.
//
// The root package re-exports the public API of the subpackages so most
// applications import only warden and warden/middlewares:
//
//	g := warden.NewGate().
//	    Define("post.publish", canPublish).
//	    Policy("post", PostPolicy{})
//
//	m := warden.NewGuardManager(cfg)
//
//	r := chi.NewRouter()
//	r.Use(middlewares.Session(store))
//	r.Use(middlewares.Authenticate(m))
//	r.With(middlewares.Authorize([]string{"post.publish"}, middlewares.WithGate(g))).
//	    Post("/posts/{id}/publish", publishPost)
//
// See pkg/gate for the decision pipeline, pkg/guard for drivers and user
// providers, pkg/session for session stores, and middlewares for the HTTP
// layer.
package warden
