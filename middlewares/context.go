package middlewares

import (
	"context"
	"log/slog"

	"github.com/dmitrymomot/warden/pkg/gate"
	"github.com/dmitrymomot/warden/pkg/guard"
	"github.com/dmitrymomot/warden/pkg/logger"
)

type contextKey int

const (
	principalKey contextKey = iota
	gateKey
)

// WithPrincipal stores the authenticated principal in the context. The
// Authenticate middleware calls this after a guard resolves a user; host
// applications with their own authentication can call it directly to feed
// the enforcement middlewares.
func WithPrincipal(ctx context.Context, p guard.Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFrom returns the principal stored by WithPrincipal. The second
// return value reports whether a principal was present.
func PrincipalFrom(ctx context.Context) (guard.Principal, bool) {
	p, ok := ctx.Value(principalKey).(guard.Principal)
	return p, ok
}

// WithGate binds a request-scoped gate to the context. Enforcement
// middlewares prefer a context gate over the one they were configured
// with, so a handler chain can swap in a tenant-specific gate upstream.
func WithGate(ctx context.Context, g *gate.Gate) context.Context {
	return context.WithValue(ctx, gateKey, g)
}

// GateFrom returns the gate bound with WithGate, or nil.
func GateFrom(ctx context.Context) *gate.Gate {
	g, _ := ctx.Value(gateKey).(*gate.Gate)
	return g
}

// PrincipalExtractor returns a logger extractor that annotates log records
// with the authenticated principal's identifier.
func PrincipalExtractor() logger.ContextExtractor {
	return func(ctx context.Context) (slog.Attr, bool) {
		p, ok := PrincipalFrom(ctx)
		if !ok {
			return slog.Attr{}, false
		}
		return slog.String("principal_id", p.AuthIdentifier()), true
	}
}
