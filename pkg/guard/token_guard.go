package guard

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenGuard authenticates through a signed bearer token (HS256 JWT). The
// token travels in the context (see middlewares.Authenticate); its subject
// claim is the principal ID resolved through the provider.
//
// TokenGuard is stateless: Login, Logout and Attempt are not supported.
// Use IssueToken to mint tokens after validating credentials yourself.
type TokenGuard struct {
	name     string
	provider UserProvider
	secret   []byte
	ttl      time.Duration
}

// NewTokenGuard creates a token guard backed by the given provider.
func NewTokenGuard(name string, provider UserProvider, secret []byte, ttl time.Duration) *TokenGuard {
	return &TokenGuard{name: name, provider: provider, secret: secret, ttl: ttl}
}

// User returns the principal identified by the bearer token, or nil for a
// guest. Missing, malformed, or expired tokens resolve to guest; only
// provider failures surface as errors.
func (g *TokenGuard) User(ctx context.Context) (Principal, error) {
	id, ok := g.subject(ctx)
	if !ok {
		return nil, nil
	}
	p, err := g.provider.RetrieveByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return p, nil
}

// ID returns the token subject without loading the principal.
func (g *TokenGuard) ID(ctx context.Context) (string, error) {
	id, _ := g.subject(ctx)
	return id, nil
}

// Check reports whether a principal is present.
func (g *TokenGuard) Check(ctx context.Context) bool {
	p, err := g.User(ctx)
	return err == nil && p != nil
}

// Guest reports whether no principal is present.
func (g *TokenGuard) Guest(ctx context.Context) bool {
	return !g.Check(ctx)
}

// Validate reports whether the credentials identify a valid principal.
func (g *TokenGuard) Validate(ctx context.Context, credentials Credentials) (bool, error) {
	p, err := g.provider.RetrieveByCredentials(ctx, credentials)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return false, nil
		}
		return false, err
	}
	return g.provider.ValidateCredentials(ctx, p, credentials)
}

// IssueToken mints a signed token for the principal, using the configured
// TTL. With a zero TTL the token carries no expiry claim.
func (g *TokenGuard) IssueToken(p Principal) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:  p.AuthIdentifier(),
		IssuedAt: jwt.NewNumericDate(now),
	}
	if g.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(g.ttl))
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(g.secret)
}

// subject parses the bearer token and returns its subject claim.
func (g *TokenGuard) subject(ctx context.Context) (string, bool) {
	raw, ok := BearerTokenFrom(ctx)
	if !ok {
		return "", false
	}

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return g.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid || claims.Subject == "" {
		return "", false
	}
	return claims.Subject, true
}
