package guard

import (
	"context"
	"errors"
)

// SessionGuard authenticates through the request session. The session
// itself travels in the context (see middlewares.Session); the guard only
// reads and mutates it, leaving persistence to the middleware that loaded
// it.
type SessionGuard struct {
	name     string
	provider UserProvider
}

// NewSessionGuard creates a session guard backed by the given provider.
func NewSessionGuard(name string, provider UserProvider) *SessionGuard {
	return &SessionGuard{name: name, provider: provider}
}

// User returns the principal authenticated in the request session, or nil
// for a guest. A session pointing at a deleted user resolves to guest.
func (g *SessionGuard) User(ctx context.Context) (Principal, error) {
	s, ok := SessionFrom(ctx)
	if !ok || !s.IsAuthenticated() {
		return nil, nil
	}
	p, err := g.provider.RetrieveByID(ctx, *s.UserID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return p, nil
}

// ID returns the authenticated user ID straight from the session, without
// loading the principal.
func (g *SessionGuard) ID(ctx context.Context) (string, error) {
	s, ok := SessionFrom(ctx)
	if !ok || !s.IsAuthenticated() {
		return "", nil
	}
	return *s.UserID, nil
}

// Check reports whether a principal is present.
func (g *SessionGuard) Check(ctx context.Context) bool {
	p, err := g.User(ctx)
	return err == nil && p != nil
}

// Guest reports whether no principal is present.
func (g *SessionGuard) Guest(ctx context.Context) bool {
	return !g.Check(ctx)
}

// Validate reports whether the credentials identify a valid principal
// without touching the session.
func (g *SessionGuard) Validate(ctx context.Context, credentials Credentials) (bool, error) {
	p, err := g.provider.RetrieveByCredentials(ctx, credentials)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return false, nil
		}
		return false, err
	}
	return g.provider.ValidateCredentials(ctx, p, credentials)
}

// Attempt validates credentials and logs the principal in on success.
func (g *SessionGuard) Attempt(ctx context.Context, credentials Credentials) (bool, error) {
	p, err := g.provider.RetrieveByCredentials(ctx, credentials)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return false, nil
		}
		return false, err
	}

	ok, err := g.provider.ValidateCredentials(ctx, p, credentials)
	if err != nil || !ok {
		return false, err
	}

	if err := g.Login(ctx, p); err != nil {
		return false, err
	}
	return true, nil
}

// Login authenticates the principal in the request session.
func (g *SessionGuard) Login(ctx context.Context, p Principal) error {
	s, ok := SessionFrom(ctx)
	if !ok {
		return ErrNoSession
	}
	s.Authenticate(p.AuthIdentifier())
	return nil
}

// LoginUsingID retrieves a principal by ID and logs it in.
func (g *SessionGuard) LoginUsingID(ctx context.Context, id string) (Principal, error) {
	p, err := g.provider.RetrieveByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := g.Login(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Logout removes the authenticated state from the request session.
func (g *SessionGuard) Logout(ctx context.Context) error {
	s, ok := SessionFrom(ctx)
	if !ok {
		return ErrNoSession
	}
	s.Deauthenticate()
	return nil
}
