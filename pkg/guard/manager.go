package guard

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"
)

// DriverFactory constructs a guard from its configuration. Factories may
// call back into the Manager to resolve the guard's user provider.
type DriverFactory func(m *Manager, name string, cfg GuardConfig) (Guard, error)

// ProviderFactory constructs a user provider from its configuration.
type ProviderFactory func(cfg ProviderConfig) (UserProvider, error)

// Manager resolves and caches named guards from driver/provider
// configuration, and proxies identity operations to the default guard.
type Manager struct {
	config Config
	log    *slog.Logger

	mu        sync.RWMutex
	guards    map[string]Guard
	providers map[string]UserProvider
	drivers   map[string]DriverFactory
	factories map[string]ProviderFactory

	guardGroup    singleflight.Group
	providerGroup singleflight.Group
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger used for guard resolution traces.
// If nil, logging is disabled.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.log = l
		}
	}
}

// NewManager creates a guard manager with the built-in "session" and
// "token" drivers and the "model" and "database" provider factories.
func NewManager(cfg Config, opts ...Option) *Manager {
	m := &Manager{
		config:    cfg,
		log:       slog.New(slog.DiscardHandler),
		guards:    make(map[string]Guard),
		providers: make(map[string]UserProvider),
		drivers: map[string]DriverFactory{
			"session": sessionDriver,
			"token":   tokenDriver,
		},
		factories: map[string]ProviderFactory{
			"model":    newModelProvider,
			"database": newDatabaseProvider,
		},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func sessionDriver(m *Manager, name string, cfg GuardConfig) (Guard, error) {
	provider, err := m.Provider(cfg.Provider)
	if err != nil {
		return nil, err
	}
	return NewSessionGuard(name, provider), nil
}

func tokenDriver(m *Manager, name string, cfg GuardConfig) (Guard, error) {
	provider, err := m.Provider(cfg.Provider)
	if err != nil {
		return nil, err
	}
	return NewTokenGuard(name, provider, []byte(cfg.TokenSecret), cfg.TokenTTL), nil
}

// Extend registers a custom driver factory, taking precedence over a
// built-in of the same name. Call during application boot, before the
// first Guard resolution for any guard using the driver.
func (m *Manager) Extend(driver string, factory DriverFactory) {
	m.mu.Lock()
	m.drivers[driver] = factory
	m.mu.Unlock()
}

// Guard returns the named guard, defaulting to the configured default
// guard. The first call for a name constructs the guard and caches it;
// concurrent first calls collapse into a single construction. Unknown
// guards and drivers return fatal configuration errors.
func (m *Manager) Guard(name ...string) (Guard, error) {
	n := m.config.Default
	if len(name) > 0 && name[0] != "" {
		n = name[0]
	}

	m.mu.RLock()
	g, ok := m.guards[n]
	m.mu.RUnlock()
	if ok {
		return g, nil
	}

	v, err, _ := m.guardGroup.Do(n, func() (any, error) {
		m.mu.RLock()
		g, ok := m.guards[n]
		m.mu.RUnlock()
		if ok {
			return g, nil
		}

		g, err := m.resolveGuard(n)
		if err != nil {
			return nil, err
		}

		m.mu.Lock()
		m.guards[n] = g
		m.mu.Unlock()

		m.log.Debug("guard resolved", slog.String("guard", n))
		return g, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(Guard), nil
}

func (m *Manager) resolveGuard(name string) (Guard, error) {
	cfg, ok := m.config.Guards[name]
	if !ok {
		return nil, fmt.Errorf("%w: guard %q", ErrGuardNotDefined, name)
	}

	m.mu.RLock()
	factory, ok := m.drivers[cfg.Driver]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: driver %q for guard %q", ErrDriverNotDefined, cfg.Driver, name)
	}

	return factory(m, name, cfg)
}

// Provider returns the named user provider, constructing and caching it
// on first use.
func (m *Manager) Provider(name string) (UserProvider, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: empty provider name", ErrProviderNotDefined)
	}

	m.mu.RLock()
	p, ok := m.providers[name]
	m.mu.RUnlock()
	if ok {
		return p, nil
	}

	v, err, _ := m.providerGroup.Do(name, func() (any, error) {
		m.mu.RLock()
		p, ok := m.providers[name]
		m.mu.RUnlock()
		if ok {
			return p, nil
		}

		cfg, ok := m.config.Providers[name]
		if !ok {
			return nil, fmt.Errorf("%w: provider %q", ErrProviderNotDefined, name)
		}

		factory, ok := m.factories[cfg.Driver]
		if !ok {
			return nil, fmt.Errorf("%w: provider driver %q for provider %q", ErrProviderNotDefined, cfg.Driver, name)
		}

		p, err := factory(cfg)
		if err != nil {
			return nil, err
		}

		m.mu.Lock()
		m.providers[name] = p
		m.mu.Unlock()
		return p, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(UserProvider), nil
}

// ExtendProvider registers a custom provider factory, taking precedence
// over a built-in of the same name.
func (m *Manager) ExtendProvider(driver string, factory ProviderFactory) {
	m.mu.Lock()
	m.factories[driver] = factory
	m.mu.Unlock()
}

// Identity proxy: each operation routes to the default guard. Semantics
// are driver-specific; the manager only routes the call.

// User returns the current principal from the default guard.
func (m *Manager) User(ctx context.Context) (Principal, error) {
	g, err := m.Guard()
	if err != nil {
		return nil, err
	}
	return g.User(ctx)
}

// ID returns the current principal's identifier from the default guard.
func (m *Manager) ID(ctx context.Context) (string, error) {
	g, err := m.Guard()
	if err != nil {
		return "", err
	}
	return g.ID(ctx)
}

// Check reports whether the default guard resolves a principal.
func (m *Manager) Check(ctx context.Context) (bool, error) {
	g, err := m.Guard()
	if err != nil {
		return false, err
	}
	return g.Check(ctx), nil
}

// Guest reports whether the default guard resolves no principal.
func (m *Manager) Guest(ctx context.Context) (bool, error) {
	ok, err := m.Check(ctx)
	if err != nil {
		return false, err
	}
	return !ok, nil
}

// Validate routes credential validation to the default guard.
func (m *Manager) Validate(ctx context.Context, credentials Credentials) (bool, error) {
	g, err := m.Guard()
	if err != nil {
		return false, err
	}
	return g.Validate(ctx, credentials)
}

// Attempt routes a login attempt to the default guard.
func (m *Manager) Attempt(ctx context.Context, credentials Credentials) (bool, error) {
	g, err := m.stateful()
	if err != nil {
		return false, err
	}
	return g.Attempt(ctx, credentials)
}

// Login routes a login to the default guard.
func (m *Manager) Login(ctx context.Context, p Principal) error {
	g, err := m.stateful()
	if err != nil {
		return err
	}
	return g.Login(ctx, p)
}

// LoginUsingID routes an ID-based login to the default guard.
func (m *Manager) LoginUsingID(ctx context.Context, id string) (Principal, error) {
	g, err := m.stateful()
	if err != nil {
		return nil, err
	}
	return g.LoginUsingID(ctx, id)
}

// Logout routes a logout to the default guard.
func (m *Manager) Logout(ctx context.Context) error {
	g, err := m.stateful()
	if err != nil {
		return err
	}
	return g.Logout(ctx)
}

func (m *Manager) stateful() (StatefulGuard, error) {
	g, err := m.Guard()
	if err != nil {
		return nil, err
	}
	sg, ok := g.(StatefulGuard)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedOperation, g)
	}
	return sg, nil
}
