package guard_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/warden/pkg/guard"
	"github.com/dmitrymomot/warden/pkg/session"
)

type fakeUser struct {
	id       string
	hash     string
	role     string
	roles    []string
	perms    []string
	identity map[string]any
}

func (u *fakeUser) AuthIdentifier() string { return u.id }
func (u *fakeUser) HashedPassword() string { return u.hash }
func (u *fakeUser) Role() string           { return u.role }
func (u *fakeUser) Roles() []string        { return u.roles }
func (u *fakeUser) Permissions() []string  { return u.perms }

// fakeRepo is an in-memory UserRepository.
type fakeRepo struct {
	mu    sync.Mutex
	users map[string]*fakeUser
	calls int
}

func (r *fakeRepo) FindByID(_ context.Context, id string) (guard.Principal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	u, ok := r.users[id]
	if !ok {
		return nil, guard.ErrUserNotFound
	}
	return u, nil
}

func (r *fakeRepo) FindByCredentials(_ context.Context, credentials guard.Credentials) (guard.Principal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	email, _ := credentials["email"].(string)
	for _, u := range r.users {
		if u.identity["email"] == email {
			return u, nil
		}
	}
	return nil, guard.ErrUserNotFound
}

func testConfig(repo *fakeRepo) guard.Config {
	return guard.Config{
		Default: "web",
		Guards: map[string]guard.GuardConfig{
			"web": {Driver: "session", Provider: "users"},
			"api": {Driver: "token", Provider: "users", TokenSecret: "secret", TokenTTL: time.Hour},
		},
		Providers: map[string]guard.ProviderConfig{
			"users": {Driver: "model", Repository: repo},
		},
	}
}

func TestManagerGuard(t *testing.T) {
	t.Parallel()

	t.Run("resolves configured guard", func(t *testing.T) {
		t.Parallel()

		m := guard.NewManager(testConfig(&fakeRepo{}))
		g, err := m.Guard("api")
		require.NoError(t, err)
		require.IsType(t, &guard.TokenGuard{}, g)
	})

	t.Run("defaults to configured default guard", func(t *testing.T) {
		t.Parallel()

		m := guard.NewManager(testConfig(&fakeRepo{}))
		g, err := m.Guard()
		require.NoError(t, err)
		require.IsType(t, &guard.SessionGuard{}, g)
	})

	t.Run("memoizes guard instances", func(t *testing.T) {
		t.Parallel()

		m := guard.NewManager(testConfig(&fakeRepo{}))
		first, err := m.Guard("api")
		require.NoError(t, err)
		second, err := m.Guard("api")
		require.NoError(t, err)
		require.Same(t, first, second)
	})

	t.Run("concurrent first resolution constructs once", func(t *testing.T) {
		t.Parallel()

		cfg := testConfig(&fakeRepo{})
		cfg.Guards["slow"] = guard.GuardConfig{Driver: "counting", Provider: "users"}
		m := guard.NewManager(cfg)

		var mu sync.Mutex
		var constructions int
		m.Extend("counting", func(m *guard.Manager, name string, gc guard.GuardConfig) (guard.Guard, error) {
			mu.Lock()
			constructions++
			mu.Unlock()
			time.Sleep(10 * time.Millisecond) // widen the race window
			p, err := m.Provider(gc.Provider)
			if err != nil {
				return nil, err
			}
			return guard.NewSessionGuard(name, p), nil
		})

		guards := make([]guard.Guard, 8)
		var wg sync.WaitGroup
		for i := range guards {
			wg.Add(1)
			go func() {
				defer wg.Done()
				g, err := m.Guard("slow")
				require.NoError(t, err)
				guards[i] = g
			}()
		}
		wg.Wait()

		require.Equal(t, 1, constructions)
		for _, g := range guards[1:] {
			require.Same(t, guards[0], g)
		}
	})

	t.Run("unknown guard is a configuration error", func(t *testing.T) {
		t.Parallel()

		m := guard.NewManager(testConfig(&fakeRepo{}))
		_, err := m.Guard("nope")
		require.ErrorIs(t, err, guard.ErrGuardNotDefined)
		require.Contains(t, err.Error(), `"nope"`)
	})

	t.Run("unknown driver is a configuration error", func(t *testing.T) {
		t.Parallel()

		cfg := testConfig(&fakeRepo{})
		cfg.Guards["bad"] = guard.GuardConfig{Driver: "oauth", Provider: "users"}
		m := guard.NewManager(cfg)

		_, err := m.Guard("bad")
		require.ErrorIs(t, err, guard.ErrDriverNotDefined)
		require.Contains(t, err.Error(), `"oauth"`)
		require.Contains(t, err.Error(), `"bad"`)
	})

	t.Run("unknown provider is a configuration error", func(t *testing.T) {
		t.Parallel()

		cfg := testConfig(&fakeRepo{})
		cfg.Guards["orphan"] = guard.GuardConfig{Driver: "session", Provider: "missing"}
		m := guard.NewManager(cfg)

		_, err := m.Guard("orphan")
		require.ErrorIs(t, err, guard.ErrProviderNotDefined)
	})

	t.Run("extend takes precedence over built-in driver", func(t *testing.T) {
		t.Parallel()

		custom := guard.NewSessionGuard("custom", nil)
		m := guard.NewManager(testConfig(&fakeRepo{}))
		m.Extend("session", func(*guard.Manager, string, guard.GuardConfig) (guard.Guard, error) {
			return custom, nil
		})

		g, err := m.Guard("web")
		require.NoError(t, err)
		require.Same(t, custom, g)
	})
}

func TestManagerProxy(t *testing.T) {
	t.Parallel()

	newSessionCtx := func(userID string) context.Context {
		s := session.New("sid", "tok", time.Now().Add(time.Hour))
		if userID != "" {
			s.Authenticate(userID)
		}
		return guard.WithSession(context.Background(), s)
	}

	repo := &fakeRepo{users: map[string]*fakeUser{
		"u1": {id: "u1", identity: map[string]any{"email": "a@b.c"}},
	}}

	t.Run("routes user and check to the default guard", func(t *testing.T) {
		t.Parallel()

		m := guard.NewManager(testConfig(repo))
		ctx := newSessionCtx("u1")

		p, err := m.User(ctx)
		require.NoError(t, err)
		require.Equal(t, "u1", p.AuthIdentifier())

		ok, err := m.Check(ctx)
		require.NoError(t, err)
		require.True(t, ok)

		id, err := m.ID(ctx)
		require.NoError(t, err)
		require.Equal(t, "u1", id)

		guest, err := m.Guest(ctx)
		require.NoError(t, err)
		require.False(t, guest)
	})

	t.Run("guest without session state", func(t *testing.T) {
		t.Parallel()

		m := guard.NewManager(testConfig(repo))
		ctx := newSessionCtx("")

		p, err := m.User(ctx)
		require.NoError(t, err)
		require.Nil(t, p)

		guest, err := m.Guest(ctx)
		require.NoError(t, err)
		require.True(t, guest)
	})

	t.Run("login and logout mutate the session", func(t *testing.T) {
		t.Parallel()

		m := guard.NewManager(testConfig(repo))
		ctx := newSessionCtx("")

		require.NoError(t, m.Login(ctx, &fakeUser{id: "u1"}))
		ok, err := m.Check(ctx)
		require.NoError(t, err)
		require.True(t, ok)

		require.NoError(t, m.Logout(ctx))
		ok, err = m.Check(ctx)
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("login using id resolves the principal", func(t *testing.T) {
		t.Parallel()

		m := guard.NewManager(testConfig(repo))
		ctx := newSessionCtx("")

		p, err := m.LoginUsingID(ctx, "u1")
		require.NoError(t, err)
		require.Equal(t, "u1", p.AuthIdentifier())

		_, err = m.LoginUsingID(ctx, "ghost")
		require.ErrorIs(t, err, guard.ErrUserNotFound)
	})

	t.Run("stateful operation on stateless guard", func(t *testing.T) {
		t.Parallel()

		cfg := testConfig(repo)
		cfg.Default = "api"
		m := guard.NewManager(cfg)

		err := m.Login(context.Background(), &fakeUser{id: "u1"})
		require.ErrorIs(t, err, guard.ErrUnsupportedOperation)
	})

	t.Run("configuration errors propagate through the proxy", func(t *testing.T) {
		t.Parallel()

		m := guard.NewManager(guard.Config{Default: "ghost"})
		_, err := m.User(context.Background())
		require.ErrorIs(t, err, guard.ErrGuardNotDefined)
	})
}
