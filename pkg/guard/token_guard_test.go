package guard_test

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/warden/pkg/guard"
)

func TestTokenGuard(t *testing.T) {
	t.Parallel()

	repo := &fakeRepo{users: map[string]*fakeUser{
		"u1": {id: "u1", identity: map[string]any{"email": "a@b.c"}},
	}}
	newGuard := func(t *testing.T, ttl time.Duration) *guard.TokenGuard {
		t.Helper()
		m := guard.NewManager(guard.Config{
			Providers: map[string]guard.ProviderConfig{
				"users": {Driver: "model", Repository: repo},
			},
		})
		p, err := m.Provider("users")
		require.NoError(t, err)
		return guard.NewTokenGuard("api", p, []byte("signing-secret"), ttl)
	}

	t.Run("issued token round trips", func(t *testing.T) {
		t.Parallel()

		g := newGuard(t, time.Hour)
		token, err := g.IssueToken(&fakeUser{id: "u1"})
		require.NoError(t, err)

		ctx := guard.WithBearerToken(context.Background(), token)
		p, err := g.User(ctx)
		require.NoError(t, err)
		require.Equal(t, "u1", p.AuthIdentifier())
		require.True(t, g.Check(ctx))

		id, err := g.ID(ctx)
		require.NoError(t, err)
		require.Equal(t, "u1", id)
	})

	t.Run("missing token means guest", func(t *testing.T) {
		t.Parallel()

		g := newGuard(t, time.Hour)
		p, err := g.User(context.Background())
		require.NoError(t, err)
		require.Nil(t, p)
		require.True(t, g.Guest(context.Background()))
	})

	t.Run("malformed token means guest", func(t *testing.T) {
		t.Parallel()

		g := newGuard(t, time.Hour)
		ctx := guard.WithBearerToken(context.Background(), "not-a-jwt")
		p, err := g.User(ctx)
		require.NoError(t, err)
		require.Nil(t, p)
	})

	t.Run("expired token means guest", func(t *testing.T) {
		t.Parallel()

		g := newGuard(t, -time.Minute)
		token, err := g.IssueToken(&fakeUser{id: "u1"})
		require.NoError(t, err)

		ctx := guard.WithBearerToken(context.Background(), token)
		p, err := g.User(ctx)
		require.NoError(t, err)
		require.Nil(t, p)
	})

	t.Run("token signed with another secret means guest", func(t *testing.T) {
		t.Parallel()

		forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
			Subject:   "u1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}).SignedString([]byte("other-secret"))
		require.NoError(t, err)

		g := newGuard(t, time.Hour)
		ctx := guard.WithBearerToken(context.Background(), forged)
		p, err := g.User(ctx)
		require.NoError(t, err)
		require.Nil(t, p)
	})

	t.Run("unsigned algorithm is rejected", func(t *testing.T) {
		t.Parallel()

		unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
			Subject: "u1",
		}).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		g := newGuard(t, time.Hour)
		ctx := guard.WithBearerToken(context.Background(), unsigned)
		p, err := g.User(ctx)
		require.NoError(t, err)
		require.Nil(t, p)
	})

	t.Run("token for a deleted user means guest", func(t *testing.T) {
		t.Parallel()

		g := newGuard(t, time.Hour)
		token, err := g.IssueToken(&fakeUser{id: "ghost"})
		require.NoError(t, err)

		ctx := guard.WithBearerToken(context.Background(), token)
		p, err := g.User(ctx)
		require.NoError(t, err)
		require.Nil(t, p)
	})

	t.Run("zero ttl issues tokens without expiry", func(t *testing.T) {
		t.Parallel()

		g := newGuard(t, 0)
		token, err := g.IssueToken(&fakeUser{id: "u1"})
		require.NoError(t, err)

		ctx := guard.WithBearerToken(context.Background(), token)
		require.True(t, g.Check(ctx))
	})
}
