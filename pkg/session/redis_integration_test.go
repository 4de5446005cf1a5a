//go:build integration

package session_test

import (
	"context"
	"os"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/warden/pkg/session"
)

const testRedisURL = "localhost:6379"

func newTestRedisClient(t *testing.T) goredis.UniversalClient {
	t.Helper()

	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = testRedisURL
	}

	ctx := context.Background()
	client := goredis.NewClient(&goredis.Options{Addr: addr})
	require.NoError(t, client.Ping(ctx).Err(), "failed to connect to Redis")

	t.Cleanup(func() {
		_ = client.FlushDB(ctx).Err()
		_ = client.Close()
	})

	return client
}

func TestRedisStore(t *testing.T) {
	ctx := context.Background()

	t.Run("create and get round trip", func(t *testing.T) {
		store := session.NewRedis(newTestRedisClient(t), session.WithPrefix("rt"))

		sess := session.New("s1", "tok1", time.Now().Add(time.Hour))
		sess.Authenticate("u1")
		require.NoError(t, store.Create(ctx, sess))

		got, err := store.Get(ctx, "tok1")
		require.NoError(t, err)
		require.Equal(t, "s1", got.ID)
		require.True(t, got.IsAuthenticated())
	})

	t.Run("update of a missing session fails", func(t *testing.T) {
		store := session.NewRedis(newTestRedisClient(t), session.WithPrefix("miss"))

		sess := session.New("s1", "tok1", time.Now().Add(time.Hour))
		require.ErrorIs(t, store.Update(ctx, sess), session.ErrNotFound)
	})

	t.Run("deauthenticate removes the token from the user index", func(t *testing.T) {
		client := newTestRedisClient(t)
		store := session.NewRedis(client, session.WithPrefix("deauth"))

		sess := session.New("s1", "tok1", time.Now().Add(time.Hour))
		sess.Authenticate("u1")
		require.NoError(t, store.Create(ctx, sess))

		sess.Deauthenticate()
		require.NoError(t, store.Update(ctx, sess))

		members, err := client.SMembers(ctx, "deauth:user:u1").Result()
		require.NoError(t, err)
		require.Empty(t, members)

		// A later logout-everywhere for the old user must not touch the
		// now-anonymous session.
		require.NoError(t, store.DeleteByUserID(ctx, "u1"))
		_, err = store.Get(ctx, "tok1")
		require.NoError(t, err)
	})

	t.Run("switching users moves the token between index sets", func(t *testing.T) {
		client := newTestRedisClient(t)
		store := session.NewRedis(client, session.WithPrefix("switch"))

		sess := session.New("s1", "tok1", time.Now().Add(time.Hour))
		sess.Authenticate("u1")
		require.NoError(t, store.Create(ctx, sess))

		sess.Authenticate("u2")
		require.NoError(t, store.Update(ctx, sess))

		old, err := client.SMembers(ctx, "switch:user:u1").Result()
		require.NoError(t, err)
		require.Empty(t, old)

		current, err := client.SMembers(ctx, "switch:user:u2").Result()
		require.NoError(t, err)
		require.Equal(t, []string{"tok1"}, current)
	})

	t.Run("delete by user removes sessions and every index key", func(t *testing.T) {
		client := newTestRedisClient(t)
		store := session.NewRedis(client, session.WithPrefix("purge"))

		for _, pair := range [][2]string{{"s1", "tok1"}, {"s2", "tok2"}} {
			sess := session.New(pair[0], pair[1], time.Now().Add(time.Hour))
			sess.Authenticate("u1")
			require.NoError(t, store.Create(ctx, sess))
		}

		require.NoError(t, store.DeleteByUserID(ctx, "u1"))

		for _, key := range []string{
			"purge:tok1", "purge:tok2",
			"purge:id:s1", "purge:id:s2",
			"purge:user:u1",
		} {
			exists, err := client.Exists(ctx, key).Result()
			require.NoError(t, err)
			require.Zero(t, exists, "key %s should be gone", key)
		}
	})
}
