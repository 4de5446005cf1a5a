package middlewares_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/warden/middlewares"
	"github.com/dmitrymomot/warden/pkg/guard"
	"github.com/dmitrymomot/warden/pkg/session"
)

// failingStore rejects every write with a fixed error.
type failingStore struct {
	err error
}

func (s *failingStore) Create(context.Context, *session.Session) error { return s.err }

func (s *failingStore) Get(context.Context, string) (*session.Session, error) {
	return nil, session.ErrNotFound
}

func (s *failingStore) Update(context.Context, *session.Session) error { return s.err }

func (s *failingStore) Delete(context.Context, string) error { return s.err }

func (s *failingStore) DeleteByUserID(context.Context, string) error { return s.err }

func TestSessionMiddleware(t *testing.T) {
	t.Parallel()

	t.Run("creates session when no cookie is present", func(t *testing.T) {
		t.Parallel()

		store := session.NewMemory()
		var seen *session.Session
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen, _ = guard.SessionFrom(r.Context())
		})

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		middlewares.Session(store)(handler).ServeHTTP(rec, req)

		require.NotNil(t, seen)
		require.NotEmpty(t, seen.Token)

		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		require.Equal(t, "session_token", cookies[0].Name)
		require.Equal(t, seen.Token, cookies[0].Value)
		require.True(t, cookies[0].HttpOnly)

		// New session was persisted after the handler ran.
		stored, err := store.Get(req.Context(), seen.Token)
		require.NoError(t, err)
		require.Equal(t, seen.ID, stored.ID)
	})

	t.Run("loads existing session from cookie", func(t *testing.T) {
		t.Parallel()

		store := session.NewMemory()
		sess := session.New("s1", "tok1", time.Now().Add(time.Hour))
		require.NoError(t, store.Create(req(t).Context(), sess))

		var seen *session.Session
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen, _ = guard.SessionFrom(r.Context())
		})

		r := req(t)
		r.AddCookie(&http.Cookie{Name: "session_token", Value: "tok1"})
		rec := httptest.NewRecorder()
		middlewares.Session(store)(handler).ServeHTTP(rec, r)

		require.NotNil(t, seen)
		require.Equal(t, "s1", seen.ID)
		require.Empty(t, rec.Result().Cookies())
	})

	t.Run("persists session mutated by the handler", func(t *testing.T) {
		t.Parallel()

		store := session.NewMemory()
		sess := session.New("s1", "tok1", time.Now().Add(time.Hour))
		require.NoError(t, store.Create(req(t).Context(), sess))

		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s, ok := guard.SessionFrom(r.Context())
			require.True(t, ok)
			s.Authenticate("u1")
		})

		r := req(t)
		r.AddCookie(&http.Cookie{Name: "session_token", Value: "tok1"})
		middlewares.Session(store)(handler).ServeHTTP(httptest.NewRecorder(), r)

		stored, err := store.Get(r.Context(), "tok1")
		require.NoError(t, err)
		require.True(t, stored.IsAuthenticated())
		require.Equal(t, "u1", *stored.UserID)
	})

	t.Run("stale cookie falls back to a fresh session", func(t *testing.T) {
		t.Parallel()

		store := session.NewMemory()
		var seen *session.Session
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen, _ = guard.SessionFrom(r.Context())
		})

		r := req(t)
		r.AddCookie(&http.Cookie{Name: "session_token", Value: "gone"})
		rec := httptest.NewRecorder()
		middlewares.Session(store)(handler).ServeHTTP(rec, r)

		require.NotNil(t, seen)
		require.NotEqual(t, "gone", seen.Token)
		require.Len(t, rec.Result().Cookies(), 1)
	})

	t.Run("logs persistence failures", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log := slog.New(slog.NewTextHandler(&buf, nil))
		store := &failingStore{err: errors.New("store down")}

		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s, ok := guard.SessionFrom(r.Context())
			require.True(t, ok)
			s.Authenticate("u1")
		})

		rec := httptest.NewRecorder()
		middlewares.Session(store, middlewares.WithSessionLogger(log))(handler).ServeHTTP(rec, req(t))

		require.Contains(t, buf.String(), "failed to persist new session")
		require.Contains(t, buf.String(), "store down")
	})

	t.Run("honors cookie and ttl options", func(t *testing.T) {
		t.Parallel()

		store := session.NewMemory()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		middlewares.Session(store,
			middlewares.WithSessionCookie("sid"),
			middlewares.WithSessionTTL(time.Minute),
			middlewares.WithSecureCookie(),
		)(okHandler()).ServeHTTP(rec, req)

		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		require.Equal(t, "sid", cookies[0].Name)
		require.True(t, cookies[0].Secure)
		require.WithinDuration(t, time.Now().Add(time.Minute), cookies[0].Expires, 10*time.Second)
	})
}

func req(t *testing.T) *http.Request {
	t.Helper()
	return httptest.NewRequest(http.MethodGet, "/", nil)
}
