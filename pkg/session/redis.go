package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisOption configures the Redis store.
type RedisOption func(*Redis)

// WithPrefix sets the key prefix for session keys. Default: "session".
func WithPrefix(prefix string) RedisOption {
	return func(r *Redis) {
		if prefix != "" {
			r.prefix = prefix
		}
	}
}

// Redis is a session store backed by Redis. Sessions are serialized as
// JSON and expire with the session's ExpiresAt, so Redis evicts them
// without a janitor. A per-user set indexes tokens for DeleteByUserID.
type Redis struct {
	client redis.UniversalClient
	prefix string
}

// NewRedis creates a Redis-backed session store.
func NewRedis(client redis.UniversalClient, opts ...RedisOption) *Redis {
	r := &Redis{
		client: client,
		prefix: "session",
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// redisSession is the wire form; unexported Session fields travel
// explicitly so dirty/new state survives a round trip.
type redisSession struct {
	CreatedAt    time.Time      `json:"created_at"`
	LastActiveAt time.Time      `json:"last_active_at"`
	ExpiresAt    time.Time      `json:"expires_at"`
	UserID       *string        `json:"user_id,omitempty"`
	Values       map[string]any `json:"values,omitempty"`
	ID           string         `json:"id"`
	Token        string         `json:"token"`
}

func (r *Redis) key(token string) string { return r.prefix + ":" + token }

func (r *Redis) idKey(id string) string { return r.prefix + ":id:" + id }

func (r *Redis) userKey(userID string) string { return r.prefix + ":user:" + userID }

// Create persists a new session.
func (r *Redis) Create(ctx context.Context, s *Session) error {
	return r.write(ctx, s, nil)
}

// Get retrieves a session by its token.
func (r *Redis) Get(ctx context.Context, token string) (*Session, error) {
	data, err := r.client.Get(ctx, r.key(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var ws redisSession
	if err := json.Unmarshal(data, &ws); err != nil {
		return nil, err
	}

	s := &Session{
		CreatedAt:    ws.CreatedAt,
		LastActiveAt: ws.LastActiveAt,
		ExpiresAt:    ws.ExpiresAt,
		UserID:       ws.UserID,
		Values:       ws.Values,
		ID:           ws.ID,
		Token:        ws.Token,
	}
	if s.IsExpired() {
		// The TTL should have evicted it already; treat clock skew as expiry.
		return nil, ErrExpired
	}
	return s, nil
}

// Update saves changes to an existing session. The stored copy is read
// first so a session that switched or dropped its user is removed from the
// previous user's index set.
func (r *Redis) Update(ctx context.Context, s *Session) error {
	data, err := r.client.Get(ctx, r.key(s.Token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrNotFound
		}
		return err
	}

	var prev redisSession
	if err := json.Unmarshal(data, &prev); err != nil {
		return err
	}
	return r.write(ctx, s, prev.UserID)
}

// Delete removes a session by its ID.
func (r *Redis) Delete(ctx context.Context, id string) error {
	token, err := r.client.Get(ctx, r.idKey(id)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return err
	}
	return r.client.Del(ctx, r.key(token), r.idKey(id)).Err()
}

// DeleteByUserID removes all sessions for a user, including each
// session's ID index key. Payloads already evicted by TTL are skipped.
func (r *Redis) DeleteByUserID(ctx context.Context, userID string) error {
	tokens, err := r.client.SMembers(ctx, r.userKey(userID)).Result()
	if err != nil {
		return err
	}

	keys := make([]string, 0, 2*len(tokens)+1)
	if len(tokens) > 0 {
		tokenKeys := make([]string, len(tokens))
		for i, token := range tokens {
			tokenKeys[i] = r.key(token)
		}
		payloads, err := r.client.MGet(ctx, tokenKeys...).Result()
		if err != nil {
			return err
		}
		keys = append(keys, tokenKeys...)
		for _, payload := range payloads {
			raw, ok := payload.(string)
			if !ok {
				continue
			}
			var ws redisSession
			if err := json.Unmarshal([]byte(raw), &ws); err != nil {
				continue
			}
			keys = append(keys, r.idKey(ws.ID))
		}
	}
	keys = append(keys, r.userKey(userID))
	return r.client.Del(ctx, keys...).Err()
}

func (r *Redis) write(ctx context.Context, s *Session, prevUserID *string) error {
	data, err := json.Marshal(redisSession{
		CreatedAt:    s.CreatedAt,
		LastActiveAt: s.LastActiveAt,
		ExpiresAt:    s.ExpiresAt,
		UserID:       s.UserID,
		Values:       s.Values,
		ID:           s.ID,
		Token:        s.Token,
	})
	if err != nil {
		return err
	}

	ttl := time.Until(s.ExpiresAt)
	if ttl <= 0 {
		return ErrExpired
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, r.key(s.Token), data, ttl)
	pipe.Set(ctx, r.idKey(s.ID), s.Token, ttl)
	if prevUserID != nil && *prevUserID != "" && (s.UserID == nil || *s.UserID != *prevUserID) {
		pipe.SRem(ctx, r.userKey(*prevUserID), s.Token)
	}
	if s.UserID != nil && *s.UserID != "" {
		pipe.SAdd(ctx, r.userKey(*s.UserID), s.Token)
		pipe.Expire(ctx, r.userKey(*s.UserID), ttl)
	}
	_, err = pipe.Exec(ctx)
	return err
}
