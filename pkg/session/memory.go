package session

import (
	"context"
	"maps"
	"sync"
	"time"
)

// MemoryOption configures the in-memory store.
type MemoryOption func(*Memory)

// WithCleanupInterval sets how often expired sessions are purged.
// Zero disables the background janitor. Default: 1 minute.
func WithCleanupInterval(d time.Duration) MemoryOption {
	return func(m *Memory) {
		m.cleanupInterval = d
	}
}

// Memory is an in-memory session store with background expiration cleanup.
// Intended for tests and single-process deployments; use the Redis store
// when sessions must survive restarts or be shared between processes.
type Memory struct {
	byToken map[string]*Session
	tokens  map[string]string // session ID -> token
	done    chan struct{}

	cleanupInterval time.Duration

	mu     sync.Mutex
	closed bool
}

// NewMemory creates an in-memory session store.
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		byToken:         make(map[string]*Session),
		tokens:          make(map[string]string),
		done:            make(chan struct{}),
		cleanupInterval: time.Minute,
	}
	for _, opt := range opts {
		opt(m)
	}

	if m.cleanupInterval > 0 {
		go m.janitor()
	}
	return m
}

// Create persists a new session.
func (m *Memory) Create(_ context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.byToken[s.Token] = clone(s)
	m.tokens[s.ID] = s.Token
	return nil
}

// Get retrieves a session by its token.
func (m *Memory) Get(_ context.Context, token string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrClosed
	}

	s, ok := m.byToken[token]
	if !ok {
		return nil, ErrNotFound
	}
	if s.IsExpired() {
		delete(m.byToken, token)
		delete(m.tokens, s.ID)
		return nil, ErrExpired
	}
	return clone(s), nil
}

// Update saves changes to an existing session.
func (m *Memory) Update(_ context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	if _, ok := m.byToken[s.Token]; !ok {
		return ErrNotFound
	}
	m.byToken[s.Token] = clone(s)
	return nil
}

// Delete removes a session by its ID.
func (m *Memory) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	if token, ok := m.tokens[id]; ok {
		delete(m.byToken, token)
		delete(m.tokens, id)
	}
	return nil
}

// DeleteByUserID removes all sessions for a user.
func (m *Memory) DeleteByUserID(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	for token, s := range m.byToken {
		if s.UserID != nil && *s.UserID == userID {
			delete(m.byToken, token)
			delete(m.tokens, s.ID)
		}
	}
	return nil
}

// Close stops the background janitor and rejects further operations.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	close(m.done)
	return nil
}

// janitor periodically removes expired sessions.
func (m *Memory) janitor() {
	ticker := time.NewTicker(m.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			m.mu.Lock()
			for token, s := range m.byToken {
				if s.IsExpired() {
					delete(m.byToken, token)
					delete(m.tokens, s.ID)
				}
			}
			m.mu.Unlock()
		}
	}
}

// clone copies a session so store internals never alias caller state.
func clone(s *Session) *Session {
	c := *s
	c.Values = maps.Clone(s.Values)
	return &c
}
