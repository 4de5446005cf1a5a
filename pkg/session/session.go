package session

import "time"

// Session represents a client session with an optional authenticated user
// and arbitrary values.
type Session struct {
	CreatedAt    time.Time
	LastActiveAt time.Time
	ExpiresAt    time.Time

	UserID *string        // nil = anonymous session
	Values map[string]any // Arbitrary session data
	ID     string         // Unique identifier
	Token  string         // Client token (distinct from ID for security)

	dirty bool // tracks if session needs saving
	isNew bool // tracks if session was just created
}

// New creates a new anonymous session with the given ID and token.
func New(id, token string, expiresAt time.Time) *Session {
	now := time.Now()
	return &Session{
		ID:           id,
		Token:        token,
		Values:       make(map[string]any),
		CreatedAt:    now,
		LastActiveAt: now,
		ExpiresAt:    expiresAt,
		isNew:        true,
		dirty:        true,
	}
}

// IsAuthenticated returns true if the session has an associated user.
func (s *Session) IsAuthenticated() bool {
	return s.UserID != nil && *s.UserID != ""
}

// Authenticate associates a user with the session.
func (s *Session) Authenticate(userID string) {
	s.UserID = &userID
	s.dirty = true
}

// Deauthenticate removes the user association, keeping the session alive
// as anonymous.
func (s *Session) Deauthenticate() {
	if s.UserID != nil {
		s.UserID = nil
		s.dirty = true
	}
}

// SetValue stores a value in the session and marks it dirty.
func (s *Session) SetValue(key string, val any) {
	if s.Values == nil {
		s.Values = make(map[string]any)
	}
	s.Values[key] = val
	s.dirty = true
}

// GetValue retrieves a value from the session.
func (s *Session) GetValue(key string) (any, bool) {
	if s.Values == nil {
		return nil, false
	}
	val, ok := s.Values[key]
	return val, ok
}

// DeleteValue removes a value from the session.
// Marks the session dirty only if the key existed.
func (s *Session) DeleteValue(key string) {
	if s.Values == nil {
		return
	}
	if _, exists := s.Values[key]; exists {
		delete(s.Values, key)
		s.dirty = true
	}
}

// IsDirty returns true if the session has unsaved changes.
func (s *Session) IsDirty() bool {
	return s.dirty
}

// ClearDirty marks the session as clean. Called by whoever persisted it.
func (s *Session) ClearDirty() {
	s.dirty = false
}

// IsNew returns true if the session was just created and never persisted.
func (s *Session) IsNew() bool {
	return s.isNew
}

// ClearNew marks the session as persisted.
func (s *Session) ClearNew() {
	s.isNew = false
}

// IsExpired returns true if the session has expired.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// Touch updates the last-activity timestamp.
func (s *Session) Touch() {
	s.LastActiveAt = time.Now()
	s.dirty = true
}
