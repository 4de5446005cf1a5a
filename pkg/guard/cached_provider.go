package guard

import (
	"context"
	"sync"
	"time"
)

// CachedProvider wraps a UserProvider with TTL-based caching of
// RetrieveByID lookups. This keeps hot authorization paths from hitting
// the database on every check.
//
// Credential retrieval and validation are never cached: both must always
// observe current storage state.
type CachedProvider struct {
	inner UserProvider
	cache map[string]*cacheEntry
	mu    sync.RWMutex
	ttl   time.Duration
}

type cacheEntry struct {
	principal Principal
	expiresAt time.Time
}

// NewCachedProvider wraps a provider with caching.
// ttl is how long principals are cached before re-fetching.
func NewCachedProvider(inner UserProvider, ttl time.Duration) *CachedProvider {
	return &CachedProvider{
		inner: inner,
		cache: make(map[string]*cacheEntry),
		ttl:   ttl,
	}
}

// RetrieveByID returns the principal for the given ID, using the cache
// when fresh.
func (p *CachedProvider) RetrieveByID(ctx context.Context, id string) (Principal, error) {
	p.mu.RLock()
	entry, ok := p.cache[id]
	p.mu.RUnlock()

	if ok && time.Now().Before(entry.expiresAt) {
		return entry.principal, nil
	}

	principal, err := p.inner.RetrieveByID(ctx, id)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.cache[id] = &cacheEntry{
		principal: principal,
		expiresAt: time.Now().Add(p.ttl),
	}
	p.mu.Unlock()

	return principal, nil
}

// RetrieveByCredentials delegates to the wrapped provider.
func (p *CachedProvider) RetrieveByCredentials(ctx context.Context, credentials Credentials) (Principal, error) {
	return p.inner.RetrieveByCredentials(ctx, credentials)
}

// ValidateCredentials delegates to the wrapped provider.
func (p *CachedProvider) ValidateCredentials(ctx context.Context, principal Principal, credentials Credentials) (bool, error) {
	return p.inner.ValidateCredentials(ctx, principal, credentials)
}

// Invalidate removes a principal from the cache.
// Call this when a user's record changes.
func (p *CachedProvider) Invalidate(id string) {
	p.mu.Lock()
	delete(p.cache, id)
	p.mu.Unlock()
}

// InvalidateAll clears the entire cache.
func (p *CachedProvider) InvalidateAll() {
	p.mu.Lock()
	p.cache = make(map[string]*cacheEntry)
	p.mu.Unlock()
}
