// Package escalation decides whether a finding set needs an external
// resolver. The application-scoped resolved-fields cache is consulted first
// so settled fields are never escalated twice.
package escalation

import (
	"context"
	"sync"

	id "plancheck/pkg/domain"
)

// ResolvedFieldCache records which fields have already been confirmed for an
// application. Implementations must be safe for concurrent use.
type ResolvedFieldCache interface {
	// IsResolved reports whether the field was previously confirmed for the
	// application.
	IsResolved(ctx context.Context, appID id.ApplicationID, field string) (bool, error)

	// MarkResolved records the field as confirmed for the application.
	MarkResolved(ctx context.Context, appID id.ApplicationID, field string) error

	// Invalidate forgets a confirmation, typically after the field's value
	// changed in a new submission version.
	Invalidate(ctx context.Context, appID id.ApplicationID, field string) error
}

// InMemoryCache keeps confirmations in process. Used by unit tests and dev
// mode; the Redis twin carries the same semantics.
type InMemoryCache struct {
	mu       sync.RWMutex
	resolved map[cacheKey]bool
}

type cacheKey struct {
	app   id.ApplicationID
	field string
}

// NewInMemoryCache constructs an empty in-memory cache.
func NewInMemoryCache() *InMemoryCache {
	return &InMemoryCache{resolved: make(map[cacheKey]bool)}
}

// IsResolved implements ResolvedFieldCache.
func (c *InMemoryCache) IsResolved(_ context.Context, appID id.ApplicationID, field string) (bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.resolved[cacheKey{appID, field}], nil
}

// MarkResolved implements ResolvedFieldCache.
func (c *InMemoryCache) MarkResolved(_ context.Context, appID id.ApplicationID, field string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resolved[cacheKey{appID, field}] = true
	return nil
}

// Invalidate implements ResolvedFieldCache.
func (c *InMemoryCache) Invalidate(_ context.Context, appID id.ApplicationID, field string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.resolved, cacheKey{appID, field})
	return nil
}
