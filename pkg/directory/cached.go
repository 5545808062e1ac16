package directory

import (
	"context"
	"slices"
	"time"

	"github.com/dmitrymomot/mailportal/pkg/cache"
)

const cacheKey = "directory:users"

// Cached serves the user list from a cache, loading it from the wrapped
// store on a miss. Concurrent misses trigger one load.
type Cached struct {
	store Store
	cache cache.Cache[[]User]
	ttl   time.Duration
}

// NewCached wraps store. A zero ttl uses the cache's default.
func NewCached(store Store, c cache.Cache[[]User], ttl time.Duration) *Cached {
	return &Cached{store: store, cache: c, ttl: ttl}
}

func (c *Cached) List(ctx context.Context) ([]User, error) {
	users, err := cache.GetOrSet(ctx, c.cache, cacheKey, func(ctx context.Context) ([]User, time.Duration, error) {
		users, err := c.store.List(ctx)
		return users, c.ttl, err
	})
	if err != nil {
		return nil, err
	}
	return slices.Clone(users), nil
}
