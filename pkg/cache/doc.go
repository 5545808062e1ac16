// Package cache provides a small generic cache with in-memory and Redis
// backends sharing the [Cache] interface.
//
// [Memory] keeps entries in a map guarded by a mutex and drops expired
// entries lazily on read and periodically from a janitor goroutine.
// [Redis] stores entries under an optional key prefix, encoded by a [Codec]
// (JSON unless told otherwise).
//
// [GetOrSet] is the usual entry point. It collapses concurrent misses for
// the same key of one cache into one load:
//
//	users, err := cache.GetOrSet(ctx, c, "directory:users",
//	    func(ctx context.Context) ([]User, time.Duration, error) {
//	        users, err := store.List(ctx)
//	        return users, time.Minute, err
//	    })
package cache
