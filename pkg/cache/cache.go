package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"
)

// Cache stores values of type V under string keys with an expiration.
//
// A zero ttl passed to Set means the backend default; a negative ttl keeps
// the entry until it is deleted.
type Cache[V any] interface {
	// Get returns ErrNotFound when the key is missing or expired.
	Get(ctx context.Context, key string) (V, error)
	Set(ctx context.Context, key string, value V, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Codec converts values to bytes for backends that store raw data.
type Codec[V any] interface {
	Encode(v V) ([]byte, error)
	Decode(data []byte) (V, error)
}

// JSONCodec is the default Codec.
type JSONCodec[V any] struct{}

func (JSONCodec[V]) Encode(v V) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Join(ErrEncode, err)
	}
	return data, nil
}

func (JSONCodec[V]) Decode(data []byte) (V, error) {
	var v V
	if err := json.Unmarshal(data, &v); err != nil {
		return v, errors.Join(ErrDecode, err)
	}
	return v, nil
}

var loads singleflight.Group

type loaded[V any] struct {
	value V
}

// LoadFunc produces a value for a missing key together with its ttl.
type LoadFunc[V any] func(ctx context.Context) (V, time.Duration, error)

// GetOrSet returns the cached value for key or loads and stores it.
// Concurrent misses on the same key of the same cache share a single call
// to load. The load runs detached from the cancellation of the caller that
// started it; every caller still returns early when its own ctx is done.
// A failed load is returned as is and nothing is cached.
func GetOrSet[V any](ctx context.Context, c Cache[V], key string, load LoadFunc[V]) (V, error) {
	var zero V

	if v, err := c.Get(ctx, key); err == nil {
		return v, nil
	}

	ch := loads.DoChan(flightKey(c, key), func() (any, error) {
		lctx := context.WithoutCancel(ctx)
		v, ttl, err := load(lctx)
		if err != nil {
			return nil, err
		}
		_ = c.Set(lctx, key, v, ttl) // a failed write only costs a reload
		return loaded[V]{value: v}, nil
	})

	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(loaded[V]).value, nil
	}
}

// flightKey scopes key to the cache instance and its value type.
func flightKey[V any](c Cache[V], key string) string {
	return fmt.Sprintf("%T@%p\x00%s", c, c, key)
}
