package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/mailportal/pkg/cache"
)

func TestMemory(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("missing key", func(t *testing.T) {
		t.Parallel()

		c := cache.NewMemory[string]()
		defer c.Close()

		_, err := c.Get(ctx, "missing")
		require.ErrorIs(t, err, cache.ErrNotFound)
	})

	t.Run("stores and returns value", func(t *testing.T) {
		t.Parallel()

		c := cache.NewMemory[[]string]()
		defer c.Close()

		require.NoError(t, c.Set(ctx, "k", []string{"a", "b"}, time.Minute))

		v, err := c.Get(ctx, "k")
		require.NoError(t, err)
		require.Equal(t, []string{"a", "b"}, v)
	})

	t.Run("expired entry is a miss", func(t *testing.T) {
		t.Parallel()

		c := cache.NewMemory[int](cache.WithSweepInterval(0))
		defer c.Close()

		require.NoError(t, c.Set(ctx, "k", 1, time.Millisecond))
		time.Sleep(5 * time.Millisecond)

		_, err := c.Get(ctx, "k")
		require.ErrorIs(t, err, cache.ErrNotFound)
	})

	t.Run("negative ttl never expires", func(t *testing.T) {
		t.Parallel()

		c := cache.NewMemory[int](cache.WithDefaultTTL(time.Millisecond))
		defer c.Close()

		require.NoError(t, c.Set(ctx, "k", 7, -1))
		time.Sleep(5 * time.Millisecond)

		v, err := c.Get(ctx, "k")
		require.NoError(t, err)
		require.Equal(t, 7, v)
	})

	t.Run("delete removes entry", func(t *testing.T) {
		t.Parallel()

		c := cache.NewMemory[int]()
		defer c.Close()

		require.NoError(t, c.Set(ctx, "k", 1, 0))
		require.NoError(t, c.Delete(ctx, "k"))

		_, err := c.Get(ctx, "k")
		require.ErrorIs(t, err, cache.ErrNotFound)
	})

	t.Run("closed cache rejects calls", func(t *testing.T) {
		t.Parallel()

		c := cache.NewMemory[int]()
		require.NoError(t, c.Close())
		require.NoError(t, c.Close())

		_, err := c.Get(ctx, "k")
		require.ErrorIs(t, err, cache.ErrClosed)
		require.ErrorIs(t, c.Set(ctx, "k", 1, 0), cache.ErrClosed)
	})
}
