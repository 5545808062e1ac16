package cache_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/mailportal/pkg/cache"
	"github.com/dmitrymomot/mailportal/pkg/redis"
)

func TestRedis(t *testing.T) {
	url := os.Getenv("MAILPORTAL_TEST_REDIS_URL")
	if url == "" {
		t.Skip("MAILPORTAL_TEST_REDIS_URL not set")
	}

	ctx := context.Background()
	client, err := redis.Open(ctx, url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	c := cache.NewRedis[[]string](client, nil, cache.WithPrefix("mailportal-test"))

	_, err = c.Get(ctx, "missing")
	require.ErrorIs(t, err, cache.ErrNotFound)

	require.NoError(t, c.Set(ctx, "k", []string{"a"}, time.Minute))
	v, err := c.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, []string{"a"}, v)

	require.NoError(t, c.Delete(ctx, "k"))
	_, err = c.Get(ctx, "k")
	require.ErrorIs(t, err, cache.ErrNotFound)
}
