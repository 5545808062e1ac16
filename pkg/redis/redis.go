// Package redis opens go-redis clients from URLs and exposes health and
// shutdown hooks for them.
package redis

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Option tweaks the client options parsed from the URL.
type Option func(*settings)

type settings struct {
	poolSize     int
	dialTimeout  time.Duration
	attempts     int
	retryBackoff time.Duration
}

// WithPoolSize caps the connection pool. Default: 10.
func WithPoolSize(n int) Option {
	return func(s *settings) { s.poolSize = n }
}

// WithDialTimeout bounds a single connection attempt. Default: 5s.
func WithDialTimeout(d time.Duration) Option {
	return func(s *settings) { s.dialTimeout = d }
}

// WithRetry sets how many pings are attempted at startup and the linear
// backoff between them. Default: 3 attempts, 2s.
func WithRetry(attempts int, backoff time.Duration) Option {
	return func(s *settings) {
		s.attempts = attempts
		s.retryBackoff = backoff
	}
}

// Open parses a redis:// or rediss:// URL and returns a client that has
// answered a PING.
func Open(ctx context.Context, url string, opts ...Option) (redis.UniversalClient, error) {
	if url == "" {
		return nil, ErrEmptyConnectionURL
	}
	if !strings.HasPrefix(url, "redis://") && !strings.HasPrefix(url, "rediss://") {
		return nil, ErrFailedToParseURL
	}

	s := settings{poolSize: 10, dialTimeout: 5 * time.Second, attempts: 3, retryBackoff: 2 * time.Second}
	for _, opt := range opts {
		opt(&s)
	}

	ro, err := redis.ParseURL(url)
	if err != nil {
		return nil, errors.Join(ErrFailedToParseURL, err)
	}
	ro.PoolSize = s.poolSize
	ro.DialTimeout = s.dialTimeout

	var lastErr error
	for i := range max(s.attempts, 1) {
		client := redis.NewClient(ro)
		if lastErr = client.Ping(ctx).Err(); lastErr == nil {
			return client, nil
		}
		_ = client.Close()

		select {
		case <-ctx.Done():
			return nil, errors.Join(ErrConnectionFailed, ctx.Err())
		case <-time.After(time.Duration(i+1) * s.retryBackoff):
		}
	}

	return nil, errors.Join(ErrConnectionFailed, lastErr)
}

// Healthcheck pings the server.
func Healthcheck(client redis.UniversalClient) func(context.Context) error {
	return func(ctx context.Context) error {
		if client == nil {
			return ErrHealthcheckFailed
		}
		if err := client.Ping(ctx).Err(); err != nil {
			return errors.Join(ErrHealthcheckFailed, err)
		}
		return nil
	}
}

// Shutdown closes the client when the server stops.
func Shutdown(client redis.UniversalClient) func(context.Context) error {
	return func(context.Context) error {
		return client.Close()
	}
}
