// Package db opens pgx connection pools and applies goose migrations.
package db

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Option adjusts the pool configuration parsed from the connection URL.
type Option func(*pgxpool.Config, *retry)

type retry struct {
	attempts int
	backoff  time.Duration
}

// WithMaxConns caps the pool size. Default: pgx's own default.
func WithMaxConns(n int32) Option {
	return func(c *pgxpool.Config, _ *retry) { c.MaxConns = n }
}

// WithMaxConnIdleTime closes connections idle for longer than d.
func WithMaxConnIdleTime(d time.Duration) Option {
	return func(c *pgxpool.Config, _ *retry) { c.MaxConnIdleTime = d }
}

// WithRetry sets the number of connection attempts at startup and the
// linear backoff between them. Default: 3 attempts, 2s.
func WithRetry(attempts int, backoff time.Duration) Option {
	return func(_ *pgxpool.Config, r *retry) {
		r.attempts = attempts
		r.backoff = backoff
	}
}

// Connect opens a pool and pings it, retrying transient failures.
func Connect(ctx context.Context, url string, opts ...Option) (*pgxpool.Pool, error) {
	if url == "" {
		return nil, ErrEmptyConnectionURL
	}

	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, errors.Join(ErrFailedToParseDBConfig, err)
	}

	r := retry{attempts: 3, backoff: 2 * time.Second}
	for _, opt := range opts {
		opt(cfg, &r)
	}

	var lastErr error
	for i := range max(r.attempts, 1) {
		pool, err := pgxpool.NewWithConfig(ctx, cfg)
		if err == nil {
			if err = pool.Ping(ctx); err == nil {
				return pool, nil
			}
			pool.Close()
		}
		lastErr = err

		select {
		case <-ctx.Done():
			return nil, errors.Join(ErrFailedToOpenDBConnection, ctx.Err())
		case <-time.After(time.Duration(i+1) * r.backoff):
		}
	}

	return nil, errors.Join(ErrFailedToOpenDBConnection, lastErr)
}

// Healthcheck pings the pool.
func Healthcheck(pool *pgxpool.Pool) func(context.Context) error {
	return func(ctx context.Context) error {
		if pool == nil {
			return ErrHealthcheckFailed
		}
		if err := pool.Ping(ctx); err != nil {
			return errors.Join(ErrHealthcheckFailed, err)
		}
		return nil
	}
}

// Shutdown closes the pool when the server stops.
func Shutdown(pool *pgxpool.Pool) func(context.Context) error {
	return func(context.Context) error {
		pool.Close()
		return nil
	}
}
