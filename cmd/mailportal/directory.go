package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dmitrymomot/mailportal/internal/config"
	"github.com/dmitrymomot/mailportal/pkg/cache"
	"github.com/dmitrymomot/mailportal/pkg/db"
	"github.com/dmitrymomot/mailportal/pkg/directory"
	"github.com/dmitrymomot/mailportal/pkg/redis"
)

const (
	connectAttempts = 3
	connectBackoff  = time.Second
	cachePrefix     = "mailportal"
)

// newDirectory opens the configured user source and wraps it in a cache
// when directory.cache_ttl is positive.
func newDirectory(ctx context.Context, cfg config.Config, log *slog.Logger, res *resources) (directory.Store, error) {
	var store directory.Store

	switch cfg.Directory.Source {
	case config.SourceFile, "":
		store = directory.NewFileStore(cfg.Directory.File)
	case config.SourcePostgres:
		pool, err := db.Connect(ctx, cfg.Database.URL,
			db.WithMaxConns(cfg.Database.MaxConns),
			db.WithRetry(connectAttempts, connectBackoff),
		)
		if err != nil {
			return nil, err
		}
		res.add("postgres", db.Healthcheck(pool), db.Shutdown(pool))

		if cfg.Database.Migrate {
			if err := db.Migrate(ctx, pool, directory.Migrations(), directory.MigrationsTable, log); err != nil {
				return nil, err
			}
		}
		store = directory.NewPostgresStore(pool)
	default:
		return nil, fmt.Errorf("unknown directory source %q", cfg.Directory.Source)
	}

	if cfg.Directory.CacheTTL > 0 {
		c, err := newUserCache(ctx, cfg, res)
		if err != nil {
			return nil, err
		}
		store = directory.NewCached(store, c, cfg.Directory.CacheTTL)
	}

	res.add("directory", directory.Healthcheck(store), nil)
	return store, nil
}

func newUserCache(ctx context.Context, cfg config.Config, res *resources) (cache.Cache[[]directory.User], error) {
	if cfg.Redis.URL == "" {
		c := cache.NewMemory[[]directory.User](cache.WithDefaultTTL(cfg.Directory.CacheTTL))
		res.add("", nil, func(context.Context) error { return c.Close() })
		return c, nil
	}

	client, err := redis.Open(ctx, cfg.Redis.URL, redis.WithRetry(connectAttempts, connectBackoff))
	if err != nil {
		return nil, err
	}
	res.add("redis", redis.Healthcheck(client), redis.Shutdown(client))

	return cache.NewRedis[[]directory.User](client, cache.JSONCodec[[]directory.User]{},
		cache.WithPrefix(cachePrefix),
		cache.WithRedisDefaultTTL(cfg.Directory.CacheTTL),
	), nil
}
