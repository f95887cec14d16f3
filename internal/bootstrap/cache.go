package bootstrap

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/staysite/site-sync-backend/config"
	"github.com/staysite/site-sync-backend/internal/projects/cache"
)

// OpenedCache is a cache backend plus what main needs to report on and
// release it. Pinger is nil for the in-memory backend.
type OpenedCache struct {
	Cache  cache.Cache
	Pinger interface {
		Ping(ctx context.Context) error
	}
	Closer io.Closer
}

func OpenCache(ctx context.Context, cfg config.CacheConfig) (*OpenedCache, error) {
	switch cfg.Backend {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		pctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := client.Ping(pctx).Err(); err != nil {
			client.Close()
			return nil, fmt.Errorf("redis ping %s: %w", cfg.RedisAddr, err)
		}
		c := cache.NewRedis(client)
		return &OpenedCache{Cache: c, Pinger: c, Closer: client}, nil

	case "sqlite":
		c, err := cache.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return &OpenedCache{Cache: c, Pinger: c, Closer: c}, nil

	case "memory", "":
		return &OpenedCache{Cache: cache.NewMemory(), Closer: io.NopCloser(nil)}, nil

	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}
