package cache

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/staysite/site-sync-backend/internal/logging"
	"github.com/staysite/site-sync-backend/internal/projects/domain"
)

// Redis keeps the project list as one JSON string value.
type Redis struct {
	client *redis.Client
	key    string
	log    *logging.Logger
}

var _ Cache = (*Redis)(nil)

// NewRedis creates a Redis-backed cache under the default key.
func NewRedis(client *redis.Client) *Redis {
	return NewRedisWithKey(client, Key)
}

// NewRedisWithKey creates a Redis-backed cache under key, e.g. one per device.
func NewRedisWithKey(client *redis.Client, key string) *Redis {
	return &Redis{
		client: client,
		key:    key,
		log:    logging.New("cache"),
	}
}

func (r *Redis) List(ctx context.Context) []domain.Project {
	data, err := r.client.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return []domain.Project{}
	}
	if err != nil {
		r.log.Warnf("list", "backend=redis key=%s read failed: %v", r.key, err)
		return []domain.Project{}
	}
	return decodeList(r.log, "redis", data)
}

// Replace stores the list with a single SET, which Redis applies atomically.
func (r *Redis) Replace(ctx context.Context, projects []domain.Project) error {
	data, err := encodeList(projects)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, r.key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to replace cached projects: %w", err)
	}
	return nil
}

func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
