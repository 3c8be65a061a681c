package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"backoffice/internal/config"
	"backoffice/internal/domain/model"

	"github.com/go-redis/redis/v8"
)

// ユーザーごとのロール集合を redis に置く
type RedisRoleCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisRoleCache(cfg config.RedisConfig, ttl time.Duration) *RedisRoleCache {
	return &RedisRoleCache{
		client: redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		}),
		ttl: ttl,
	}
}

func roleKey(userID int64) string {
	return fmt.Sprintf("roles:user:%d", userID)
}

func (c *RedisRoleCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// キャッシュに無ければ ok=false
func (c *RedisRoleCache) Get(ctx context.Context, userID int64) ([]model.RoleName, bool, error) {
	data, err := c.client.Get(ctx, roleKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var names []model.RoleName
	if err := json.Unmarshal([]byte(data), &names); err != nil {
		return nil, false, err
	}
	return names, true, nil
}

func (c *RedisRoleCache) Set(ctx context.Context, userID int64, names []model.RoleName) error {
	if names == nil {
		names = []model.RoleName{}
	}
	data, err := json.Marshal(names)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, roleKey(userID), data, c.ttl).Err()
}

func (c *RedisRoleCache) Invalidate(ctx context.Context, userID int64) error {
	return c.client.Del(ctx, roleKey(userID)).Err()
}

func (c *RedisRoleCache) Close() error {
	return c.client.Close()
}
