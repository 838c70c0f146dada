package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/gamerec-backend/internal/platform/logger"
)

type RedisCache struct {
	rdb    *goredis.Client
	prefix string
	log    *logger.Logger
}

func NewRedisCache(rdb *goredis.Client, prefix string, baseLog *logger.Logger) *RedisCache {
	return &RedisCache{rdb: rdb, prefix: prefix, log: baseLog.With("cache", "RedisCache")}
}

func (c *RedisCache) k(key string) string { return c.prefix + key }

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrUnavailable, op, err)
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	raw, err := c.rdb.Get(ctx, c.k(key)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, unavailable("get", err)
	}
	return raw, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.rdb.Set(ctx, c.k(key), value, ttl).Err(); err != nil {
		return unavailable("set", err)
	}
	return nil
}

func (c *RedisCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, 0, len(keys))
	for _, k := range keys {
		full = append(full, c.k(k))
	}
	if err := c.rdb.Del(ctx, full...).Err(); err != nil {
		return unavailable("del", err)
	}
	return nil
}

func (c *RedisCache) Exists(ctx context.Context, key string) (bool, error) {
	n, err := c.rdb.Exists(ctx, c.k(key)).Result()
	if err != nil {
		return false, unavailable("exists", err)
	}
	return n > 0, nil
}

func (c *RedisCache) AddToSet(ctx context.Context, key string, ttl time.Duration, members ...string) (int64, error) {
	if len(members) == 0 {
		return 0, nil
	}
	full := c.k(key)
	args := make([]any, 0, len(members))
	for _, m := range members {
		args = append(args, m)
	}
	pipe := c.rdb.TxPipeline()
	added := pipe.SAdd(ctx, full, args...)
	if ttl > 0 {
		pipe.Expire(ctx, full, ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, unavailable("sadd", err)
	}
	return added.Val(), nil
}

func (c *RedisCache) SeedSet(ctx context.Context, key string, members []string, ttl time.Duration) error {
	full := c.k(key)
	pipe := c.rdb.TxPipeline()
	pipe.Del(ctx, full)
	if len(members) > 0 {
		args := make([]any, 0, len(members))
		for _, m := range members {
			args = append(args, m)
		}
		pipe.SAdd(ctx, full, args...)
		if ttl > 0 {
			pipe.Expire(ctx, full, ttl)
		}
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return unavailable("seed", err)
	}
	return nil
}

func (c *RedisCache) SetMembers(ctx context.Context, key string) ([]string, error) {
	out, err := c.rdb.SMembers(ctx, c.k(key)).Result()
	if err != nil {
		return nil, unavailable("smembers", err)
	}
	return out, nil
}

func (c *RedisCache) SetCard(ctx context.Context, key string) (int64, error) {
	n, err := c.rdb.SCard(ctx, c.k(key)).Result()
	if err != nil {
		return 0, unavailable("scard", err)
	}
	return n, nil
}
