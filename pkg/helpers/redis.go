package helpers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient builds a client with short timeouts: every Redis use here
// sits on a request path.
func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})
}

// RedisSetJSON stores value as JSON under key for ttl.
func RedisSetJSON(ctx context.Context, rdb redis.Cmdable, key string, value any, ttl time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return rdb.Set(ctx, key, b, ttl).Err()
}

// RedisGetJSON reports false without error when the key does not exist.
func RedisGetJSON[T any](ctx context.Context, rdb redis.Cmdable, key string, dest *T) (bool, error) {
	res, err := rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(res, dest); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// RedisMark sets a presence flag that disappears after ttl. A non-positive
// ttl is a no-op since the flag would already be stale.
func RedisMark(ctx context.Context, rdb redis.Cmdable, key string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return rdb.Set(ctx, key, "1", ttl).Err()
}

// RedisClaim sets key only if it is absent and reports whether this call set it.
func RedisClaim(ctx context.Context, rdb redis.Cmdable, key string, ttl time.Duration) (bool, error) {
	return rdb.SetNX(ctx, key, "1", ttl).Result()
}

// RedisTakeJSON reads and deletes key in one step, so only one caller gets it.
func RedisTakeJSON[T any](ctx context.Context, rdb redis.Cmdable, key string, dest *T) (bool, error) {
	res, err := rdb.GetDel(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(res, dest); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// RedisExists reports whether any of keys exists.
func RedisExists(ctx context.Context, rdb redis.Cmdable, keys ...string) (bool, error) {
	n, err := rdb.Exists(ctx, keys...).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func RedisDel(ctx context.Context, rdb redis.Cmdable, key string) error {
	return rdb.Del(ctx, key).Err()
}
