// Redis-backed Cache.
//
// This file provides an alternative backend for the ephemeral cache
// namespace when REDIS_ADDR is configured, keeping cache churn off the main
// SQLite file. The config namespaces always stay in SQLite; only the Cache
// contract is implemented here.
package kv

import (
	"context"
	"strings"

	"github.com/go-redis/redis/v8"
)

// RedisCache implements Cache on top of a Redis database. Keys are stored
// under "<namespace>:<key>" so several namespaces could share one Redis
// logical DB without colliding.
type RedisCache struct {
	rdb  *redis.Client
	name string
}

// NewRedisCache returns a RedisCache bound to the given namespace name.
func NewRedisCache(rdb *redis.Client, name string) *RedisCache {
	return &RedisCache{rdb: rdb, name: name}
}

func (r *RedisCache) redisKey(key string) string { return r.name + ":" + key }

// Get returns the value for key and whether it exists.
func (r *RedisCache) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := r.rdb.Get(ctx, r.redisKey(key)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

// Set writes key=value. Redis writes are always immediate, so autoSave is
// accepted for interface compatibility and ignored.
func (r *RedisCache) Set(ctx context.Context, key, value string, _ bool) error {
	return r.rdb.Set(ctx, r.redisKey(key), value, 0).Err()
}

// Save is a no-op: there are no staged writes in the Redis backend.
func (r *RedisCache) Save(context.Context) error { return nil }

// All returns every key/value pair in the namespace via SCAN.
func (r *RedisCache) All(ctx context.Context) (map[string]string, error) {
	out := make(map[string]string)
	iter := r.rdb.Scan(ctx, 0, r.redisKey("*"), 0).Iterator()
	for iter.Next(ctx) {
		full := iter.Val()
		v, err := r.rdb.Get(ctx, full).Result()
		if err == redis.Nil {
			continue // expired between SCAN and GET
		}
		if err != nil {
			return nil, err
		}
		out[strings.TrimPrefix(full, r.name+":")] = v
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetOrDefault returns the value for key, or def when absent.
func (r *RedisCache) GetOrDefault(ctx context.Context, key, def string) (string, error) {
	v, ok, err := r.Get(ctx, key)
	if err != nil {
		return "", err
	}
	if !ok {
		return def, nil
	}
	return v, nil
}

// Delete removes a single key.
func (r *RedisCache) Delete(ctx context.Context, key string) error {
	return r.rdb.Del(ctx, r.redisKey(key)).Err()
}

// DeletePrefix removes every key starting with prefix.
func (r *RedisCache) DeletePrefix(ctx context.Context, prefix string) error {
	iter := r.rdb.Scan(ctx, 0, r.redisKey(prefix)+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := r.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

// Clear removes every key in this namespace only.
func (r *RedisCache) Clear(ctx context.Context) error {
	return r.DeletePrefix(ctx, "")
}

// GetOrSet returns the existing value, or computes, stores, and returns a
// fresh one. compute runs at most once per call.
func (r *RedisCache) GetOrSet(ctx context.Context, key string, compute func() (string, error)) (string, error) {
	v, ok, err := r.Get(ctx, key)
	if err != nil {
		return "", err
	}
	if ok {
		return v, nil
	}
	v, err = compute()
	if err != nil {
		return "", err
	}
	if err := r.Set(ctx, key, v, true); err != nil {
		return "", err
	}
	return v, nil
}
