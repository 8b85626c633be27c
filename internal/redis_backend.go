package internal

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisOpTimeout = 3 * time.Second

// RedisBackend stores guest keys in Redis under a namespace prefix, so a
// gateway fleet can share one guest profile.
type RedisBackend struct {
	client *redis.Client
	prefix string
}

// NewRedisBackend wraps an existing client
func NewRedisBackend(client *redis.Client, prefix string) *RedisBackend {
	return &RedisBackend{client: client, prefix: prefix}
}

// OpenRedisBackend connects to redisURL and verifies the connection
func OpenRedisBackend(redisURL, prefix string) (*RedisBackend, error) {
	if redisURL == "" {
		return nil, &StorageError{Backend: "redis", Op: "open", Err: errors.New("redis URL is empty")}
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, &StorageError{Backend: "redis", Op: "open", Err: fmt.Errorf("failed to parse Redis URL: %w", err)}
	}
	opts.MaxRetries = 3
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = redisOpTimeout
	opts.WriteTimeout = redisOpTimeout

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, &StorageError{Backend: "redis", Op: "open", Err: fmt.Errorf("failed to connect to Redis: %w", err)}
	}

	LogDebug("Redis backend connected (prefix %q)", prefix)
	return NewRedisBackend(client, prefix), nil
}

func (r *RedisBackend) key(k string) string {
	if r.prefix == "" {
		return k
	}
	return r.prefix + ":" + k
}

// Get returns the value stored under key
func (r *RedisBackend) Get(key string) (string, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	val, err := r.client.Get(ctx, r.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, &StorageError{Backend: "redis", Op: "get", Key: key, Err: err}
	}
	return val, true, nil
}

// Set overwrites the value stored under key
func (r *RedisBackend) Set(key, value string) error {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	if err := r.client.Set(ctx, r.key(key), value, 0).Err(); err != nil {
		return &StorageError{Backend: "redis", Op: "set", Key: key, Err: err}
	}
	return nil
}

// Remove deletes key
func (r *RedisBackend) Remove(key string) error {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	if err := r.client.Del(ctx, r.key(key)).Err(); err != nil {
		return &StorageError{Backend: "redis", Op: "remove", Key: key, Err: err}
	}
	return nil
}

// Keys lists stored keys starting with prefix
func (r *RedisBackend) Keys(prefix string) ([]string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	var keys []string
	iter := r.client.Scan(ctx, 0, r.key(prefix)+"*", 100).Iterator()
	for iter.Next(ctx) {
		k := iter.Val()
		if r.prefix != "" {
			k = strings.TrimPrefix(k, r.prefix+":")
		}
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	if err := iter.Err(); err != nil {
		return nil, &StorageError{Backend: "redis", Op: "keys", Key: prefix, Err: err}
	}
	sort.Strings(keys)
	return keys, nil
}

// Close closes the Redis connection
func (r *RedisBackend) Close() error {
	return r.client.Close()
}
