package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Opinionated default timeouts for session reads and writes.
const (
	redisDialTimeout  = 2 * time.Second
	redisReadTimeout  = time.Second
	redisWriteTimeout = time.Second
)

var _ KeyValue = (*Redis)(nil)

// Redis stores the key-value map as fields of one Redis hash, which lets several
// clients on different machines share a session. Updates run in a MULTI/EXEC block.
type Redis struct {
	client *redis.Client
	key    string
}

// NewRedisClient parses a Redis URL and returns a client tuned for small, latency
// sensitive session operations. The connection is established lazily.
func NewRedisClient(redisURL string) (*redis.Client, error) {
	options, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis: invalid URL: %w", err)
	}
	options.PoolSize = 4
	options.MinIdleConns = 0
	options.MaxRetries = 1
	options.DialTimeout = redisDialTimeout
	options.ReadTimeout = redisReadTimeout
	options.WriteTimeout = redisWriteTimeout
	return redis.NewClient(options), nil
}

// NewRedis wraps client, keeping the session in the hash named key.
func NewRedis(client *redis.Client, key string) *Redis {
	return &Redis{
		client: client,
		key:    key,
	}
}

func (r *Redis) Get(ctx context.Context, keys ...string) (map[string]string, error) {
	result := make(map[string]string, len(keys))
	if len(keys) == 0 {
		return result, nil
	}
	values, err := r.client.HMGet(ctx, r.key, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: redis HMGET %s: %v", UnavailableErr, r.key, err)
	}
	for i, v := range values {
		if s, ok := v.(string); ok {
			result[keys[i]] = s
		}
	}
	return result, nil
}

func (r *Redis) Update(ctx context.Context, set map[string]string, remove ...string) error {
	if len(set) == 0 && len(remove) == 0 {
		return nil
	}
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if len(set) > 0 {
			pipe.HSet(ctx, r.key, set)
		}
		if len(remove) > 0 {
			pipe.HDel(ctx, r.key, remove...)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: redis update %s: %v", UnavailableErr, r.key, err)
	}
	return nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}
