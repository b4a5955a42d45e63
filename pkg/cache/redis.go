package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	anvilredis "github.com/dmitrymomot/anvil/pkg/redis"
)

// RedisConfig configures a Redis store.
type RedisConfig struct {
	// Prefix namespaces keys as "<prefix>:<key>". Without a prefix Clear flushes the database.
	Prefix     string
	DefaultTTL time.Duration
	// CloseClient makes Close also close the underlying client.
	CloseClient bool
}

// Redis is a Cache backed by a go-redis client.
type Redis[V any] struct {
	client redis.UniversalClient
	codec  Marshaler[V]
	cfg    RedisConfig
}

// NewRedis wraps client. A nil codec selects JSON.
func NewRedis[V any](client redis.UniversalClient, codec Marshaler[V], cfg RedisConfig) *Redis[V] {
	if codec == nil {
		codec = JSON[V]{}
	}
	return &Redis[V]{client: client, codec: codec, cfg: cfg}
}

func (r *Redis[V]) Get(ctx context.Context, key string) (V, error) {
	var zero V
	data, err := r.client.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return zero, ErrNotFound
	}
	if err != nil {
		return zero, err
	}
	return r.codec.Unmarshal(data)
}

func (r *Redis[V]) Set(ctx context.Context, key string, value V, ttl time.Duration) error {
	data, err := r.codec.Marshal(value)
	if err != nil {
		return err
	}
	if ttl == 0 {
		ttl = r.cfg.DefaultTTL
	}
	// Redis treats 0 as no expiration.
	return r.client.Set(ctx, r.key(key), data, max(ttl, 0)).Err()
}

func (r *Redis[V]) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.key(key)).Err()
}

func (r *Redis[V]) Has(ctx context.Context, key string) (bool, error) {
	n, err := r.client.Exists(ctx, r.key(key)).Result()
	return n > 0, err
}

func (r *Redis[V]) Clear(ctx context.Context) error {
	if r.cfg.Prefix == "" {
		return r.client.FlushDB(ctx).Err()
	}

	iter := r.client.Scan(ctx, 0, r.cfg.Prefix+":*", 100).Iterator()
	batch := make([]string, 0, 100)
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == cap(batch) {
			if err := r.client.Del(ctx, batch...).Err(); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(batch) > 0 {
		return r.client.Del(ctx, batch...).Err()
	}
	return nil
}

// Ping checks the connection. Failures wrap redis.ErrNotReady.
func (r *Redis[V]) Ping(ctx context.Context) error {
	return anvilredis.Healthcheck(r.client)(ctx)
}

func (r *Redis[V]) Close() error {
	if r.cfg.CloseClient {
		return r.client.Close()
	}
	return nil
}

func (r *Redis[V]) key(k string) string {
	if r.cfg.Prefix == "" {
		return k
	}
	return r.cfg.Prefix + ":" + k
}

var _ Cache[any] = (*Redis[any])(nil)
