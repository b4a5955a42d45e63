package cache

import (
	"context"
	"time"

	"github.com/spf13/cast"

	"github.com/dmitrymomot/anvil/pkg/config"
	"github.com/dmitrymomot/anvil/pkg/redis"
)

// Factory opens a byte store from the options of a cache adapter item.
type Factory func(ctx context.Context, opts map[string]any) (Cache[[]byte], error)

// Adapter handles registered by the framework under the "cache" kind.
const (
	HandleMemory = "memory"
	HandleRedis  = "redis"
)

// OpenMemory is the Factory of the memory adapter.
//
// Options: timeout (default ttl), cleanupInterval, maxEntries.
func OpenMemory(_ context.Context, opts map[string]any) (Cache[[]byte], error) {
	return NewMemory[[]byte](MemoryConfig{
		DefaultTTL:      durationOpt(opts["timeout"], 0),
		CleanupInterval: durationOpt(opts["cleanupInterval"], time.Minute),
		MaxEntries:      cast.ToInt(opts["maxEntries"]),
	}), nil
}

// OpenRedis is the Factory of the redis adapter. The connection options are
// those of [redis.ConfigFrom]; prefix and timeout configure the store.
// Closing the store closes the client.
func OpenRedis(ctx context.Context, opts map[string]any) (Cache[[]byte], error) {
	client, err := redis.Open(ctx, redis.ConfigFrom(opts))
	if err != nil {
		return nil, err
	}
	return NewRedis[[]byte](client, Raw{}, RedisConfig{
		Prefix:      cast.ToString(opts["prefix"]),
		DefaultTTL:  durationOpt(opts["timeout"], 0),
		CloseClient: true,
	}), nil
}

func durationOpt(v any, def time.Duration) time.Duration {
	if v == nil {
		return def
	}
	return config.ToDuration(v)
}
