package redis

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Open connects to Redis and pings it, retrying with a linear backoff.
// Both redis:// and rediss:// URLs are accepted.
func Open(ctx context.Context, cfg Config) (redis.UniversalClient, error) {
	cfg = cfg.withDefaults()
	opts, err := cfg.options()
	if err != nil {
		return nil, err
	}

	attempts := max(cfg.RetryAttempts, 1)
	for i := range attempts {
		client := redis.NewClient(opts)
		if err := client.Ping(ctx).Err(); err == nil {
			return client, nil
		}
		_ = client.Close()

		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return nil, errors.Join(ErrUnreachable, ctx.Err())
		case <-time.After(time.Duration(i+1) * cfg.RetryInterval):
		}
	}

	return nil, ErrUnreachable
}

// options translates cfg into go-redis client options.
func (c Config) options() (*redis.Options, error) {
	if c.URL == "" {
		return nil, ErrNoURL
	}
	if !strings.HasPrefix(c.URL, "redis://") && !strings.HasPrefix(c.URL, "rediss://") {
		return nil, ErrBadURL
	}

	opts, err := redis.ParseURL(c.URL)
	if err != nil {
		return nil, errors.Join(ErrBadURL, err)
	}
	opts.PoolSize = c.PoolSize
	opts.MinIdleConns = c.MinIdleConns
	opts.ConnMaxIdleTime = c.MaxIdleTime
	opts.ConnMaxLifetime = c.MaxLifetime
	opts.ReadTimeout = c.ReadTimeout
	opts.WriteTimeout = c.WriteTimeout
	opts.DialTimeout = c.DialTimeout
	return opts, nil
}
