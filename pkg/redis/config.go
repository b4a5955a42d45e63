package redis

import (
	"time"

	"dario.cat/mergo"
	"github.com/spf13/cast"

	"github.com/dmitrymomot/anvil/pkg/config"
)

// Config describes a Redis connection. Zero fields take the values of DefaultConfig.
type Config struct {
	URL           string
	PoolSize      int
	MinIdleConns  int
	MaxIdleTime   time.Duration
	MaxLifetime   time.Duration
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
	DialTimeout   time.Duration
	RetryAttempts int
	RetryInterval time.Duration
}

// DefaultConfig returns the connection defaults.
func DefaultConfig() Config {
	return Config{
		PoolSize:      10,
		MinIdleConns:  5,
		MaxIdleTime:   10 * time.Minute,
		MaxLifetime:   30 * time.Minute,
		ReadTimeout:   3 * time.Second,
		WriteTimeout:  3 * time.Second,
		DialTimeout:   5 * time.Second,
		RetryAttempts: 3,
		RetryInterval: 5 * time.Second,
	}
}

// ConfigFrom reads a Config from adapter options.
// Durations accept Go duration strings or a number of milliseconds.
//
//	redis:
//	  url: redis://localhost:6379/0
//	  poolSize: 20
//	  retryInterval: 2s
func ConfigFrom(opts map[string]any) Config {
	cfg := Config{
		URL:           cast.ToString(opts["url"]),
		PoolSize:      cast.ToInt(opts["poolSize"]),
		MinIdleConns:  cast.ToInt(opts["minIdleConns"]),
		MaxIdleTime:   config.ToDuration(opts["maxIdleTime"]),
		MaxLifetime:   config.ToDuration(opts["maxLifetime"]),
		ReadTimeout:   config.ToDuration(opts["readTimeout"]),
		WriteTimeout:  config.ToDuration(opts["writeTimeout"]),
		DialTimeout:   config.ToDuration(opts["dialTimeout"]),
		RetryAttempts: cast.ToInt(opts["retryAttempts"]),
		RetryInterval: config.ToDuration(opts["retryInterval"]),
	}
	return cfg.withDefaults()
}

func (c Config) withDefaults() Config {
	_ = mergo.Merge(&c, DefaultConfig())
	return c
}
