package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Healthcheck pings the client. A nil client is never ready.
func Healthcheck(client redis.UniversalClient) func(context.Context) error {
	return func(ctx context.Context) error {
		if client == nil {
			return fmt.Errorf("%w: no client", ErrNotReady)
		}
		if err := client.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("%w: %w", ErrNotReady, err)
		}
		return nil
	}
}
