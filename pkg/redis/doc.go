// Package redis opens go-redis clients from adapter configuration.
//
// A connection is described by [Config], usually read from the options of a
// cache adapter with [ConfigFrom]:
//
//	client, err := redis.Open(ctx, redis.ConfigFrom(opts))
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
// [Healthcheck] is the readiness check behind the cache store's Ping.
//
// [Open] pings the server and retries with a linear backoff before giving up
// with [ErrUnreachable].
package redis
