// Package cache provides the cache adapters of the framework.
//
// Two stores implement [Cache]: [Memory], an in-process map with TTL expiry
// and optional LRU eviction, and [Redis], backed by a go-redis client.
//
// Applications choose a store through the cache adapter configuration:
//
//	cache:
//	  type: redis
//	  common:
//	    timeout: 1h
//	  redis:
//	    handle: redis
//	    url: redis://localhost:6379/0
//	    prefix: app
//
// The framework keeps a Cache[[]byte] and callers use [GetJSON], [SetJSON] and
// [GetOrSet] for typed values.
package cache
