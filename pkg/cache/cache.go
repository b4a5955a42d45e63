package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"
)

// Cache is a key-value store with per-entry TTL.
//
// A positive ttl passed to Set expires the entry after that duration, zero
// selects the store default and a negative ttl keeps the entry forever.
type Cache[V any] interface {
	Get(ctx context.Context, key string) (V, error)
	Set(ctx context.Context, key string, value V, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Has(ctx context.Context, key string) (bool, error)
	Clear(ctx context.Context) error
	Close() error
}

// Marshaler converts values for stores that keep bytes.
type Marshaler[V any] interface {
	Marshal(v V) ([]byte, error)
	Unmarshal(data []byte) (V, error)
}

// JSON is the default Marshaler.
type JSON[V any] struct{}

func (JSON[V]) Marshal(v V) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Join(ErrMarshal, err)
	}
	return data, nil
}

func (JSON[V]) Unmarshal(data []byte) (V, error) {
	var v V
	if err := json.Unmarshal(data, &v); err != nil {
		return v, errors.Join(ErrUnmarshal, err)
	}
	return v, nil
}

// Raw stores byte slices as they are.
type Raw struct{}

func (Raw) Marshal(v []byte) ([]byte, error)      { return v, nil }
func (Raw) Unmarshal(data []byte) ([]byte, error) { return data, nil }

// GetJSON reads key from a byte store and decodes it into T.
func GetJSON[T any](ctx context.Context, c Cache[[]byte], key string) (T, error) {
	data, err := c.Get(ctx, key)
	if err != nil {
		var zero T
		return zero, err
	}
	return JSON[T]{}.Unmarshal(data)
}

// SetJSON encodes value and stores it under key.
func SetJSON[T any](ctx context.Context, c Cache[[]byte], key string, value T, ttl time.Duration) error {
	data, err := JSON[T]{}.Marshal(value)
	if err != nil {
		return err
	}
	return c.Set(ctx, key, data, ttl)
}

var flight singleflight.Group

type computed[V any] struct {
	value V
	ttl   time.Duration
}

// GetOrSet returns the cached value of key or computes it with fn.
// Concurrent misses on the same key share a single call of fn.
// Errors from fn are returned and nothing is stored.
func GetOrSet[V any](ctx context.Context, c Cache[V], key string, fn func(context.Context) (V, time.Duration, error)) (V, error) {
	if v, err := c.Get(ctx, key); err == nil {
		return v, nil
	}

	// Stores of different value types must not share a flight.
	res, err, _ := flight.Do(fmt.Sprintf("%T:%s", c, key), func() (any, error) {
		v, ttl, err := fn(ctx)
		if err != nil {
			return nil, err
		}
		return computed[V]{value: v, ttl: ttl}, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}

	r := res.(computed[V])
	_ = c.Set(ctx, key, r.value, r.ttl)
	return r.value, nil
}
