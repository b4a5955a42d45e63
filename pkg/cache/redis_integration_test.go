//go:build integration

package cache_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/anvil/pkg/cache"
)

func TestRedis_Integration(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}

	ctx := context.Background()
	c, err := cache.OpenRedis(ctx, map[string]any{
		"url":           url,
		"prefix":        "anvil-test",
		"retryAttempts": 1,
	})
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.Clear(ctx))

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	v, err := c.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, "v", string(v))

	ok, err := c.Has(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, cache.SetJSON(ctx, c, "n", 7, 0))
	n, err := cache.GetJSON[int](ctx, c, "n")
	require.NoError(t, err)
	require.Equal(t, 7, n)

	require.NoError(t, c.Clear(ctx))
	_, err = c.Get(ctx, "k")
	require.ErrorIs(t, err, cache.ErrNotFound)
}
