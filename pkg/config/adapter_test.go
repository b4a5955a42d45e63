package config_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/anvil/pkg/config"
)

type handles map[string]map[string]any

func (h handles) Adapter(kind, name string) (any, bool) {
	v, ok := h[kind][name]
	return v, ok
}

func TestFormatAdapters(t *testing.T) {
	t.Parallel()

	registry := handles{"cache": {"redis": "redis-factory", "memory": "memory-factory"}}

	t.Run("merges common and resolves handles", func(t *testing.T) {
		t.Parallel()

		src := map[string]any{
			"cache": map[string]any{
				"type":   "redis",
				"common": map[string]any{"ttl": "1h", "prefix": "app"},
				"redis":  map[string]any{"handle": "redis", "prefix": "blog"},
				"memory": map[string]any{"handle": "memory"},
			},
			"session": map[string]any{},
		}

		out, err := config.FormatAdapters(src, registry)
		require.NoError(t, err)

		cache := out["cache"].(map[string]any)
		require.NotContains(t, cache, "common")
		require.Equal(t, map[string]any{"handle": "redis-factory", "ttl": "1h", "prefix": "blog"}, cache["redis"])
		require.Equal(t, map[string]any{"handle": "memory-factory", "ttl": "1h", "prefix": "app"}, cache["memory"])
		require.Empty(t, out["session"])

		// Source is untouched.
		require.Contains(t, src["cache"].(map[string]any), "common")
	})

	t.Run("active adapter", func(t *testing.T) {
		t.Parallel()

		out, err := config.FormatAdapters(map[string]any{
			"cache": map[string]any{"type": "memory", "memory": map[string]any{"handle": "memory"}},
		}, registry)
		require.NoError(t, err)

		typ, item, ok := config.ActiveAdapter(out, "cache")
		require.True(t, ok)
		require.Equal(t, "memory", typ)
		require.Equal(t, "memory-factory", item["handle"])

		_, _, ok = config.ActiveAdapter(out, "db")
		require.False(t, ok)
	})

	t.Run("errors", func(t *testing.T) {
		t.Parallel()

		tests := map[string]struct {
			src    map[string]any
			target error
		}{
			"not a mapping":  {src: map[string]any{"cache": "redis"}, target: config.ErrInvalidAdapter},
			"missing type":   {src: map[string]any{"cache": map[string]any{"redis": map[string]any{}}}, target: config.ErrInvalidAdapter},
			"bad common":     {src: map[string]any{"cache": map[string]any{"type": "x", "common": "x"}}, target: config.ErrInvalidAdapter},
			"unknown handle": {src: map[string]any{"cache": map[string]any{"type": "x", "x": map[string]any{"handle": "nope"}}}, target: config.ErrUnknownHandle},
		}
		for name, tt := range tests {
			t.Run(name, func(t *testing.T) {
				t.Parallel()

				_, err := config.FormatAdapters(tt.src, registry)
				require.ErrorIs(t, err, tt.target)
			})
		}
	})
}
