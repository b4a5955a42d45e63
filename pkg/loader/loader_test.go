package loader_test

import (
	"errors"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/anvil/pkg/loader"
)

func TestRegistry(t *testing.T) {
	t.Parallel()

	t.Run("register and lookup", func(t *testing.T) {
		t.Parallel()

		r := loader.NewRegistry[int]()
		require.NoError(t, r.Register("user", 1))
		require.NoError(t, r.Register("/admin/user/", 2))
		require.NoError(t, r.Register(`admin\role`, 3))

		v, ok := r.Lookup("admin/user")
		require.True(t, ok)
		require.Equal(t, 2, v)

		v, ok = r.Lookup("admin/role")
		require.True(t, ok)
		require.Equal(t, 3, v)

		_, ok = r.Lookup("missing")
		require.False(t, ok)
		require.True(t, r.Has("user"))
		require.Equal(t, []string{"admin/role", "admin/user", "user"}, r.Names())
		require.Equal(t, 3, r.Len())
	})

	t.Run("rejects duplicates and empty names", func(t *testing.T) {
		t.Parallel()

		r := loader.NewRegistry[string]()
		require.NoError(t, r.Register("user", "a"))
		require.ErrorIs(t, r.Register("/user", "b"), loader.ErrDuplicate)
		require.ErrorIs(t, r.Register(" / ", "c"), loader.ErrEmptyName)
		require.Panics(t, func() { r.MustRegister("user", "d") })
	})
}

func TestAdapters(t *testing.T) {
	t.Parallel()

	a := loader.NewAdapters()
	require.NoError(t, a.Register("cache", "redis", "redis-impl"))
	require.NoError(t, a.Register("cache", "memory", "memory-impl"))
	require.NoError(t, a.Register("logger", "console", "console-impl"))
	require.ErrorIs(t, a.Register("cache", "redis", "again"), loader.ErrDuplicate)
	require.ErrorIs(t, a.Register("", "x", nil), loader.ErrEmptyName)

	impl, ok := a.Adapter("cache", "redis")
	require.True(t, ok)
	require.Equal(t, "redis-impl", impl)

	_, ok = a.Adapter("cache", "file")
	require.False(t, ok)
	_, ok = a.Adapter("db", "redis")
	require.False(t, ok)

	require.Equal(t, []string{"cache", "logger"}, a.Kinds())
	require.Equal(t, []string{"memory", "redis"}, a.Names("cache"))
}

func TestScan(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{
		"app/config/config.yaml":         {Data: []byte("a: 1")},
		"app/config/router.json":         {Data: []byte("[]")},
		"app/config/.hidden.yaml":        {Data: []byte("")},
		"app/config/.git/x.yaml":         {Data: []byte("")},
		"app/config/nested/extra.yaml":   {Data: []byte("")},
		"app/config/readme.md":           {Data: []byte("")},
		"app/adapter/cache/redis.yaml":   {Data: []byte("url: redis://x")},
		"app/adapter/cache/memory.yaml":  {Data: []byte("ttl: 1m")},
		"app/adapter/top.yaml":           {Data: []byte("")},
		"app/adapter/a/b/too_deep.yaml":  {Data: []byte("")},
		"app/adapter/session/file.json":  {Data: []byte("{}")},
		"app/adapter/session/notes.txt":  {Data: []byte("")},
		"app/adapter/logger/console.yml": {Data: []byte("")},
	}

	t.Run("flat and nested names", func(t *testing.T) {
		t.Parallel()

		files, err := loader.Scan(fsys, "app/config", ".yaml", ".json")
		require.NoError(t, err)
		require.Equal(t, map[string]string{
			"config":       "app/config/config.yaml",
			"router":       "app/config/router.json",
			"nested/extra": "app/config/nested/extra.yaml",
		}, files)
	})

	t.Run("missing directory", func(t *testing.T) {
		t.Parallel()

		files, err := loader.Scan(fsys, "app/controller")
		require.NoError(t, err)
		require.Empty(t, files)
	})

	t.Run("two level adapters", func(t *testing.T) {
		t.Parallel()

		files, err := loader.ScanAdapters(fsys, "app/adapter", ".yaml", ".yml", ".json")
		require.NoError(t, err)
		require.Equal(t, map[string]map[string]string{
			"cache": {
				"redis":  "app/adapter/cache/redis.yaml",
				"memory": "app/adapter/cache/memory.yaml",
			},
			"session": {"file": "app/adapter/session/file.json"},
			"logger":  {"console": "app/adapter/logger/console.yml"},
		}, files)
	})

	t.Run("load dir", func(t *testing.T) {
		t.Parallel()

		sizes, err := loader.LoadDir(fsys, "app/adapter/cache", func(_ string, data []byte) (int, error) {
			return len(data), nil
		}, ".yaml")
		require.NoError(t, err)
		require.Equal(t, map[string]int{"redis": 14, "memory": 7}, sizes)
	})

	t.Run("load dir propagates decode errors", func(t *testing.T) {
		t.Parallel()

		boom := errors.New("boom")
		_, err := loader.LoadDir(fsys, "app/config", func(string, []byte) (any, error) {
			return nil, boom
		}, ".yaml")
		require.ErrorIs(t, err, boom)
	})
}
