package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemory_Expiry(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	m := NewMemory[string](MemoryConfig{DefaultTTL: time.Minute})
	defer m.Close()
	m.now = func() time.Time { return now }

	require.NoError(t, m.Set(ctx, "default", "a", 0))
	require.NoError(t, m.Set(ctx, "short", "b", time.Second))
	require.NoError(t, m.Set(ctx, "forever", "c", -1))

	now = now.Add(2 * time.Second)
	_, err := m.Get(ctx, "short")
	require.ErrorIs(t, err, ErrNotFound)
	_, err = m.Get(ctx, "default")
	require.NoError(t, err)

	now = now.Add(time.Hour)
	m.purge()
	require.Equal(t, 1, m.Len())

	v, err := m.Get(ctx, "forever")
	require.NoError(t, err)
	require.Equal(t, "c", v)
}
