package logger

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDateFile_Rotates(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	w, err := newDateFile(filepath.Join(dir, "app.log"), "")
	require.NoError(t, err)
	defer w.Close()

	day := time.Date(2026, 3, 1, 23, 59, 0, 0, time.UTC)
	w.now = func() time.Time { return day }

	_, err = w.Write([]byte("first\n"))
	require.NoError(t, err)

	day = day.Add(2 * time.Minute)
	_, err = w.Write([]byte("second\n"))
	require.NoError(t, err)

	first, err := os.ReadFile(filepath.Join(dir, "app-2026-03-01.log"))
	require.NoError(t, err)
	require.Equal(t, "first\n", string(first))

	second, err := os.ReadFile(filepath.Join(dir, "app-2026-03-02.log"))
	require.NoError(t, err)
	require.Equal(t, "second\n", string(second))
}

func TestDateFile_CustomLayout(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	w, err := newDateFile(filepath.Join(dir, "app.log"), "2006-01")
	require.NoError(t, err)
	w.now = func() time.Time { return time.Date(2026, 5, 9, 0, 0, 0, 0, time.UTC) }

	_, err = w.Write([]byte("x"))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())

	_, err = os.Stat(filepath.Join(dir, "app-2026-05.log"))
	require.NoError(t, err)
}
