package db_test

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/anvil/pkg/db"
)

func TestConfigFrom(t *testing.T) {
	t.Parallel()

	cfg := db.ConfigFrom(map[string]any{
		"url":           "postgres://app@localhost/app",
		"migrations":    "migrations",
		"maxOpenConns":  25,
		"retryInterval": "100ms",
	})
	require.Equal(t, "postgres://app@localhost/app", cfg.ConnectionString)
	require.Equal(t, "migrations", cfg.Migrations)
	require.Equal(t, int32(25), cfg.MaxOpenConns)
	require.Equal(t, 100*time.Millisecond, cfg.RetryInterval)

	def := db.DefaultConfig()
	require.Equal(t, def.MigrationsTable, cfg.MigrationsTable)
	require.Equal(t, def.MinConns, cfg.MinConns)
	require.Equal(t, def.MaxConnLifetime, cfg.MaxConnLifetime)
}

func TestConnect_Validation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	_, err := db.Connect(ctx, db.Config{})
	require.ErrorIs(t, err, db.ErrNoDSN)

	_, err = db.Connect(ctx, db.Config{ConnectionString: "postgres://%zz"})
	require.ErrorIs(t, err, db.ErrBadDSN)
}

func TestHealthcheck_NilPool(t *testing.T) {
	t.Parallel()

	require.ErrorIs(t, db.Healthcheck(nil)(context.Background()), db.ErrNotReady)
}

func TestMigrate_NoDirectory(t *testing.T) {
	t.Parallel()

	require.NoError(t, db.Migrate(context.Background(), nil, nil, db.Config{}, nil))
}

func TestWithTx_NilPool(t *testing.T) {
	t.Parallel()

	called := false
	err := db.WithTx(context.Background(), nil, func(pgx.Tx) error {
		called = true
		return nil
	})
	require.ErrorIs(t, err, db.ErrNotReady)
	require.False(t, called)
}
