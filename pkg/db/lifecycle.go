package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Healthcheck pings the pool. A nil pool is never ready.
func Healthcheck(pool *pgxpool.Pool) func(context.Context) error {
	return func(ctx context.Context) error {
		if pool == nil {
			return fmt.Errorf("%w: no pool", ErrNotReady)
		}
		if err := pool.Ping(ctx); err != nil {
			return fmt.Errorf("%w: %w", ErrNotReady, err)
		}
		return nil
	}
}

// Shutdown closes the pool when the application stops.
func Shutdown(pool *pgxpool.Pool) func(context.Context) error {
	return func(context.Context) error {
		pool.Close()
		return nil
	}
}

// WithTx runs fn in a transaction on pool. The transaction is committed when
// fn returns nil and rolled back on an error or a panic.
func WithTx(ctx context.Context, pool *pgxpool.Pool, fn func(tx pgx.Tx) error) error {
	if pool == nil {
		return fmt.Errorf("%w: no pool", ErrNotReady)
	}
	return pgx.BeginFunc(ctx, pool, fn)
}
