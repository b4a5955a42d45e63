package db

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// Migrate runs the goose migrations under cfg.Migrations in fsys up to the
// latest version. It does nothing when cfg.Migrations is empty.
func Migrate(ctx context.Context, pool *pgxpool.Pool, fsys fs.FS, cfg Config, log *slog.Logger) error {
	if cfg.Migrations == "" {
		return nil
	}
	cfg = cfg.withDefaults()
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	goose.SetBaseFS(fsys)
	goose.SetLogger(migrationLog{log.With("table", cfg.MigrationsTable)})
	goose.SetTableName(cfg.MigrationsTable)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("%w: %w", ErrMigrate, err)
	}

	// The *sql.DB borrows pool connections and must stay open with the pool.
	if err := goose.UpContext(ctx, stdlib.OpenDBFromPool(pool), cfg.Migrations); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrMigrate, cfg.Migrations, err)
	}
	return nil
}

// migrationLog routes goose output to the application logger.
type migrationLog struct{ *slog.Logger }

func (m migrationLog) Printf(format string, args ...any) {
	m.Info("migrate: " + fmt.Sprintf(format, args...))
}

func (m migrationLog) Fatalf(format string, args ...any) {
	m.Error("migrate: " + fmt.Sprintf(format, args...))
}
