package db

import (
	"context"
	"embed"
	"fmt"
	"io/fs"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

// provider wraps the pool in a *sql.DB for goose. Callers must Close the
// provider, which closes that *sql.DB but leaves the pool open.
func provider(pool *pgxpool.Pool) (*goose.Provider, error) {
	dir, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return nil, err
	}

	// borrowed pool connections go straight back after each statement
	sqlDB := stdlib.OpenDBFromPool(pool)
	sqlDB.SetMaxIdleConns(0)

	p, err := goose.NewProvider(goose.DialectPostgres, sqlDB, dir)
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("goose provider: %w", err)
	}
	return p, nil
}

// Migrate applies every pending migration.
func Migrate(ctx context.Context, pool *pgxpool.Pool) ([]*goose.MigrationResult, error) {
	p, err := provider(pool)
	if err != nil {
		return nil, err
	}
	defer p.Close()

	return p.Up(ctx)
}

// MigrationStatus reports which migrations are applied.
func MigrationStatus(ctx context.Context, pool *pgxpool.Pool) ([]*goose.MigrationStatus, error) {
	p, err := provider(pool)
	if err != nil {
		return nil, err
	}
	defer p.Close()

	return p.Status(ctx)
}
