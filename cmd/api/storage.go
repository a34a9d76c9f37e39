package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/geocoder89/docvault/internal/config"
	"github.com/geocoder89/docvault/internal/db"
	"github.com/geocoder89/docvault/internal/domain/file"
	"github.com/geocoder89/docvault/internal/domain/user"
	"github.com/geocoder89/docvault/internal/observability"
	"github.com/geocoder89/docvault/internal/repo/memory"
	"github.com/geocoder89/docvault/internal/repo/postgres"
)

type userStore interface {
	Create(ctx context.Context, u user.User) (user.User, error)
	GetByEmail(ctx context.Context, email string) (user.User, error)
	GetByID(ctx context.Context, id int64) (user.User, error)
	UpdatePasswordHash(ctx context.Context, email, hash string) error
}

type fileStore interface {
	Create(ctx context.Context, f file.File) (file.File, error)
	Replace(ctx context.Context, id int64, filename, fileURL string) (file.File, error)
	GetByID(ctx context.Context, id int64) (file.File, error)
	ListByOwner(ctx context.Context, ownerID int64, editedOnly bool) ([]file.File, error)
	ListAll(ctx context.Context) ([]file.File, error)
}

type storage struct {
	users userStore
	files fileStore
	ping  func(ctx context.Context) error
	close func()
}

func openStorage(ctx context.Context, cfg config.Config, prom *observability.Prom, log *slog.Logger) (*storage, error) {
	if cfg.StorageDriver == "memory" {
		log.Warn("using in-memory storage; data is lost on restart")

		users := memory.NewUsersRepo()
		return &storage{
			users: users,
			files: memory.NewFilesRepo(users),
			close: func() {},
		}, nil
	}

	pool, err := db.NewPool(ctx, cfg.DBURL)
	if err != nil {
		return nil, fmt.Errorf("db connect (%s): %w", cfg.DBSummary(), err)
	}

	if cfg.RunMigrations {
		results, err := db.Migrate(ctx, pool)
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		for _, r := range results {
			log.Info("migration applied", "version", r.Source.Version, "file", r.Source.Path, "duration_ms", r.Duration.Milliseconds())
		}
	}

	return &storage{
		users: postgres.NewUsersRepo(pool, prom),
		files: postgres.NewFilesRepo(pool, prom),
		ping:  pool.Ping,
		close: pool.Close,
	}, nil
}
