package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/geocoder89/docvault/internal/config"
	"github.com/geocoder89/docvault/internal/db"
	"github.com/geocoder89/docvault/internal/domain/user"
	"github.com/geocoder89/docvault/internal/repo/postgres"
)

type userStore interface {
	Create(ctx context.Context, u user.User) (user.User, error)
	GetByEmail(ctx context.Context, email string) (user.User, error)
	GetByID(ctx context.Context, id int64) (user.User, error)
	UpdatePasswordHash(ctx context.Context, email, hash string) error
}

// backend is what the subcommands operate on once connected.
type backend struct {
	users   userStore
	migrate func(ctx context.Context) ([]*goose.MigrationResult, error)
	status  func(ctx context.Context) ([]*goose.MigrationStatus, error)
	close   func()
}

type app struct {
	cfg          config.Config
	open         func(ctx context.Context, cfg config.Config) (*backend, error)
	readPassword func(prompt string, w io.Writer) (string, error)
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "docvault-admin",
		Short: "Operator tasks for a docvault database",
		Long: `docvault-admin manages the schema and accounts of a docvault deployment.
It reads the same DATABASE_URL / DB_* settings as the API server.

Examples:
  docvault-admin migrate up
  docvault-admin create-user --name Ops --email ops@example.com --role admin
  docvault-admin reset-password --email alice@example.com`,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.AddCommand(
		newMigrateCmd(a),
		newCreateUserCmd(a),
		newResetPasswordCmd(a),
		newSeedAdminCmd(a),
	)

	return root
}

// withBackend connects, runs fn and closes the connection.
func (a *app) withBackend(cmd *cobra.Command, fn func(ctx context.Context, b *backend) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	b, err := a.open(ctx, a.cfg)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer b.close()

	return fn(ctx, b)
}

func openPostgres(ctx context.Context, cfg config.Config) (*backend, error) {
	pool, err := db.NewPool(ctx, cfg.DBURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", cfg.DBSummary(), err)
	}

	return &backend{
		users: postgres.NewUsersRepo(pool, nil),
		migrate: func(ctx context.Context) ([]*goose.MigrationResult, error) {
			return db.Migrate(ctx, pool)
		},
		status: func(ctx context.Context) ([]*goose.MigrationStatus, error) {
			return db.MigrationStatus(ctx, pool)
		},
		close: pool.Close,
	}, nil
}

func readTerminalPassword(prompt string, w io.Writer) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("no terminal to prompt for a password; pass --password")
	}

	if _, err := fmt.Fprint(w, prompt); err != nil {
		return "", err
	}
	pw, err := term.ReadPassword(fd)
	fmt.Fprintln(w)
	if err != nil {
		return "", err
	}
	return string(pw), nil
}
