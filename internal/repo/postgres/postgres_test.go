package postgres_test

import (
	"context"
	"os"
	"testing"

	"github.com/geocoder89/docvault/internal/db"
	"github.com/geocoder89/docvault/internal/domain/file"
	"github.com/geocoder89/docvault/internal/domain/user"
	"github.com/geocoder89/docvault/internal/repo/postgres"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupDB needs a disposable database in TEST_DB_DSN; it truncates every table.
func setupDB(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}

	ctx := context.Background()

	pool, err := db.NewPool(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, err = db.Migrate(ctx, pool)
	require.NoError(t, err)

	_, err = pool.Exec(ctx, `TRUNCATE files, users RESTART IDENTITY CASCADE`)
	require.NoError(t, err)

	return pool
}

func TestUsersRepo(t *testing.T) {
	pool := setupDB(t)
	ctx := context.Background()
	repo := postgres.NewUsersRepo(pool, nil)

	u, err := repo.Create(ctx, user.User{Name: "Alice", Email: "a@x.io", PasswordHash: "h1", Role: user.RoleUser})
	require.NoError(t, err)
	assert.Equal(t, int64(1), u.ID)
	assert.False(t, u.CreatedAt.IsZero())

	_, err = repo.Create(ctx, user.User{Name: "Other", Email: "a@x.io", PasswordHash: "h2", Role: user.RoleAdmin})
	assert.ErrorIs(t, err, user.ErrEmailTaken)

	got, err := repo.GetByEmail(ctx, "a@x.io")
	require.NoError(t, err)
	assert.Equal(t, "Alice", got.Name)

	require.NoError(t, repo.UpdatePasswordHash(ctx, "a@x.io", "h3"))
	got, err = repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "h3", got.PasswordHash)

	assert.ErrorIs(t, repo.UpdatePasswordHash(ctx, "nobody@x.io", "h"), user.ErrNotFound)

	_, err = repo.GetByID(ctx, 999)
	assert.ErrorIs(t, err, user.ErrNotFound)
}

func TestFilesRepo(t *testing.T) {
	pool := setupDB(t)
	ctx := context.Background()
	users := postgres.NewUsersRepo(pool, nil)
	files := postgres.NewFilesRepo(pool, nil)

	alice, err := users.Create(ctx, user.User{Name: "Alice", Email: "a@x.io", PasswordHash: "h", Role: user.RoleUser})
	require.NoError(t, err)
	bob, err := users.Create(ctx, user.User{Name: "Bob", Email: "b@x.io", PasswordHash: "h", Role: user.RoleUser})
	require.NoError(t, err)

	f1, err := files.Create(ctx, file.File{Filename: "one.pdf", FileURL: "https://blob/1.pdf", UploadedBy: alice.ID})
	require.NoError(t, err)
	assert.False(t, f1.Edited)
	assert.Equal(t, "Alice", f1.UploaderName)

	f2, err := files.Create(ctx, file.File{Filename: "two.pdf", FileURL: "https://blob/2.pdf", UploadedBy: alice.ID})
	require.NoError(t, err)
	_, err = files.Create(ctx, file.File{Filename: "bob.pdf", FileURL: "https://blob/3.pdf", UploadedBy: bob.ID})
	require.NoError(t, err)

	_, err = files.Create(ctx, file.File{Filename: "ghost.pdf", FileURL: "u", UploadedBy: 999})
	assert.ErrorIs(t, err, file.ErrOwnerMissing)

	mine, err := files.ListByOwner(ctx, alice.ID, false)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, f2.ID, mine[0].ID)

	edited, err := files.Replace(ctx, f1.ID, "one-v2.pdf", "https://blob/4.pdf")
	require.NoError(t, err)
	assert.True(t, edited.Edited)
	assert.Equal(t, "https://blob/4.pdf", edited.FileURL)

	onlyEdited, err := files.ListByOwner(ctx, alice.ID, true)
	require.NoError(t, err)
	require.Len(t, onlyEdited, 1)
	assert.Equal(t, f1.ID, onlyEdited[0].ID)

	_, err = files.Replace(ctx, 999, "x.pdf", "u")
	assert.ErrorIs(t, err, file.ErrNotFound)

	all, err := files.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	// deleting a user takes their files along
	require.NoError(t, users.Delete(ctx, alice.ID))
	all, err = files.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Bob", all[0].UploaderName)

	_, err = files.GetByID(ctx, f1.ID)
	assert.ErrorIs(t, err, file.ErrNotFound)
}
