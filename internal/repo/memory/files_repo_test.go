package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geocoder89/docvault/internal/domain/file"
	"github.com/geocoder89/docvault/internal/domain/user"
)

func TestFilesRepo_CreateRequiresOwner(t *testing.T) {
	users := NewUsersRepo()
	files := NewFilesRepo(users)

	_, err := files.Create(context.Background(), file.File{Filename: "a.pdf", UploadedBy: 42})
	assert.ErrorIs(t, err, file.ErrOwnerMissing)

	u, err := users.Create(context.Background(), user.User{Name: "Alice", Email: "alice@x.com"})
	require.NoError(t, err)

	f, err := files.Create(context.Background(), file.File{Filename: "a.pdf", UploadedBy: u.ID})
	require.NoError(t, err)
	assert.Equal(t, "Alice", f.UploaderName)
	assert.False(t, f.Edited)
}

func TestFilesRepo_DeleteUserCascades(t *testing.T) {
	ctx := context.Background()
	users := NewUsersRepo()
	files := NewFilesRepo(users)

	u, err := users.Create(ctx, user.User{Name: "Alice", Email: "alice@x.com"})
	require.NoError(t, err)
	f, err := files.Create(ctx, file.File{Filename: "a.pdf", UploadedBy: u.ID})
	require.NoError(t, err)

	require.NoError(t, users.Delete(ctx, u.ID))

	_, err = files.GetByID(ctx, f.ID)
	assert.ErrorIs(t, err, file.ErrNotFound)
}

// Racing an upload against the owner's deletion must never leave a file
// whose owner is gone.
func TestFilesRepo_CreateRacingUserDelete(t *testing.T) {
	ctx := context.Background()
	users := NewUsersRepo()
	files := NewFilesRepo(users)

	for i := 0; i < 200; i++ {
		u, err := users.Create(ctx, user.User{Name: "U", Email: fmt.Sprintf("u%d@x.com", i)})
		require.NoError(t, err)

		var (
			wg        sync.WaitGroup
			createErr error
		)
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, createErr = files.Create(ctx, file.File{Filename: "a.pdf", UploadedBy: u.ID})
		}()
		go func() {
			defer wg.Done()
			_ = users.Delete(ctx, u.ID)
		}()
		wg.Wait()

		if createErr != nil && !errors.Is(createErr, file.ErrOwnerMissing) {
			t.Fatalf("unexpected create error: %v", createErr)
		}

		owned, err := files.ListByOwner(ctx, u.ID, false)
		require.NoError(t, err)
		if len(owned) != 0 {
			t.Fatalf("iteration %d: %d file(s) left for deleted user %d", i, len(owned), u.ID)
		}
	}
}
