package registry_test

import (
	"context"
	"testing"
	"time"

	"github.com/geocoder89/docvault/internal/domain/file"
	"github.com/geocoder89/docvault/internal/domain/user"
	"github.com/geocoder89/docvault/internal/registry"
	"github.com/geocoder89/docvault/internal/repo/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type steppingClock struct{ t time.Time }

func (c *steppingClock) Now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

func setup(t *testing.T) (*registry.Service, *memory.UsersRepo, user.User, user.User) {
	t.Helper()
	ctx := context.Background()

	users := memory.NewUsersRepo()
	alice, err := users.Create(ctx, user.User{Name: "Alice", Email: "alice@x.com", Role: user.RoleUser})
	require.NoError(t, err)
	bob, err := users.Create(ctx, user.User{Name: "Bob", Email: "bob@x.com", Role: user.RoleUser})
	require.NoError(t, err)

	clock := &steppingClock{t: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)}
	files := memory.NewFilesRepo(users).WithClock(clock.Now)

	return registry.NewService(files), users, alice, bob
}

func TestCreate_StartsUnedited(t *testing.T) {
	svc, _, alice, _ := setup(t)

	f, err := svc.Create(context.Background(), "a.pdf", "https://blob/a", alice.ID)
	require.NoError(t, err)

	assert.False(t, f.Edited)
	assert.Equal(t, alice.ID, f.UploadedBy)
	assert.Equal(t, "Alice", f.UploaderName)
	assert.False(t, f.UploadedAt.IsZero())
}

func TestCreate_RejectsBadRecords(t *testing.T) {
	svc, _, alice, _ := setup(t)

	_, err := svc.Create(context.Background(), "../a.pdf", "https://blob/a", alice.ID)
	assert.ErrorIs(t, err, file.ErrInvalidFilename)

	_, err = svc.Create(context.Background(), "a.pdf", "", alice.ID)
	assert.Error(t, err)
}

func TestReplace_SetsEditedPermanently(t *testing.T) {
	svc, _, alice, _ := setup(t)
	ctx := context.Background()

	f, err := svc.Create(ctx, "a.pdf", "https://blob/a", alice.ID)
	require.NoError(t, err)

	edited, err := svc.Replace(ctx, f.ID, "b.pdf", "https://blob/b")
	require.NoError(t, err)
	assert.True(t, edited.Edited)
	assert.Equal(t, "b.pdf", edited.Filename)
	assert.Equal(t, "https://blob/b", edited.FileURL)
	assert.Equal(t, f.UploadedAt, edited.UploadedAt)

	again, err := svc.Replace(ctx, f.ID, "c.pdf", "https://blob/c")
	require.NoError(t, err)
	assert.True(t, again.Edited)

	_, err = svc.Replace(ctx, 999, "x.pdf", "https://blob/x")
	assert.ErrorIs(t, err, file.ErrNotFound)
}

func TestListings(t *testing.T) {
	svc, _, alice, bob := setup(t)
	ctx := context.Background()

	a1, _ := svc.Create(ctx, "a1.pdf", "u1", alice.ID)
	b1, _ := svc.Create(ctx, "b1.pdf", "u2", bob.ID)
	a2, _ := svc.Create(ctx, "a2.pdf", "u3", alice.ID)

	_, err := svc.Replace(ctx, a1.ID, "a1-v2.pdf", "u4")
	require.NoError(t, err)

	own, err := svc.ListByOwner(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, own, 2)
	assert.Equal(t, a2.ID, own[0].ID, "newest first")
	assert.Equal(t, a1.ID, own[1].ID)

	again, err := svc.ListByOwner(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, own, again, "listing must be repeatable without writes")

	edited, err := svc.ListEditedByOwner(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, edited, 1)
	assert.Equal(t, a1.ID, edited[0].ID)

	bobsEdited, err := svc.ListEditedByOwner(ctx, bob.ID)
	require.NoError(t, err)
	assert.Empty(t, bobsEdited)

	all, err := svc.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []int64{a2.ID, b1.ID, a1.ID}, []int64{all[0].ID, all[1].ID, all[2].ID})
}

func TestGet(t *testing.T) {
	svc, _, alice, _ := setup(t)
	ctx := context.Background()

	f, _ := svc.Create(ctx, "a.pdf", "u", alice.ID)

	got, err := svc.Get(ctx, f.ID)
	require.NoError(t, err)
	assert.Equal(t, f.ID, got.ID)

	_, err = svc.Get(ctx, f.ID+100)
	assert.ErrorIs(t, err, file.ErrNotFound)
}

func TestOwnerDeletionCascades(t *testing.T) {
	svc, users, alice, bob := setup(t)
	ctx := context.Background()

	f, _ := svc.Create(ctx, "a.pdf", "u", alice.ID)
	_, _ = svc.Create(ctx, "b.pdf", "u", bob.ID)

	require.NoError(t, users.Delete(ctx, alice.ID))

	_, err := svc.Get(ctx, f.ID)
	assert.ErrorIs(t, err, file.ErrNotFound)

	all, _ := svc.ListAll(ctx)
	assert.Len(t, all, 1)
}
