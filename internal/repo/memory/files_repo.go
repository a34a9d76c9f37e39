package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/geocoder89/docvault/internal/domain/file"
)

type FilesRepo struct {
	mu     sync.RWMutex
	nextID int64
	items  map[int64]file.File
	users  *UsersRepo

	now func() time.Time
}

// NewFilesRepo links the repo to users so that deleting a user removes its files.
func NewFilesRepo(users *UsersRepo) *FilesRepo {
	r := &FilesRepo{
		items: make(map[int64]file.File),
		users: users,
		now:   func() time.Time { return time.Now().UTC() },
	}

	users.mu.Lock()
	users.onDelete = append(users.onDelete, r.deleteByOwner)
	users.mu.Unlock()

	return r
}

// WithClock overrides the upload timestamp source.
func (r *FilesRepo) WithClock(now func() time.Time) *FilesRepo {
	r.now = now
	return r
}

// Create holds the users lock across the owner check and the insert so a
// concurrent UsersRepo.Delete either sees the new file or rejects it first.
// Lock order is users then files.
func (r *FilesRepo) Create(_ context.Context, f file.File) (file.File, error) {
	r.users.mu.RLock()
	defer r.users.mu.RUnlock()

	owner, ok := r.users.items[f.UploadedBy]
	if !ok {
		return file.File{}, file.ErrOwnerMissing
	}

	r.mu.Lock()
	r.nextID++
	f.ID = r.nextID
	f.UploadedAt = r.now()
	f.Edited = false
	r.items[f.ID] = f
	r.mu.Unlock()

	f.UploaderName = owner.Name
	return f, nil
}

func (r *FilesRepo) Replace(_ context.Context, id int64, filename, fileURL string) (file.File, error) {
	r.mu.Lock()
	f, ok := r.items[id]
	if !ok {
		r.mu.Unlock()
		return file.File{}, file.ErrNotFound
	}
	f.Filename = filename
	f.FileURL = fileURL
	f.Edited = true
	r.items[id] = f
	r.mu.Unlock()

	return r.withUploader(f), nil
}

func (r *FilesRepo) GetByID(_ context.Context, id int64) (file.File, error) {
	r.mu.RLock()
	f, ok := r.items[id]
	r.mu.RUnlock()

	if !ok {
		return file.File{}, file.ErrNotFound
	}
	return r.withUploader(f), nil
}

func (r *FilesRepo) ListByOwner(_ context.Context, ownerID int64, editedOnly bool) ([]file.File, error) {
	return r.list(func(f file.File) bool {
		return f.UploadedBy == ownerID && (!editedOnly || f.Edited)
	}), nil
}

func (r *FilesRepo) ListAll(_ context.Context) ([]file.File, error) {
	return r.list(func(file.File) bool { return true }), nil
}

func (r *FilesRepo) list(keep func(file.File) bool) []file.File {
	r.mu.RLock()
	out := make([]file.File, 0, len(r.items))
	for _, f := range r.items {
		if keep(f) {
			out = append(out, f)
		}
	}
	r.mu.RUnlock()

	// newest first, id breaks ties
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UploadedAt.Equal(out[j].UploadedAt) {
			return out[i].UploadedAt.After(out[j].UploadedAt)
		}
		return out[i].ID > out[j].ID
	})

	for i := range out {
		out[i] = r.withUploader(out[i])
	}
	return out
}

func (r *FilesRepo) deleteByOwner(ownerID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, f := range r.items {
		if f.UploadedBy == ownerID {
			delete(r.items, id)
		}
	}
}

func (r *FilesRepo) withUploader(f file.File) file.File {
	f.UploaderName = r.users.nameOf(f.UploadedBy)
	return f
}
