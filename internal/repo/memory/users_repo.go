package memory

import (
	"context"
	"sync"
	"time"

	"github.com/geocoder89/docvault/internal/domain/user"
)

type UsersRepo struct {
	mu      sync.RWMutex
	nextID  int64
	items   map[int64]user.User
	byEmail map[string]int64

	// cascade hooks, run after a user is removed
	onDelete []func(userID int64)
}

func NewUsersRepo() *UsersRepo {
	return &UsersRepo{
		items:   make(map[int64]user.User),
		byEmail: make(map[string]int64),
	}
}

func (r *UsersRepo) Create(_ context.Context, u user.User) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byEmail[u.Email]; exists {
		return user.User{}, user.ErrEmailTaken
	}

	now := time.Now().UTC()
	r.nextID++

	u.ID = r.nextID
	u.CreatedAt = now
	u.UpdatedAt = now

	r.items[u.ID] = u
	r.byEmail[u.Email] = u.ID

	return u, nil
}

func (r *UsersRepo) GetByEmail(_ context.Context, email string) (user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[email]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return r.items[id], nil
}

func (r *UsersRepo) GetByID(_ context.Context, id int64) (user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.items[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return u, nil
}

func (r *UsersRepo) UpdatePasswordHash(_ context.Context, email, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.byEmail[email]
	if !ok {
		return user.ErrNotFound
	}

	u := r.items[id]
	u.PasswordHash = hash
	u.UpdatedAt = time.Now().UTC()
	r.items[id] = u

	return nil
}

// SetRole changes a stored role directly; no API path does this.
func (r *UsersRepo) SetRole(_ context.Context, id int64, role user.Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.items[id]
	if !ok {
		return user.ErrNotFound
	}
	u.Role = role
	u.UpdatedAt = time.Now().UTC()
	r.items[id] = u

	return nil
}

func (r *UsersRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	u, ok := r.items[id]
	if !ok {
		r.mu.Unlock()
		return user.ErrNotFound
	}
	delete(r.items, id)
	delete(r.byEmail, u.Email)
	hooks := append([]func(int64){}, r.onDelete...)
	r.mu.Unlock()

	for _, fn := range hooks {
		fn(id)
	}
	return nil
}

func (r *UsersRepo) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}

func (r *UsersRepo) nameOf(id int64) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.items[id].Name
}
