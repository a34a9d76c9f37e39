package db

import (
	"context"
	"errors"

	"github.com/geocoder89/docvault/internal/config"
	"github.com/geocoder89/docvault/internal/domain/user"
	"github.com/geocoder89/docvault/internal/security"
)

type AdminStore interface {
	GetByEmail(ctx context.Context, email string) (user.User, error)
	Create(ctx context.Context, u user.User) (user.User, error)
}

// EnsureAdminUser creates the bootstrap admin from ADMIN_EMAIL/ADMIN_PASSWORD.
// It reports whether a row was inserted; an existing account is left untouched.
func EnsureAdminUser(ctx context.Context, users AdminStore, cfg config.Config) (bool, error) {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return false, nil
	}

	email := user.NormalizeEmail(cfg.AdminEmail)

	// check if the user exists
	_, err := users.GetByEmail(ctx, email)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, user.ErrNotFound) {
		return false, err
	}

	hash, err := security.HashPassword(cfg.AdminPassword)
	if err != nil {
		return false, err
	}

	_, err = users.Create(ctx, user.User{
		Email:        email,
		PasswordHash: hash,
		Name:         cfg.AdminName,
		Role:         user.RoleAdmin,
	})
	if errors.Is(err, user.ErrEmailTaken) {
		// another instance won the race
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return true, nil
}
