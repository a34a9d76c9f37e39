// Package credentials is the credential store: it owns user identities and
// their bcrypt password hashes. Raw passwords never leave this package.
package credentials

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/geocoder89/docvault/internal/domain/user"
	"github.com/geocoder89/docvault/internal/security"
)

type UserStore interface {
	Create(ctx context.Context, u user.User) (user.User, error)
	GetByEmail(ctx context.Context, email string) (user.User, error)
	GetByID(ctx context.Context, id int64) (user.User, error)
	UpdatePasswordHash(ctx context.Context, email, hash string) error
}

// Hasher is swappable so tests don't pay bcrypt cost.
type Hasher struct {
	Hash  func(plain string) (string, error)
	Check func(hash, plain string) error
	Burn  func(plain string)
}

func BcryptHasher() Hasher {
	return Hasher{
		Hash:  security.HashPassword,
		Check: security.CheckPassword,
		Burn:  security.BurnCompare,
	}
}

type Service struct {
	users    UserStore
	hasher   Hasher
	validate *validator.Validate
}

func NewService(users UserStore, hasher Hasher) *Service {
	return &Service{users: users, hasher: hasher, validate: validator.New()}
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     string
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (int64, error) {
	name := strings.TrimSpace(in.Name)
	email := user.NormalizeEmail(in.Email)
	password := strings.TrimSpace(in.Password)

	if name == "" || email == "" || password == "" {
		return 0, fmt.Errorf("%w: name, email, and password are required", user.ErrInvalidInput)
	}
	if err := s.validate.Var(email, "email"); err != nil {
		return 0, fmt.Errorf("%w: email is not a valid address", user.ErrInvalidInput)
	}

	role, ok := user.ParseRole(in.Role)
	if !ok {
		return 0, fmt.Errorf("%w: role must be one of user, admin", user.ErrInvalidInput)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return 0, fmt.Errorf("hash password: %w", err)
	}

	// uniqueness is enforced by the users.email constraint, not a pre-check,
	// so two concurrent registrations cannot both succeed.
	created, err := s.users.Create(ctx, user.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
	})
	if err != nil {
		return 0, err
	}

	return created.ID, nil
}

// Verify returns ErrInvalidCredentials for both an unknown email and a wrong
// password, and does one bcrypt comparison in either case.
func (s *Service) Verify(ctx context.Context, email, password string) (user.User, error) {
	email = user.NormalizeEmail(email)
	password = strings.TrimSpace(password)

	if email == "" || password == "" {
		return user.User{}, fmt.Errorf("%w: email and password are required", user.ErrInvalidInput)
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			s.hasher.Burn(password)
			return user.User{}, user.ErrInvalidCredentials
		}
		return user.User{}, err
	}

	if err := s.hasher.Check(u.PasswordHash, password); err != nil {
		return user.User{}, user.ErrInvalidCredentials
	}

	return u, nil
}

// ResetPassword overwrites the hash without asking for the previous password.
func (s *Service) ResetPassword(ctx context.Context, email, newPassword string) error {
	email = user.NormalizeEmail(email)
	newPassword = strings.TrimSpace(newPassword)

	if email == "" || newPassword == "" {
		return fmt.Errorf("%w: email and new_password are required", user.ErrInvalidInput)
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	return s.users.UpdatePasswordHash(ctx, email, hash)
}

func (s *Service) GetByID(ctx context.Context, id int64) (user.User, error) {
	return s.users.GetByID(ctx, id)
}
