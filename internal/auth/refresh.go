package auth

import (
	"context"

	"github.com/geocoder89/docvault/internal/domain/user"
)

type UserFinder interface {
	GetByID(ctx context.Context, id int64) (user.User, error)
}

// Refresher mints access tokens from refresh tokens. The user is re-read so a
// deleted account cannot refresh and the new token carries the current role.
type Refresher struct {
	tokens *Manager
	users  UserFinder
}

func NewRefresher(tokens *Manager, users UserFinder) *Refresher {
	return &Refresher{tokens: tokens, users: users}
}

func (r *Refresher) Refresh(ctx context.Context, refreshToken string) (string, error) {
	claims, err := r.tokens.VerifyRefreshToken(refreshToken)
	if err != nil {
		return "", err
	}

	id, err := claims.UserID()
	if err != nil {
		return "", err
	}

	u, err := r.users.GetByID(ctx, id)
	if err != nil {
		return "", err
	}

	return r.tokens.IssueAccessToken(u.ID, u.Role)
}
