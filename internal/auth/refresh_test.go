package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/geocoder89/docvault/internal/auth"
	"github.com/geocoder89/docvault/internal/domain/user"
	"github.com/geocoder89/docvault/internal/repo/memory"
)

func TestRefresh_EmbedsCurrentRole(t *testing.T) {
	ctx := context.Background()
	users := memory.NewUsersRepo()
	u, err := users.Create(ctx, user.User{Name: "Alice", Email: "alice@x.com", PasswordHash: "h", Role: user.RoleUser})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	tokens := auth.NewManager("secret", 30*time.Minute, 7*24*time.Hour)
	refresher := auth.NewRefresher(tokens, users)

	refresh, err := tokens.IssueRefreshToken(u.ID, u.Role)
	if err != nil {
		t.Fatalf("issue refresh: %v", err)
	}

	// role changes after the refresh token was issued
	if err := users.SetRole(ctx, u.ID, user.RoleAdmin); err != nil {
		t.Fatalf("set role: %v", err)
	}

	access, err := refresher.Refresh(ctx, refresh)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}

	claims, err := tokens.VerifyAccessToken(access)
	if err != nil {
		t.Fatalf("verify new access token: %v", err)
	}
	if claims.Role != user.RoleAdmin {
		t.Fatalf("expected current role admin, got %q", claims.Role)
	}
}

func TestRefresh_UserGone(t *testing.T) {
	ctx := context.Background()
	users := memory.NewUsersRepo()
	u, _ := users.Create(ctx, user.User{Name: "Bob", Email: "bob@x.com", PasswordHash: "h", Role: user.RoleUser})

	tokens := auth.NewManager("secret", 30*time.Minute, 7*24*time.Hour)
	refresher := auth.NewRefresher(tokens, users)

	refresh, _ := tokens.IssueRefreshToken(u.ID, u.Role)

	if err := users.Delete(ctx, u.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if _, err := refresher.Refresh(ctx, refresh); !errors.Is(err, user.ErrNotFound) {
		t.Fatalf("expected user.ErrNotFound, got %v", err)
	}
}

func TestRefresh_RejectsAccessToken(t *testing.T) {
	tokens := auth.NewManager("secret", 30*time.Minute, 7*24*time.Hour)
	refresher := auth.NewRefresher(tokens, memory.NewUsersRepo())

	access, _ := tokens.IssueAccessToken(1, user.RoleUser)

	if _, err := refresher.Refresh(context.Background(), access); !errors.Is(err, auth.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}
