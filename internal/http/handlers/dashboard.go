package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/geocoder89/docvault/internal/access"
	"github.com/geocoder89/docvault/internal/actorctx"
	"github.com/geocoder89/docvault/internal/domain/user"
	"github.com/gin-gonic/gin"
)

type UserLookup interface {
	GetByID(ctx context.Context, id int64) (user.User, error)
}

type DashboardHandler struct {
	users UserLookup
}

func NewDashboardHandler(users UserLookup) *DashboardHandler {
	return &DashboardHandler{users: users}
}

// Show greets the caller. Role and greeting follow the token, the same role
// every other policy check on this request used; the stored role fills in
// only when the token carried none.
func (h *DashboardHandler) Show(ctx *gin.Context) {
	actor := actorctx.ActorFrom(ctx.Request.Context())
	if err := access.Authorize(actor, access.NoOwner, access.ViewDashboard); err != nil {
		respondPolicy(ctx, err, "Forbidden")
		return
	}

	u, err := h.users.GetByID(ctx.Request.Context(), actor.ID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, "User not found")
			return
		}
		RespondInternal(ctx, "Internal server error retrieving dashboard.", err)
		return
	}

	role := actor.Role
	if role == "" {
		role = u.Role
	}

	ctx.JSON(http.StatusOK, gin.H{
		"msg":  welcomeMessage(u.Name, role),
		"role": role,
		"user": toUserView(u),
	})
}

func welcomeMessage(name string, role user.Role) string {
	if role == user.RoleAdmin {
		return fmt.Sprintf("Welcome, Admin %s! This is your admin dashboard.", name)
	}
	return fmt.Sprintf("Welcome, %s! This is your user dashboard.", name)
}
