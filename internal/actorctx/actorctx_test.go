package actorctx

import (
	"context"
	"testing"

	"github.com/geocoder89/docvault/internal/access"
	"github.com/geocoder89/docvault/internal/domain/user"
)

func TestActorRoundTrip(t *testing.T) {
	if ActorFrom(context.Background()) != nil {
		t.Fatalf("empty context should carry no actor")
	}

	ctx := WithActor(context.Background(), access.Actor{ID: 5, Role: user.RoleAdmin})

	got := ActorFrom(ctx)
	if got == nil || got.ID != 5 || got.Role != user.RoleAdmin {
		t.Fatalf("got %+v", got)
	}
}
