package actorctx

import (
	"context"

	"github.com/geocoder89/docvault/internal/access"
)

type ctxKey struct{}

func WithActor(ctx context.Context, actor access.Actor) context.Context {
	return context.WithValue(ctx, ctxKey{}, actor)
}

// ActorFrom returns nil when the request was not authenticated.
func ActorFrom(ctx context.Context) *access.Actor {
	v, ok := ctx.Value(ctxKey{}).(access.Actor)
	if !ok {
		return nil
	}

	return &v
}
